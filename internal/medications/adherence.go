package medications

import (
	"math"
	"time"
)

// AdherencePercentage returns the share of logged occurrences marked
// taken, rounded to the nearest whole percent. A medication with no
// history reports 100: nothing has been missed yet.
func AdherencePercentage(logs []ReminderLog) int {
	if len(logs) == 0 {
		return 100
	}
	taken := 0
	for _, log := range logs {
		if log.Status == StatusTaken {
			taken++
		}
	}
	return int(math.Round(float64(taken) / float64(len(logs)) * 100))
}

// Adherence builds a report for one medication, scoped to the trailing
// windowDays when positive (0 means all history)
func (s *Store) Adherence(userID, medID string, windowDays int, now time.Time) (*AdherenceReport, error) {
	if _, err := s.GetMedication(userID, medID); err != nil {
		return nil, err
	}

	var since time.Time
	if windowDays > 0 {
		since = dateOnly(now).AddDate(0, 0, -windowDays)
	}
	logs, err := s.ListLogs(userID, medID, since)
	if err != nil {
		return nil, err
	}

	report := &AdherenceReport{
		MedicationID: medID,
		Total:        len(logs),
		Percentage:   AdherencePercentage(logs),
	}
	for _, log := range logs {
		switch log.Status {
		case StatusTaken:
			report.Taken++
		case StatusMissed:
			report.Missed++
		case StatusSnoozed:
			report.Snoozed++
		}
	}
	return report, nil
}
