package medications

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const icsTimestamp = "20060102T150405"

func escapeICS(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}

// recurrenceRule renders the medication's frequency as an RFC 5545
// RRULE line
func recurrenceRule(med *Medication, first time.Time) (string, error) {
	opt := rrule.ROption{Dtstart: first}
	switch med.Frequency {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyAlternate:
		opt.Freq = rrule.DAILY
		opt.Interval = 2
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	default:
		return "", fmt.Errorf("no recurrence for frequency %q", med.Frequency)
	}
	if med.EndDate != nil {
		opt.Until = med.EndDate.AddDate(0, 0, 1).Add(-time.Second)
	}

	if _, err := rrule.NewRRule(opt); err != nil {
		return "", err
	}
	return "RRULE:" + opt.RRuleString(), nil
}

// ExportICS renders the user's medications as an iCalendar document,
// one recurring event per reminder time
func ExportICS(meds []Medication, now time.Time) (string, error) {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//HealthMonitree//Medications//EN",
		"CALSCALE:GREGORIAN",
	}

	for i := range meds {
		med := &meds[i]
		if !med.Enabled {
			continue
		}
		for _, clock := range med.Times() {
			first, err := at(dateOnly(med.StartDate), clock)
			if err != nil {
				return "", err
			}
			rule, err := recurrenceRule(med, first)
			if err != nil {
				return "", err
			}

			summary := med.Name
			if med.Dosage != "" {
				summary = fmt.Sprintf("%s (%s)", med.Name, med.Dosage)
			}

			lines = append(lines,
				"BEGIN:VEVENT",
				fmt.Sprintf("UID:%s-%s@healthmonitree.com", med.ID, strings.ReplaceAll(clock, ":", "")),
				fmt.Sprintf("DTSTAMP:%s", now.UTC().Format(icsTimestamp)+"Z"),
				fmt.Sprintf("DTSTART:%s", first.Format(icsTimestamp)),
				fmt.Sprintf("DTEND:%s", first.Add(15*time.Minute).Format(icsTimestamp)),
				rule,
				fmt.Sprintf("SUMMARY:Take %s", escapeICS(summary)),
			)
			if med.Notes != "" {
				lines = append(lines, fmt.Sprintf("DESCRIPTION:%s", escapeICS(med.Notes)))
			}
			lines = append(lines,
				"BEGIN:VALARM",
				"TRIGGER:PT0M",
				"ACTION:DISPLAY",
				fmt.Sprintf("DESCRIPTION:%s", escapeICS(summary)),
				"END:VALARM",
				"END:VEVENT",
			)
		}
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n", nil
}
