package medications

import (
	"fmt"
	"math"
	"time"
)

// dateOnly truncates t to midnight in its own location
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns whole calendar days from a to b (negative when b
// precedes a). Rounding absorbs DST transitions, where a calendar day
// in the schedule's zone spans 23 or 25 hours.
func daysBetween(a, b time.Time) int {
	return int(math.Round(dateOnly(b).Sub(dateOnly(a)).Hours() / 24))
}

// validDay reports whether the day at the given offset from the start
// date is a dosing day for the frequency
func validDay(frequency string, offset int) bool {
	switch frequency {
	case FrequencyDaily:
		return true
	case FrequencyAlternate:
		return offset%2 == 0
	case FrequencyWeekly:
		return offset%7 == 0
	}
	return false
}

// stepDays returns how many days to advance from a dosing day to the
// next one
func stepDays(frequency string) int {
	switch frequency {
	case FrequencyAlternate:
		return 2
	case FrequencyWeekly:
		return 7
	}
	return 1
}

// skipDays returns how many days to advance from a non-dosing day at
// the given offset to reach the next dosing day
func skipDays(frequency string, offset int) int {
	switch frequency {
	case FrequencyAlternate:
		return 1
	case FrequencyWeekly:
		return 7 - offset%7
	}
	return 1
}

// parseClock splits an "HH:MM" reminder time
func parseClock(s string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid reminder time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid reminder time %q", s)
	}
	return hour, minute, nil
}

// at places the clock time on the given day
func at(day time.Time, clock string) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// NextFireTime computes the next reminder occurrence for a medication
// strictly after now. It is the single source of truth for schedule
// arithmetic: the ticker loop, the startup reconciler, and the API all
// call it. The second return is false when the schedule has no further
// occurrence (disabled, no times, past its end date).
func NextFireTime(med *Medication, now time.Time) (time.Time, bool) {
	if !med.Enabled || !ValidFrequency(med.Frequency) {
		return time.Time{}, false
	}
	times := med.Times()
	if len(times) == 0 {
		return time.Time{}, false
	}

	start := med.StartDate.In(now.Location())
	offset := daysBetween(start, now)

	var candidate time.Time
	switch {
	case offset < 0:
		// schedule has not begun; first occurrence is the first time
		// on the start date
		t, err := at(dateOnly(start), times[0])
		if err != nil {
			return time.Time{}, false
		}
		candidate = t
	case validDay(med.Frequency, offset):
		// today is a dosing day: first time strictly after now wins
		for _, clock := range times {
			t, err := at(dateOnly(now), clock)
			if err != nil {
				return time.Time{}, false
			}
			if t.After(now) {
				candidate = t
				break
			}
		}
		if candidate.IsZero() {
			day := dateOnly(now).AddDate(0, 0, stepDays(med.Frequency))
			t, err := at(day, times[0])
			if err != nil {
				return time.Time{}, false
			}
			candidate = t
		}
	default:
		day := dateOnly(now).AddDate(0, 0, skipDays(med.Frequency, offset))
		t, err := at(day, times[0])
		if err != nil {
			return time.Time{}, false
		}
		candidate = t
	}

	if med.EndDate != nil && dateOnly(candidate).After(dateOnly(med.EndDate.In(now.Location()))) {
		return time.Time{}, false
	}
	return candidate, true
}

// OccurrencesBetween lists every scheduled occurrence in (from, to],
// oldest first. The reconciler uses it to back-fill outcomes for
// occurrences that elapsed while the process was down.
func OccurrencesBetween(med *Medication, from, to time.Time) []time.Time {
	var out []time.Time
	cursor := from
	for {
		next, ok := NextFireTime(med, cursor)
		if !ok || next.After(to) {
			return out
		}
		out = append(out, next)
		cursor = next
	}
}
