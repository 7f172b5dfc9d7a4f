package appointments

import (
	"fmt"
	"time"
)

// countdownWindow is how far ahead an appointment shows a countdown
const countdownWindow = 24 * time.Hour

// FormatRemaining renders a duration as "{h}h {m}m", or "{m}m" inside
// the final hour
func FormatRemaining(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// UrgencyFor grades how soon the appointment is
func UrgencyFor(remaining time.Duration) string {
	switch {
	case remaining <= time.Hour:
		return UrgencyHigh
	case remaining <= 3*time.Hour:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// CountdownFor builds the countdown view for one appointment. The
// second return is false outside the (now, now+24h] window.
func CountdownFor(appt *Appointment, now time.Time) (Countdown, bool) {
	remaining := appt.StartTime.Sub(now)
	if remaining <= 0 || remaining > countdownWindow {
		return Countdown{}, false
	}
	return Countdown{
		AppointmentID: appt.ID,
		Title:         appt.Title,
		Location:      appt.Location,
		StartTime:     appt.StartTime,
		Remaining:     FormatRemaining(remaining),
		Urgency:       UrgencyFor(remaining),
	}, true
}
