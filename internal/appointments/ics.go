package appointments

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	icsTimestamp = "20060102T150405"
	// appointments default to a one hour slot in exported calendars
	defaultDuration = time.Hour
)

func escapeICS(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}

func alarm(trigger, description string) []string {
	return []string{
		"BEGIN:VALARM",
		"TRIGGER:" + trigger,
		"ACTION:DISPLAY",
		"DESCRIPTION:" + escapeICS(description),
		"END:VALARM",
	}
}

// ExportICS renders one appointment as an iCalendar document with
// reminders one hour and ten minutes ahead
func ExportICS(appt *Appointment, now time.Time) string {
	start := appt.StartTime.UTC()
	end := start.Add(defaultDuration)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//HealthMonitree//Appointment//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%s@healthmonitree.com", appt.ID),
		fmt.Sprintf("DTSTAMP:%sZ", now.UTC().Format(icsTimestamp)),
		fmt.Sprintf("DTSTART:%sZ", start.Format(icsTimestamp)),
		fmt.Sprintf("DTEND:%sZ", end.Format(icsTimestamp)),
		fmt.Sprintf("SUMMARY:%s", escapeICS(appt.Title)),
	}
	if appt.Location != "" {
		lines = append(lines, fmt.Sprintf("LOCATION:%s", escapeICS(appt.Location)))
	}
	description := appt.Notes
	if appt.Doctor != "" {
		description = strings.TrimSpace("Dr. " + appt.Doctor + "\n" + description)
	}
	if description != "" {
		lines = append(lines, fmt.Sprintf("DESCRIPTION:%s", escapeICS(description)))
	}

	lines = append(lines, alarm("-PT1H", appt.Title+" in 1 hour")...)
	lines = append(lines, alarm("-PT10M", appt.Title+" in 10 minutes")...)
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	return strings.Join(lines, "\r\n") + "\r\n"
}

// GoogleCalendarURL builds the prefilled Google Calendar event link
func GoogleCalendarURL(appt *Appointment) string {
	start := appt.StartTime.UTC().Format(icsTimestamp) + "Z"
	end := appt.StartTime.UTC().Add(defaultDuration).Format(icsTimestamp) + "Z"

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", appt.Title)
	q.Set("dates", start+"/"+end)
	if appt.Location != "" {
		q.Set("location", appt.Location)
	}
	if appt.Notes != "" {
		q.Set("details", appt.Notes)
	}
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

// OutlookURL builds the prefilled Outlook web compose link
func OutlookURL(appt *Appointment) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", appt.Title)
	q.Set("startdt", appt.StartTime.UTC().Format(time.RFC3339))
	q.Set("enddt", appt.StartTime.UTC().Add(defaultDuration).Format(time.RFC3339))
	if appt.Location != "" {
		q.Set("location", appt.Location)
	}
	if appt.Notes != "" {
		q.Set("body", appt.Notes)
	}
	return "https://outlook.live.com/calendar/0/deeplink/compose?" + q.Encode()
}
