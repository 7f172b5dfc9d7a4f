package medications

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Frequency values for medication schedules
const (
	FrequencyDaily     = "daily"
	FrequencyAlternate = "alternate"
	FrequencyWeekly    = "weekly"
)

// Reminder log statuses
const (
	StatusTaken   = "taken"
	StatusMissed  = "missed"
	StatusSnoozed = "snoozed"
)

// ValidFrequency reports whether f is a supported frequency
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyAlternate, FrequencyWeekly:
		return true
	}
	return false
}

// Medication represents a scheduled medication for a user
type Medication struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	UserID    string     `json:"userId" gorm:"index;not null"`
	Name      string     `json:"name" gorm:"not null"`
	Dosage    string     `json:"dosage"`
	Frequency string     `json:"frequency" gorm:"not null"`
	TimesJSON string     `json:"-" gorm:"column:times;not null"`
	Enabled   bool       `json:"enabled" gorm:"default:true"`
	StartDate time.Time  `json:"startDate" gorm:"not null"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Notes     string     `json:"notes"`
	// NextFireAt is the persisted next occurrence, reconciled on startup
	NextFireAt *time.Time `json:"nextFireAt,omitempty" gorm:"index"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID if none set
func (m *Medication) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Times decodes the stored reminder times, sorted ascending
func (m *Medication) Times() []string {
	var times []string
	if err := json.Unmarshal([]byte(m.TimesJSON), &times); err != nil {
		return nil
	}
	sort.Strings(times)
	return times
}

// SetTimes encodes reminder times for storage
func (m *Medication) SetTimes(times []string) error {
	sorted := make([]string, len(times))
	copy(sorted, times)
	sort.Strings(sorted)
	data, err := json.Marshal(sorted)
	if err != nil {
		return err
	}
	m.TimesJSON = string(data)
	return nil
}

// MarshalJSON includes the decoded times in API responses
func (m Medication) MarshalJSON() ([]byte, error) {
	type alias Medication
	return json.Marshal(struct {
		alias
		Times []string `json:"times"`
	}{
		alias: alias(m),
		Times: m.Times(),
	})
}

// ReminderLog records the outcome of a single scheduled occurrence.
// Exactly one row exists per (medication, scheduled time) pair.
type ReminderLog struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	UserID        string     `json:"userId" gorm:"index;not null"`
	MedicationID  string     `json:"medicationId" gorm:"index:idx_med_occurrence,unique;not null"`
	ScheduledTime time.Time  `json:"scheduledTime" gorm:"index:idx_med_occurrence,unique;not null"`
	ActualTime    *time.Time `json:"actualTime,omitempty"`
	Status        string     `json:"status" gorm:"not null"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID if none set
func (l *ReminderLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ActiveReminder is a fired occurrence still awaiting a response
type ActiveReminder struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"userId" gorm:"index;not null"`
	MedicationID  string    `json:"medicationId" gorm:"index;not null"`
	ScheduledTime time.Time `json:"scheduledTime" gorm:"not null"`
	FireAt        time.Time `json:"fireAt" gorm:"index;not null"`
	// Notified is cleared by a snooze so the ticker re-announces the
	// reminder when the snooze elapses
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate assigns a UUID if none set
func (r *ActiveReminder) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// AdherenceReport summarizes reminder outcomes for a medication
type AdherenceReport struct {
	MedicationID string `json:"medicationId"`
	Total        int    `json:"total"`
	Taken        int    `json:"taken"`
	Missed       int    `json:"missed"`
	Snoozed      int    `json:"snoozed"`
	Percentage   int    `json:"percentage"`
}
