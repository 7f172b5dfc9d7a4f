package appointments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Urgency levels for an upcoming appointment
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Appointment represents a scheduled medical appointment
type Appointment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Doctor    string    `json:"doctor"`
	Location  string    `json:"location"`
	StartTime time.Time `json:"startTime" gorm:"index;not null"`
	Notes     string    `json:"notes"`
	// one-time staged alerts; flags prevent a second send
	HourAlertSent   bool      `json:"hourAlertSent"`
	TenMinAlertSent bool      `json:"tenMinAlertSent"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID if none set
func (a *Appointment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Countdown is the live view of an appointment inside the 24-hour
// window
type Countdown struct {
	AppointmentID string    `json:"appointmentId"`
	Title         string    `json:"title"`
	Location      string    `json:"location,omitempty"`
	StartTime     time.Time `json:"startTime"`
	Remaining     string    `json:"remaining"`
	Urgency       string    `json:"urgency"`
}
