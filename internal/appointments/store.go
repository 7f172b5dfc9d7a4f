package appointments

import (
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

// KV is the session-state backend for countdown dismissals
type KV interface {
	SetKV(key string, value []byte, ttl time.Duration) error
	GetKV(key string) ([]byte, error)
	DeleteKV(key string) error
}

// Store persists appointments and tracks dismissed countdowns
type Store struct {
	db     *gorm.DB
	kv     KV
	logger *zap.Logger
}

// NewStore creates a new Store and migrates its tables
func NewStore(db *gorm.DB, kv KV, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Appointment{}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to migrate appointment tables")
	}
	return &Store{db: db, kv: kv, logger: logger}, nil
}

// Create validates and inserts an appointment. Appointments in the
// past are rejected.
func (s *Store) Create(appt *Appointment, now time.Time) error {
	if appt.Title == "" || appt.UserID == "" || appt.StartTime.IsZero() {
		return errors.ErrValidation
	}
	if !appt.StartTime.After(now) {
		return errors.ErrPastAppointment
	}
	if err := s.db.Create(appt).Error; err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to create appointment")
	}
	return nil
}

// Get fetches one appointment owned by the user
func (s *Store) Get(userID, id string) (*Appointment, error) {
	var appt Appointment
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&appt).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to load appointment")
	}
	return &appt, nil
}

// List returns all appointments for a user, soonest first
func (s *Store) List(userID string) ([]Appointment, error) {
	var appts []Appointment
	if err := s.db.Where("user_id = ?", userID).Order("start_time ASC").Find(&appts).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list appointments")
	}
	return appts, nil
}

// Update saves edits to an appointment. Moving it resets its staged
// alerts so they fire again for the new time.
func (s *Store) Update(appt *Appointment, now time.Time) error {
	if !appt.StartTime.After(now) {
		return errors.ErrPastAppointment
	}

	existing, err := s.Get(appt.UserID, appt.ID)
	if err != nil {
		return err
	}
	if !existing.StartTime.Equal(appt.StartTime) {
		appt.HourAlertSent = false
		appt.TenMinAlertSent = false
		s.ClearDismissal(appt.UserID, appt.ID)
	}

	if err := s.db.Save(appt).Error; err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to update appointment")
	}
	return nil
}

// Delete removes an appointment
func (s *Store) Delete(userID, id string) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&Appointment{})
	if res.Error != nil {
		return errors.Wrap(res.Error, errors.ErrInternal.Code, "failed to delete appointment")
	}
	if res.RowsAffected == 0 {
		return errors.ErrAppointmentNotFound
	}
	s.ClearDismissal(userID, id)
	return nil
}

// Upcoming returns appointments starting within the next 24 hours
func (s *Store) Upcoming(userID string, now time.Time) ([]Appointment, error) {
	var appts []Appointment
	err := s.db.Where("user_id = ? AND start_time > ? AND start_time <= ?", userID, now, now.Add(countdownWindow)).
		Order("start_time ASC").Find(&appts).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list upcoming appointments")
	}
	return appts, nil
}

// Countdowns builds the countdown views for a user, skipping
// appointments dismissed this session
func (s *Store) Countdowns(userID string, now time.Time) ([]Countdown, error) {
	appts, err := s.Upcoming(userID, now)
	if err != nil {
		return nil, err
	}

	countdowns := make([]Countdown, 0, len(appts))
	for i := range appts {
		if s.IsDismissed(userID, appts[i].ID) {
			continue
		}
		if cd, ok := CountdownFor(&appts[i], now); ok {
			countdowns = append(countdowns, cd)
		}
	}
	return countdowns, nil
}

func dismissKey(userID, apptID string) string {
	return "dismiss:" + userID + ":" + apptID
}

// Dismiss hides an appointment's countdown until its start time
func (s *Store) Dismiss(userID, apptID string, now time.Time) error {
	appt, err := s.Get(userID, apptID)
	if err != nil {
		return err
	}
	ttl := appt.StartTime.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if err := s.kv.SetKV(dismissKey(userID, apptID), []byte("1"), ttl); err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to record dismissal")
	}
	return nil
}

// IsDismissed reports whether the user dismissed the countdown
func (s *Store) IsDismissed(userID, apptID string) bool {
	_, err := s.kv.GetKV(dismissKey(userID, apptID))
	if err == nil {
		return true
	}
	if !stderrors.Is(err, badger.ErrKeyNotFound) {
		s.logger.Warn("dismissal lookup failed", zap.String("appointment_id", apptID), zap.Error(err))
	}
	return false
}

// ClearDismissal re-shows a dismissed countdown
func (s *Store) ClearDismissal(userID, apptID string) {
	if err := s.kv.DeleteKV(dismissKey(userID, apptID)); err != nil {
		s.logger.Warn("failed to clear dismissal", zap.String("appointment_id", apptID), zap.Error(err))
	}
}

// PendingAlerts returns appointments inside the given lead time whose
// alert flag for that stage is still unset
func (s *Store) PendingAlerts(now time.Time, lead time.Duration, flagColumn string) ([]Appointment, error) {
	var appts []Appointment
	err := s.db.Where("start_time > ? AND start_time <= ? AND "+flagColumn+" = ?", now, now.Add(lead), false).
		Find(&appts).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list pending alerts")
	}
	return appts, nil
}

// MarkAlertSent flips one alert flag
func (s *Store) MarkAlertSent(apptID, flagColumn string) error {
	err := s.db.Model(&Appointment{}).Where("id = ?", apptID).Update(flagColumn, true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to flag alert sent")
	}
	return nil
}
