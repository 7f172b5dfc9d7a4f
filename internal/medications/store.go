package medications

import (
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

// Store persists medications, reminder logs and active reminders
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a new Store and migrates its tables
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Medication{}, &ReminderLog{}, &ActiveReminder{}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to migrate medication tables")
	}
	return &Store{db: db, logger: logger}, nil
}

// CreateMedication validates and inserts a medication, computing its
// initial next occurrence
func (s *Store) CreateMedication(med *Medication, now time.Time) error {
	if med.Name == "" || med.UserID == "" {
		return errors.ErrValidation
	}
	if !ValidFrequency(med.Frequency) {
		return errors.ErrInvalidFrequency
	}
	if len(med.Times()) == 0 {
		return errors.ErrNoReminderTimes
	}
	if med.StartDate.IsZero() {
		med.StartDate = dateOnly(now)
	}

	if next, ok := NextFireTime(med, now); ok {
		med.NextFireAt = &next
	} else {
		med.NextFireAt = nil
	}

	if err := s.db.Create(med).Error; err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to create medication")
	}
	return nil
}

// GetMedication fetches one medication owned by the user
func (s *Store) GetMedication(userID, id string) (*Medication, error) {
	var med Medication
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&med).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrMedicationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to load medication")
	}
	return &med, nil
}

// ListMedications returns all medications for a user, newest first
func (s *Store) ListMedications(userID string) ([]Medication, error) {
	var meds []Medication
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&meds).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list medications")
	}
	return meds, nil
}

// UpdateMedication saves edits and recomputes the next occurrence.
// Pending active reminders for the old schedule are discarded.
func (s *Store) UpdateMedication(med *Medication, now time.Time) error {
	if !ValidFrequency(med.Frequency) {
		return errors.ErrInvalidFrequency
	}
	if len(med.Times()) == 0 {
		return errors.ErrNoReminderTimes
	}

	if next, ok := NextFireTime(med, now); ok {
		med.NextFireAt = &next
	} else {
		med.NextFireAt = nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medication_id = ?", med.ID).Delete(&ActiveReminder{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrInternal.Code, "failed to clear active reminders")
		}
		if err := tx.Save(med).Error; err != nil {
			return errors.Wrap(err, errors.ErrInternal.Code, "failed to update medication")
		}
		return nil
	})
}

// DeleteMedication removes a medication and its active reminders.
// Historical reminder logs are kept for adherence reporting.
func (s *Store) DeleteMedication(userID, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Medication{})
		if res.Error != nil {
			return errors.Wrap(res.Error, errors.ErrInternal.Code, "failed to delete medication")
		}
		if res.RowsAffected == 0 {
			return errors.ErrMedicationNotFound
		}
		if err := tx.Where("medication_id = ?", id).Delete(&ActiveReminder{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrInternal.Code, "failed to clear active reminders")
		}
		return nil
	})
}

// ListDue returns enabled medications whose persisted next occurrence
// is at or before now
func (s *Store) ListDue(now time.Time) ([]Medication, error) {
	var meds []Medication
	err := s.db.Where("enabled = ? AND next_fire_at IS NOT NULL AND next_fire_at <= ?", true, now).Find(&meds).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list due medications")
	}
	return meds, nil
}

// SetNextFire persists the next occurrence for a medication; nil marks
// the schedule exhausted
func (s *Store) SetNextFire(medID string, next *time.Time) error {
	err := s.db.Model(&Medication{}).Where("id = ?", medID).Update("next_fire_at", next).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to persist next occurrence")
	}
	return nil
}

// EnsureLog inserts a log row for the occurrence unless one already
// exists, reporting whether a new row was written. The unique
// (medication, scheduled time) index makes the insert idempotent
// across ticker restarts and reconcile runs.
func (s *Store) EnsureLog(log *ReminderLog) (bool, error) {
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "medication_id"}, {Name: "scheduled_time"}},
		DoNothing: true,
	}).Create(log)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, errors.ErrInternal.Code, "failed to record reminder log")
	}
	return res.RowsAffected > 0, nil
}

// GetLog fetches the log row for a specific occurrence
func (s *Store) GetLog(medID string, scheduledTime time.Time) (*ReminderLog, error) {
	var log ReminderLog
	err := s.db.Where("medication_id = ? AND scheduled_time = ?", medID, scheduledTime).First(&log).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrReminderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to load reminder log")
	}
	return &log, nil
}

// UpdateLog saves changes to a log row
func (s *Store) UpdateLog(log *ReminderLog) error {
	if err := s.db.Save(log).Error; err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to update reminder log")
	}
	return nil
}

// ListLogs returns a user's reminder logs, optionally scoped to one
// medication and to occurrences on or after since
func (s *Store) ListLogs(userID, medID string, since time.Time) ([]ReminderLog, error) {
	q := s.db.Where("user_id = ?", userID)
	if medID != "" {
		q = q.Where("medication_id = ?", medID)
	}
	if !since.IsZero() {
		q = q.Where("scheduled_time >= ?", since)
	}
	var logs []ReminderLog
	if err := q.Order("scheduled_time DESC").Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list reminder logs")
	}
	return logs, nil
}

// CreateActiveReminder records a fired occurrence awaiting a response
func (s *Store) CreateActiveReminder(reminder *ActiveReminder) error {
	if err := s.db.Create(reminder).Error; err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to create active reminder")
	}
	return nil
}

// ListActiveReminders returns the user's unanswered reminders, oldest
// due first
func (s *Store) ListActiveReminders(userID string) ([]ActiveReminder, error) {
	var reminders []ActiveReminder
	if err := s.db.Where("user_id = ?", userID).Order("fire_at ASC").Find(&reminders).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list active reminders")
	}
	return reminders, nil
}

// GetActiveReminder fetches the pending reminder for an occurrence
func (s *Store) GetActiveReminder(userID, medID string, scheduledTime time.Time) (*ActiveReminder, error) {
	var reminder ActiveReminder
	err := s.db.Where("user_id = ? AND medication_id = ? AND scheduled_time = ?", userID, medID, scheduledTime).
		First(&reminder).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrReminderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to load active reminder")
	}
	return &reminder, nil
}

// DeleteActiveReminder removes the pending reminder for an occurrence,
// reporting whether one existed
func (s *Store) DeleteActiveReminder(medID string, scheduledTime time.Time) (bool, error) {
	res := s.db.Where("medication_id = ? AND scheduled_time = ?", medID, scheduledTime).Delete(&ActiveReminder{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, errors.ErrInternal.Code, "failed to delete active reminder")
	}
	return res.RowsAffected > 0, nil
}

// ReArmActiveReminder pushes a pending reminder's fire time forward
// and clears its notified flag so the ticker announces it again
func (s *Store) ReArmActiveReminder(id string, fireAt time.Time) error {
	err := s.db.Model(&ActiveReminder{}).Where("id = ?", id).
		Updates(map[string]interface{}{"fire_at": fireAt, "notified": false}).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to re-arm reminder")
	}
	return nil
}

// ListDueReminders returns re-armed reminders whose snooze has elapsed
func (s *Store) ListDueReminders(now time.Time) ([]ActiveReminder, error) {
	var reminders []ActiveReminder
	err := s.db.Where("notified = ? AND fire_at <= ?", false, now).Find(&reminders).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list due reminders")
	}
	return reminders, nil
}

// MarkReminderNotified flags a reminder as announced
func (s *Store) MarkReminderNotified(id string) error {
	err := s.db.Model(&ActiveReminder{}).Where("id = ?", id).Update("notified", true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, "failed to flag reminder notified")
	}
	return nil
}

// AllEnabled returns every enabled medication across users. The
// startup reconciler walks this set.
func (s *Store) AllEnabled() ([]Medication, error) {
	var meds []Medication
	if err := s.db.Where("enabled = ?", true).Find(&meds).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list enabled medications")
	}
	return meds, nil
}
