package profile

import (
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

var validSexes = map[string]bool{SexMale: true, SexFemale: true, SexOther: true}

// Store persists health profiles and weight history
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a new Store and migrates its tables
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&HealthProfile{}, &WeightRecord{}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to migrate profile tables")
	}
	return &Store{db: db, logger: logger}, nil
}

// Get fetches the user's profile
func (s *Store) Get(userID string) (*HealthProfile, error) {
	var p HealthProfile
	err := s.db.Where("user_id = ?", userID).First(&p).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrProfileNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to load profile")
	}
	return &p, nil
}

// Upsert creates or updates the user's profile. A changed weight
// appends to the weight history; history rows are never edited.
func (s *Store) Upsert(p *HealthProfile, now time.Time) error {
	if p.UserID == "" {
		return errors.ErrValidation
	}
	if p.Sex != "" && !validSexes[p.Sex] {
		return errors.New(errors.ErrValidation.Code, "sex must be male, female or other")
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; p.ActivityLevel != "" && !ok {
		return errors.New(errors.ErrValidation.Code, "unknown activity level")
	}
	if p.WeightKG < 0 || p.HeightCM < 0 || p.Age < 0 {
		return errors.New(errors.ErrValidation.Code, "age, height and weight must not be negative")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing HealthProfile
		err := tx.Where("user_id = ?", p.UserID).First(&existing).Error
		switch {
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(p).Error; err != nil {
				return errors.Wrap(err, errors.ErrInternal.Code, "failed to create profile")
			}
		case err != nil:
			return errors.Wrap(err, errors.ErrInternal.Code, "failed to load profile")
		default:
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			if err := tx.Save(p).Error; err != nil {
				return errors.Wrap(err, errors.ErrInternal.Code, "failed to update profile")
			}
			if p.WeightKG == existing.WeightKG || p.WeightKG <= 0 {
				return nil
			}
		}

		if p.WeightKG > 0 {
			record := &WeightRecord{UserID: p.UserID, WeightKG: p.WeightKG, RecordedAt: now}
			if err := tx.Create(record).Error; err != nil {
				return errors.Wrap(err, errors.ErrInternal.Code, "failed to append weight history")
			}
		}
		return nil
	})
}

// WeightHistory returns the user's weight records, newest first
func (s *Store) WeightHistory(userID string, limit int) ([]WeightRecord, error) {
	q := s.db.Where("user_id = ?", userID).Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []WeightRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to list weight history")
	}
	return records, nil
}

// InsightsFor computes derived numbers for the user's stored profile
func (s *Store) InsightsFor(userID string) (*Insights, error) {
	p, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	insights := InsightsFor(p)
	return &insights, nil
}
