package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Biological sex values used by the calorie estimate
const (
	SexMale   = "male"
	SexFemale = "female"
	SexOther  = "other"
)

// Activity levels and their calorie multipliers
const (
	ActivitySedentary        = "sedentary"
	ActivityLightlyActive    = "lightly_active"
	ActivityModeratelyActive = "moderately_active"
	ActivityVeryActive       = "very_active"
	ActivitySuperActive      = "super_active"
)

// HealthProfile represents a user's health profile
type HealthProfile struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"userId" gorm:"uniqueIndex;not null"`
	Age           int       `json:"age"`
	Sex           string    `json:"sex"`
	HeightCM      float64   `json:"heightCm"`
	WeightKG      float64   `json:"weightKg"`
	ActivityLevel string    `json:"activityLevel"`
	BloodType     string    `json:"bloodType"`
	Allergies     string    `json:"allergies"`
	Conditions    string    `json:"conditions"`
	// Medications is the free-text list shown to emergency responders,
	// separate from the scheduled reminders
	Medications      string    `json:"medications"`
	EmergencyContact string    `json:"emergencyContact"`
	Smoking          string    `json:"smoking"`
	Alcohol          string    `json:"alcohol"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID if none set
func (p *HealthProfile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// WeightRecord is one append-only weight history entry
type WeightRecord struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"userId" gorm:"index;not null"`
	WeightKG   float64   `json:"weightKg" gorm:"not null"`
	RecordedAt time.Time `json:"recordedAt" gorm:"index;not null"`
}

// BeforeCreate assigns a UUID if none set
func (w *WeightRecord) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Insights summarizes derived health numbers for a profile
type Insights struct {
	BMI           float64 `json:"bmi"`
	BMICategory   string  `json:"bmiCategory"`
	BMR           float64 `json:"bmr"`
	DailyCalories float64 `json:"dailyCalories"`
}
