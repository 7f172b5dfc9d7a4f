package profile

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store, err := NewStore(db, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestBMI(t *testing.T) {
	assert.Equal(t, 22.9, BMI(70, 175))
	assert.Equal(t, 0.0, BMI(0, 175))
	assert.Equal(t, 0.0, BMI(70, 0))
}

func TestBMICategory(t *testing.T) {
	assert.Equal(t, "underweight", BMICategory(18.4))
	assert.Equal(t, "normal", BMICategory(18.5))
	assert.Equal(t, "normal", BMICategory(24.9))
	assert.Equal(t, "overweight", BMICategory(25))
	assert.Equal(t, "obese", BMICategory(30))
	assert.Equal(t, "unknown", BMICategory(0))
}

func TestBMR(t *testing.T) {
	male := &HealthProfile{Sex: SexMale, Age: 30, HeightCM: 180, WeightKG: 80}
	assert.InDelta(t, 1853.63, BMR(male), 0.01)

	female := &HealthProfile{Sex: SexFemale, Age: 30, HeightCM: 165, WeightKG: 60}
	assert.InDelta(t, 1383.68, BMR(female), 0.01)

	// other uses the female coefficients
	other := &HealthProfile{Sex: SexOther, Age: 30, HeightCM: 165, WeightKG: 60}
	assert.Equal(t, BMR(female), BMR(other))

	incomplete := &HealthProfile{Sex: SexMale, Age: 0, HeightCM: 180, WeightKG: 80}
	assert.Equal(t, 0.0, BMR(incomplete))
}

func TestDailyCalories(t *testing.T) {
	p := &HealthProfile{Sex: SexMale, Age: 30, HeightCM: 180, WeightKG: 80, ActivityLevel: ActivityModeratelyActive}
	assert.InDelta(t, 2873, DailyCalories(p), 1)

	p.ActivityLevel = ""
	sedentary := DailyCalories(p)
	p.ActivityLevel = ActivitySedentary
	assert.Equal(t, DailyCalories(p), sedentary)
}

func TestUpsertCreatesAndAppendsWeight(t *testing.T) {
	store := setupTestStore(t)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	p := &HealthProfile{
		UserID: "user-1", Age: 30, Sex: SexFemale,
		HeightCM: 165, WeightKG: 60, ActivityLevel: ActivityLightlyActive,
		EmergencyContact: "Jo +44 7700 900123", Smoking: "never",
	}
	require.NoError(t, store.Upsert(p, now))

	history, err := store.WeightHistory("user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 60.0, history[0].WeightKG)

	// unchanged weight does not append
	p.Age = 31
	require.NoError(t, store.Upsert(p, now.Add(24*time.Hour)))
	history, err = store.WeightHistory("user-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// changed weight appends, newest first
	p.WeightKG = 58.5
	require.NoError(t, store.Upsert(p, now.Add(48*time.Hour)))
	history, err = store.WeightHistory("user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 58.5, history[0].WeightKG)

	stored, err := store.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, 31, stored.Age)
	assert.Equal(t, 58.5, stored.WeightKG)
	assert.Equal(t, "Jo +44 7700 900123", stored.EmergencyContact)
	assert.Equal(t, "never", stored.Smoking)
}

func TestUpsertValidation(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()

	err := store.Upsert(&HealthProfile{UserID: "user-1", Sex: "robot"}, now)
	assert.Equal(t, "VAL_001", errors.GetCode(err))

	err = store.Upsert(&HealthProfile{UserID: "user-1", ActivityLevel: "marathon"}, now)
	assert.Equal(t, "VAL_001", errors.GetCode(err))

	err = store.Upsert(&HealthProfile{UserID: "user-1", WeightKG: -5}, now)
	assert.Equal(t, "VAL_001", errors.GetCode(err))
}

func TestGetMissingProfile(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get("nobody")
	assert.Equal(t, "NF_001", errors.GetCode(err))
}

func TestStoreInsights(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()
	require.NoError(t, store.Upsert(&HealthProfile{
		UserID: "user-1", Age: 30, Sex: SexMale,
		HeightCM: 180, WeightKG: 80, ActivityLevel: ActivityModeratelyActive,
	}, now))

	insights, err := store.InsightsFor("user-1")
	require.NoError(t, err)
	assert.Equal(t, 24.7, insights.BMI)
	assert.Equal(t, "normal", insights.BMICategory)
	assert.InDelta(t, 2873, insights.DailyCalories, 1)
}
