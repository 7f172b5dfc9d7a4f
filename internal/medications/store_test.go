package medications

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/healthmonitree/healthtrack/internal/errors"
	"github.com/healthmonitree/healthtrack/internal/metrics"
	"github.com/healthmonitree/healthtrack/internal/notify"
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

func seedMedication(t *testing.T, store *Store, now time.Time) *Medication {
	t.Helper()
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))
	med.ID = ""
	require.NoError(t, store.CreateMedication(med, now))
	return med
}

func TestCreateMedicationComputesNextFire(t *testing.T) {
	store := setupTestStore(t)
	now := date(2026, 3, 10, 8, 0)

	med := seedMedication(t, store, now)
	require.NotNil(t, med.NextFireAt)
	assert.Equal(t, date(2026, 3, 10, 9, 0), med.NextFireAt.UTC())
	assert.NotEmpty(t, med.ID)
}

func TestCreateMedicationValidation(t *testing.T) {
	store := setupTestStore(t)
	now := date(2026, 3, 10, 8, 0)

	med := newMedication(t, "hourly", []string{"09:00"}, now)
	assert.Equal(t, "VAL_004", errors.GetCode(store.CreateMedication(med, now)))

	med = newMedication(t, FrequencyDaily, nil, now)
	med.TimesJSON = "[]"
	assert.Equal(t, "VAL_003", errors.GetCode(store.CreateMedication(med, now)))
}

func TestGetMedicationScopedToUser(t *testing.T) {
	store := setupTestStore(t)
	now := date(2026, 3, 10, 8, 0)
	med := seedMedication(t, store, now)

	found, err := store.GetMedication("user-1", med.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", found.Name)

	_, err = store.GetMedication("someone-else", med.ID)
	assert.Equal(t, "NF_002", errors.GetCode(err))
}

func TestDeleteMedicationKeepsLogs(t *testing.T) {
	store := setupTestStore(t)
	now := date(2026, 3, 10, 8, 0)
	med := seedMedication(t, store, now)

	scheduled := date(2026, 3, 10, 9, 0)
	_, err := store.EnsureLog(&ReminderLog{
		UserID: "user-1", MedicationID: med.ID, ScheduledTime: scheduled, Status: StatusMissed,
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateActiveReminder(&ActiveReminder{
		UserID: "user-1", MedicationID: med.ID, ScheduledTime: scheduled, FireAt: scheduled, Notified: true,
	}))

	require.NoError(t, store.DeleteMedication("user-1", med.ID))

	_, err = store.GetMedication("user-1", med.ID)
	assert.Equal(t, "NF_002", errors.GetCode(err))

	reminders, err := store.ListActiveReminders("user-1")
	require.NoError(t, err)
	assert.Empty(t, reminders)

	logs, err := store.ListLogs("user-1", med.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestEnsureLogIdempotent(t *testing.T) {
	store := setupTestStore(t)
	now := date(2026, 3, 10, 8, 0)
	med := seedMedication(t, store, now)
	scheduled := date(2026, 3, 10, 9, 0)

	log := &ReminderLog{UserID: "user-1", MedicationID: med.ID, ScheduledTime: scheduled, Status: StatusMissed}
	created, err := store.EnsureLog(log)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureLog(&ReminderLog{
		UserID: "user-1", MedicationID: med.ID, ScheduledTime: scheduled, Status: StatusMissed,
	})
	require.NoError(t, err)
	assert.False(t, created)

	logs, err := store.ListLogs("user-1", med.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func newTestScheduler(t *testing.T, store *Store) (*Scheduler, *notify.Hub) {
	t.Helper()
	hub := notify.NewHub()
	m := metrics.New()
	dispatcher := notify.NewDispatcher(zap.NewNop(), m, notify.NewInAppSink(hub))
	return NewScheduler(store, dispatcher, zap.NewNop(), m, 30*time.Second), hub
}

func TestTickFiresDueMedication(t *testing.T) {
	store := setupTestStore(t)
	created := date(2026, 3, 10, 8, 0)
	med := seedMedication(t, store, created)

	sched, hub := newTestScheduler(t, store)
	events, unsubscribe := hub.Subscribe("user-1")
	defer unsubscribe()

	sched.Tick(context.Background(), date(2026, 3, 10, 9, 0).Add(30*time.Second))

	select {
	case ev := <-events:
		assert.Equal(t, notify.KindMedicationReminder, ev.Kind)
		assert.Contains(t, ev.Body, "Aspirin")
	default:
		t.Fatal("expected an in-app reminder event")
	}

	// default-missed log written up front
	log, err := store.GetLog(med.ID, date(2026, 3, 10, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusMissed, log.Status)
	assert.Nil(t, log.ActualTime)

	// schedule advanced to tomorrow
	stored, err := store.GetMedication("user-1", med.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextFireAt)
	assert.Equal(t, date(2026, 3, 11, 9, 0), stored.NextFireAt.UTC())

	// firing is not repeated on the next tick
	sched.Tick(context.Background(), date(2026, 3, 10, 9, 1))
	logs, err := store.ListLogs("user-1", med.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestMarkTakenUpgradesLog(t *testing.T) {
	store := setupTestStore(t)
	med := seedMedication(t, store, date(2026, 3, 10, 8, 0))
	sched, _ := newTestScheduler(t, store)

	sched.Tick(context.Background(), date(2026, 3, 10, 9, 0).Add(30*time.Second))

	scheduled := date(2026, 3, 10, 9, 0)
	responded := date(2026, 3, 10, 9, 5)
	log, err := sched.MarkTaken("user-1", med.ID, scheduled, responded)
	require.NoError(t, err)
	assert.Equal(t, StatusTaken, log.Status)
	require.NotNil(t, log.ActualTime)
	assert.Equal(t, responded, log.ActualTime.UTC())

	reminders, err := store.ListActiveReminders("user-1")
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestMarkTakenBackfilledOccurrenceKeepsGauge(t *testing.T) {
	store := setupTestStore(t)
	med := seedMedication(t, store, date(2026, 3, 10, 8, 0))

	hub := notify.NewHub()
	m := metrics.New()
	dispatcher := notify.NewDispatcher(zap.NewNop(), m, notify.NewInAppSink(hub))
	sched := NewScheduler(store, dispatcher, zap.NewNop(), m, 30*time.Second)

	// a back-filled miss never had a pending reminder to clear
	scheduled := date(2026, 3, 9, 9, 0)
	_, err := store.EnsureLog(&ReminderLog{
		UserID: "user-1", MedicationID: med.ID, ScheduledTime: scheduled, Status: StatusMissed,
	})
	require.NoError(t, err)

	log, err := sched.MarkTaken("user-1", med.ID, scheduled, date(2026, 3, 10, 8, 30))
	require.NoError(t, err)
	assert.Equal(t, StatusTaken, log.Status)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveReminders))

	// a live fire-and-take still nets the gauge back to zero
	sched.Tick(context.Background(), date(2026, 3, 10, 9, 0).Add(30*time.Second))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveReminders))

	_, err = sched.MarkTaken("user-1", med.ID, date(2026, 3, 10, 9, 0), date(2026, 3, 10, 9, 5))
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveReminders))
}

func TestSnoozeReArmsWithoutNewLog(t *testing.T) {
	store := setupTestStore(t)
	med := seedMedication(t, store, date(2026, 3, 10, 8, 0))
	sched, hub := newTestScheduler(t, store)

	sched.Tick(context.Background(), date(2026, 3, 10, 9, 0).Add(30*time.Second))

	scheduled := date(2026, 3, 10, 9, 0)
	snoozedAt := date(2026, 3, 10, 9, 2)
	reminder, err := sched.Snooze("user-1", med.ID, scheduled, 0, snoozedAt)
	require.NoError(t, err)
	assert.Equal(t, snoozedAt.Add(10*time.Minute), reminder.FireAt.UTC())

	log, err := store.GetLog(med.ID, scheduled)
	require.NoError(t, err)
	assert.Equal(t, StatusSnoozed, log.Status)

	logs, err := store.ListLogs("user-1", med.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// elapsed snooze re-announces without another log row
	events, unsubscribe := hub.Subscribe("user-1")
	defer unsubscribe()
	sched.Tick(context.Background(), snoozedAt.Add(11*time.Minute))

	select {
	case ev := <-events:
		assert.Equal(t, notify.KindMedicationReminder, ev.Kind)
	default:
		t.Fatal("expected re-announcement after snooze elapsed")
	}
	logs, err = store.ListLogs("user-1", med.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSnoozeRejectsOddDurations(t *testing.T) {
	store := setupTestStore(t)
	med := seedMedication(t, store, date(2026, 3, 10, 8, 0))
	sched, _ := newTestScheduler(t, store)
	sched.Tick(context.Background(), date(2026, 3, 10, 9, 0).Add(30*time.Second))

	_, err := sched.Snooze("user-1", med.ID, date(2026, 3, 10, 9, 0), 45, date(2026, 3, 10, 9, 2))
	assert.Equal(t, "VAL_001", errors.GetCode(err))
}

func TestAdherenceReport(t *testing.T) {
	store := setupTestStore(t)
	now := date(2026, 3, 10, 8, 0)
	med := seedMedication(t, store, now)

	statuses := []string{StatusTaken, StatusTaken, StatusMissed, StatusSnoozed}
	for i, status := range statuses {
		_, err := store.EnsureLog(&ReminderLog{
			UserID:        "user-1",
			MedicationID:  med.ID,
			ScheduledTime: date(2026, 3, 5+i, 9, 0),
			Status:        status,
		})
		require.NoError(t, err)
	}

	report, err := store.Adherence("user-1", med.ID, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Taken)
	assert.Equal(t, 1, report.Missed)
	assert.Equal(t, 1, report.Snoozed)
	assert.Equal(t, 50, report.Percentage)

	// 2-day window only sees the last two occurrences
	windowed, err := store.Adherence("user-1", med.ID, 2, date(2026, 3, 9, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, windowed.Total)
}

func TestExportICS(t *testing.T) {
	med := newMedication(t, FrequencyAlternate, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	ics, err := ExportICS([]Medication{*med}, date(2026, 3, 10, 12, 0))
	require.NoError(t, err)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "PRODID:-//HealthMonitree//Medications//EN")
	assert.Contains(t, ics, "RRULE:FREQ=DAILY;INTERVAL=2")
	assert.Contains(t, ics, "SUMMARY:Take Aspirin")
	assert.Contains(t, ics, "\r\n")
}

func TestExportICSSkipsDisabled(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))
	med.Enabled = false

	ics, err := ExportICS([]Medication{*med}, date(2026, 3, 10, 12, 0))
	require.NoError(t, err)
	assert.NotContains(t, ics, "BEGIN:VEVENT")
}
