package medications

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/errors"
	"github.com/healthmonitree/healthtrack/internal/metrics"
	"github.com/healthmonitree/healthtrack/internal/notify"
)

// Snooze durations accepted by the API, in minutes
var allowedSnoozes = map[int]bool{10: true, 30: true, 60: true}

// DefaultSnoozeMinutes is used when a snooze request names no duration
const DefaultSnoozeMinutes = 10

// Scheduler drives the reminder loop. Every tick it fires medications
// whose persisted next occurrence has arrived, re-announces elapsed
// snoozes, and advances each schedule through NextFireTime.
type Scheduler struct {
	store      *Store
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	interval   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a new Scheduler
func NewScheduler(store *Store, dispatcher *notify.Dispatcher, logger *zap.Logger, m *metrics.Metrics, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		interval:   interval,
	}
}

// Start launches the ticker loop
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("reminder scheduler started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("reminder scheduler stopped")
				return
			case now := <-ticker.C:
				s.Tick(ctx, now)
			}
		}
	}()
}

// Stop halts the loop and waits for the current tick to finish
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Tick runs one pass of the reminder loop
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	due, err := s.store.ListDue(now)
	if err != nil {
		s.logger.Error("failed to list due medications", zap.Error(err))
		return
	}
	for i := range due {
		if err := s.fire(ctx, &due[i], now); err != nil {
			s.logger.Error("failed to fire reminder",
				zap.String("medication_id", due[i].ID),
				zap.Error(err))
		}
	}

	rearmed, err := s.store.ListDueReminders(now)
	if err != nil {
		s.logger.Error("failed to list elapsed snoozes", zap.Error(err))
		return
	}
	for i := range rearmed {
		if err := s.reannounce(ctx, &rearmed[i]); err != nil {
			s.logger.Error("failed to re-announce reminder",
				zap.String("medication_id", rearmed[i].MedicationID),
				zap.Error(err))
		}
	}
}

// fire handles one arrived occurrence: a missed log is written up
// front and upgraded only when the user responds, so a crash between
// firing and responding still counts the dose as missed.
func (s *Scheduler) fire(ctx context.Context, med *Medication, now time.Time) error {
	scheduled := *med.NextFireAt

	if _, err := s.store.EnsureLog(&ReminderLog{
		UserID:        med.UserID,
		MedicationID:  med.ID,
		ScheduledTime: scheduled,
		Status:        StatusMissed,
	}); err != nil {
		return err
	}

	if err := s.store.CreateActiveReminder(&ActiveReminder{
		UserID:        med.UserID,
		MedicationID:  med.ID,
		ScheduledTime: scheduled,
		FireAt:        scheduled,
		Notified:      true,
	}); err != nil {
		return err
	}

	s.dispatcher.Dispatch(ctx, s.reminderEvent(med, scheduled))
	s.metrics.RemindersFired.Inc()
	s.metrics.ActiveReminders.Inc()

	var next *time.Time
	if n, ok := NextFireTime(med, scheduled); ok {
		next = &n
	}
	if err := s.store.SetNextFire(med.ID, next); err != nil {
		return err
	}

	s.logger.Info("reminder fired",
		zap.String("medication_id", med.ID),
		zap.String("name", med.Name),
		zap.Time("scheduled", scheduled))
	return nil
}

// reannounce notifies for a reminder whose snooze has elapsed
func (s *Scheduler) reannounce(ctx context.Context, reminder *ActiveReminder) error {
	med, err := s.store.GetMedication(reminder.UserID, reminder.MedicationID)
	if err != nil {
		// medication deleted mid-snooze; drop the orphan
		_, err := s.store.DeleteActiveReminder(reminder.MedicationID, reminder.ScheduledTime)
		return err
	}

	s.dispatcher.Dispatch(ctx, s.reminderEvent(med, reminder.ScheduledTime))
	return s.store.MarkReminderNotified(reminder.ID)
}

func (s *Scheduler) reminderEvent(med *Medication, scheduled time.Time) notify.Event {
	body := fmt.Sprintf("Time to take %s", med.Name)
	if med.Dosage != "" {
		body = fmt.Sprintf("Time to take %s (%s)", med.Name, med.Dosage)
	}
	return notify.Event{
		Kind:   notify.KindMedicationReminder,
		UserID: med.UserID,
		Title:  "Medication reminder",
		Body:   body,
		Data: map[string]string{
			"medicationId":  med.ID,
			"scheduledTime": scheduled.Format(time.RFC3339),
		},
	}
}

// MarkTaken upgrades the occurrence's log from missed to taken and
// clears its pending reminder
func (s *Scheduler) MarkTaken(userID, medID string, scheduledTime, now time.Time) (*ReminderLog, error) {
	med, err := s.store.GetMedication(userID, medID)
	if err != nil {
		return nil, err
	}

	log, err := s.store.GetLog(med.ID, scheduledTime)
	if err != nil {
		return nil, err
	}
	if log.Status != StatusTaken {
		log.Status = StatusTaken
		log.ActualTime = &now
		if err := s.store.UpdateLog(log); err != nil {
			return nil, err
		}
		s.metrics.RemindersTaken.Inc()
	}

	// backfilled occurrences never had a pending reminder; only an
	// actual removal moves the gauge
	removed, err := s.store.DeleteActiveReminder(med.ID, scheduledTime)
	if err != nil {
		return nil, err
	}
	if removed {
		s.metrics.ActiveReminders.Dec()
	}
	return log, nil
}

// Snooze re-arms the pending reminder minutes into the future. The
// occurrence keeps its single log row, now marked snoozed; no new row
// is written.
func (s *Scheduler) Snooze(userID, medID string, scheduledTime time.Time, minutes int, now time.Time) (*ActiveReminder, error) {
	if minutes == 0 {
		minutes = DefaultSnoozeMinutes
	}
	if !allowedSnoozes[minutes] {
		return nil, errors.New(errors.ErrValidation.Code, "snooze must be 10, 30 or 60 minutes")
	}

	reminder, err := s.store.GetActiveReminder(userID, medID, scheduledTime)
	if err != nil {
		return nil, err
	}

	fireAt := now.Add(time.Duration(minutes) * time.Minute)
	if err := s.store.ReArmActiveReminder(reminder.ID, fireAt); err != nil {
		return nil, err
	}
	reminder.FireAt = fireAt
	reminder.Notified = false

	log, err := s.store.GetLog(medID, scheduledTime)
	if err != nil {
		return nil, err
	}
	if log.Status == StatusMissed {
		log.Status = StatusSnoozed
		if err := s.store.UpdateLog(log); err != nil {
			return nil, err
		}
	}

	s.metrics.RemindersSnoozed.Inc()
	s.logger.Info("reminder snoozed",
		zap.String("medication_id", medID),
		zap.Int("minutes", minutes),
		zap.Time("fire_at", fireAt))
	return reminder, nil
}
