package reconcile

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/medications"
	"github.com/healthmonitree/healthtrack/internal/metrics"
)

// Reconciler repairs medication schedules after downtime: occurrences
// that elapsed while the process was not running are back-filled as
// missed, and every persisted next occurrence is recomputed. It runs
// once at startup and again on a cron schedule.
type Reconciler struct {
	store   *medications.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	cron    *cron.Cron
}

// New creates a new Reconciler
func New(store *medications.Store, logger *zap.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		logger:  logger,
		metrics: m,
		cron:    cron.New(),
	}
}

// Start registers the periodic run. spec is a cron expression such as
// "@daily".
func (r *Reconciler) Start(spec string) error {
	if spec == "" {
		spec = "@daily"
	}
	if _, err := r.cron.AddFunc(spec, func() {
		r.Run(time.Now())
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("reconciler scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the periodic runs
func (r *Reconciler) Stop() {
	r.cron.Stop()
}

// Run walks every enabled medication once
func (r *Reconciler) Run(now time.Time) {
	meds, err := r.store.AllEnabled()
	if err != nil {
		r.logger.Error("reconcile: failed to list medications", zap.Error(err))
		return
	}

	var backfilled int
	for i := range meds {
		n, err := r.reconcileOne(&meds[i], now)
		if err != nil {
			r.logger.Error("reconcile failed",
				zap.String("medication_id", meds[i].ID),
				zap.Error(err))
			continue
		}
		backfilled += n
	}

	r.logger.Info("reconcile complete",
		zap.Int("medications", len(meds)),
		zap.Int("backfilled", backfilled))
}

// reconcileOne back-fills one medication and repairs its pointer
func (r *Reconciler) reconcileOne(med *medications.Medication, now time.Time) (int, error) {
	// occurrences at or after the stored pointer never fired; anything
	// older was handled by the live scheduler before shutdown
	from := med.CreatedAt
	if med.NextFireAt != nil {
		from = med.NextFireAt.Add(-time.Second)
	}

	elapsed := medications.OccurrencesBetween(med, from, now)
	for _, occurrence := range elapsed {
		created, err := r.store.EnsureLog(&medications.ReminderLog{
			UserID:        med.UserID,
			MedicationID:  med.ID,
			ScheduledTime: occurrence,
			Status:        medications.StatusMissed,
		})
		if err != nil {
			return 0, err
		}
		r.metrics.ReconciledOccurrences.Inc()
		if created {
			// nothing responded to this occurrence while the process
			// was down; it is definitively missed
			r.metrics.RemindersMissed.Inc()
		}
	}

	var next *time.Time
	if n, ok := medications.NextFireTime(med, now); ok {
		next = &n
	}
	if err := r.store.SetNextFire(med.ID, next); err != nil {
		return 0, err
	}
	return len(elapsed), nil
}
