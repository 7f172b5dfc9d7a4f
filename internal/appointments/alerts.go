package appointments

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/metrics"
	"github.com/healthmonitree/healthtrack/internal/notify"
)

// Monitor sends the staged 60-minute and 10-minute alerts. Each stage
// fires at most once per appointment.
type Monitor struct {
	store      *Store
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	interval   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a new Monitor
func NewMonitor(store *Store, dispatcher *notify.Dispatcher, logger *zap.Logger, m *metrics.Metrics, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		interval:   interval,
	}
}

// Start launches the alert loop
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.logger.Info("appointment alert monitor started", zap.Duration("interval", m.interval))
		for {
			select {
			case <-ctx.Done():
				m.logger.Info("appointment alert monitor stopped")
				return
			case now := <-ticker.C:
				m.Tick(ctx, now)
			}
		}
	}()
}

// Stop halts the loop and waits for the current tick to finish
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

// Tick runs one alert pass: the 10-minute stage first so an
// appointment entering both windows at once gets the more urgent
// message
func (m *Monitor) Tick(ctx context.Context, now time.Time) {
	m.stage(ctx, now, 10*time.Minute, "ten_min_alert_sent", "10")
	m.stage(ctx, now, time.Hour, "hour_alert_sent", "60")
}

func (m *Monitor) stage(ctx context.Context, now time.Time, lead time.Duration, flagColumn, threshold string) {
	appts, err := m.store.PendingAlerts(now, lead, flagColumn)
	if err != nil {
		m.logger.Error("failed to list pending alerts", zap.String("stage", threshold), zap.Error(err))
		return
	}

	for i := range appts {
		appt := &appts[i]
		remaining := appt.StartTime.Sub(now)

		m.dispatcher.Dispatch(ctx, notify.Event{
			Kind:   notify.KindAppointmentAlert,
			UserID: appt.UserID,
			Title:  "Upcoming appointment",
			Body:   fmt.Sprintf("%s in %s", appt.Title, FormatRemaining(remaining)),
			Data: map[string]string{
				"appointmentId": appt.ID,
				"threshold":     threshold,
				"startTime":     appt.StartTime.Format(time.RFC3339),
			},
		})

		if err := m.store.MarkAlertSent(appt.ID, flagColumn); err != nil {
			m.logger.Error("failed to flag alert", zap.String("appointment_id", appt.ID), zap.Error(err))
			continue
		}
		// the 10-minute stage implies the 60-minute window has passed
		if flagColumn == "ten_min_alert_sent" && !appt.HourAlertSent {
			if err := m.store.MarkAlertSent(appt.ID, "hour_alert_sent"); err != nil {
				m.logger.Error("failed to flag hour alert", zap.String("appointment_id", appt.ID), zap.Error(err))
			}
		}
		m.metrics.AppointmentAlerts.WithLabelValues(threshold).Inc()
		m.logger.Info("appointment alert sent",
			zap.String("appointment_id", appt.ID),
			zap.String("threshold_minutes", threshold))
	}
}
