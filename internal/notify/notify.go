package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/metrics"
)

// Event kinds pushed through sinks.
const (
	KindMedicationReminder = "medication_reminder"
	KindAppointmentAlert   = "appointment_alert"
)

// Event is a user-facing notification
type Event struct {
	Kind      string            `json:"kind"`
	UserID    string            `json:"userId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Sink delivers events to a single channel (in-app, telegram, discord)
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

// Dispatcher fans events out to all configured sinks. Delivery failures
// are logged and counted but never propagated: a dead channel must not
// stall the reminder loop.
type Dispatcher struct {
	sinks   []Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(logger *zap.Logger, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		logger:  logger,
		metrics: m,
	}
}

// Register adds a sink after construction
func (d *Dispatcher) Register(sink Sink) {
	d.sinks = append(d.sinks, sink)
}

// Dispatch sends the event to every sink
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, sink := range d.sinks {
		if err := sink.Send(ctx, event); err != nil {
			d.metrics.NotificationErrors.WithLabelValues(sink.Name()).Inc()
			d.logger.Warn("notification delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("kind", event.Kind),
				zap.String("user_id", event.UserID),
				zap.Error(err))
			continue
		}
		d.metrics.NotificationsSent.WithLabelValues(sink.Name()).Inc()
	}
}
