package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/metrics"
)

type recordingSink struct {
	name   string
	events []Event
	err    error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, event Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func TestDispatchFansOut(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	m := metrics.New()
	d := NewDispatcher(zap.NewNop(), m, a, b)

	d.Dispatch(context.Background(), Event{
		Kind:   KindMedicationReminder,
		UserID: "user-1",
		Title:  "Aspirin",
	})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "Aspirin", a.events[0].Title)
	assert.False(t, a.events[0].Timestamp.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("a")))
}

func TestDispatchSurvivesSinkFailure(t *testing.T) {
	broken := &recordingSink{name: "broken", err: errors.New("boom")}
	healthy := &recordingSink{name: "healthy"}
	m := metrics.New()
	d := NewDispatcher(zap.NewNop(), m, broken, healthy)

	d.Dispatch(context.Background(), Event{Kind: KindAppointmentAlert, UserID: "user-1"})

	assert.Len(t, healthy.events, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationErrors.WithLabelValues("broken")))
}

func TestHubPublishAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("user-1")
	otherCh, otherUnsub := hub.Subscribe("user-2")
	defer otherUnsub()

	hub.Publish(Event{UserID: "user-1", Title: "hello"})

	select {
	case ev := <-ch:
		assert.Equal(t, "hello", ev.Title)
	case <-time.After(time.Second):
		t.Fatal("expected event on subscriber channel")
	}

	select {
	case <-otherCh:
		t.Fatal("event leaked to another user")
	default:
	}

	unsubscribe()
	assert.Equal(t, 0, hub.SubscriberCount("user-1"))
	assert.Equal(t, 1, hub.SubscriberCount("user-2"))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	_, unsubscribe := hub.Subscribe("user-1")
	defer unsubscribe()

	// 16-slot buffer; overflow must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			hub.Publish(Event{UserID: "user-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on full subscriber buffer")
	}
}

func TestInAppSink(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("user-1")
	defer unsubscribe()

	sink := NewInAppSink(hub)
	assert.Equal(t, "inapp", sink.Name())
	require.NoError(t, sink.Send(context.Background(), Event{UserID: "user-1", Title: "dose"}))

	select {
	case ev := <-ch:
		assert.Equal(t, "dose", ev.Title)
	case <-time.After(time.Second):
		t.Fatal("expected event from in-app sink")
	}
}
