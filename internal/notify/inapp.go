package notify

import (
	"context"
)

// InAppSink pushes events to live websocket subscribers via the Hub
type InAppSink struct {
	hub *Hub
}

// NewInAppSink creates a new InAppSink
func NewInAppSink(hub *Hub) *InAppSink {
	return &InAppSink{hub: hub}
}

// Name returns the sink identifier
func (s *InAppSink) Name() string {
	return "inapp"
}

// Send publishes the event to the hub. Delivery to users with no open
// connection is a no-op, not an error.
func (s *InAppSink) Send(_ context.Context, event Event) error {
	s.hub.Publish(event)
	return nil
}
