// Package eventstest provides a bus that records published events for tests.
package eventstest

import (
	"context"
	"sync"

	"crm_backend/platform/events"
)

// Recorder is a synchronous events.Bus that keeps every published event.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish records the event.
func (r *Recorder) Publish(_ context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// PublishSync records the event and never fails.
func (r *Recorder) PublishSync(ctx context.Context, event events.Event) error {
	r.Publish(ctx, event)
	return nil
}

// Subscribe is a no-op.
func (r *Recorder) Subscribe(string, events.Handler) {}

// Named returns the recorded events with the given name, in publish order.
func (r *Recorder) Named(name string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

var _ events.Bus = (*Recorder)(nil)
