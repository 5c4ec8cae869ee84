// Package events fans out notification events to in-process collaborators
// (logging, table refresh, mailing) so they can react without re-querying
// internal state.
package events

import (
	"sync"
	"time"
)

// Kind identifies a notification event type.
type Kind string

const (
	KindDataProcessed    Kind = "data_processed"
	KindControlLaunched  Kind = "control_launched"
	KindControlStarted   Kind = "control_started"
	KindControlSuspended Kind = "control_suspended"
	KindControlCompleted Kind = "control_completed"
)

// Event carries enough payload for a collaborator to act on its own.
type Event struct {
	Kind        Kind           `json:"kind"`
	At          time.Time      `json:"at"`
	ControlType string         `json:"controlType,omitempty"`
	DossierKey  string         `json:"dossierKey,omitempty"`
	Counts      map[string]int `json:"counts,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// Listener receives every published event, synchronously.
type Listener func(Event)

// recentCap bounds the replay ring exposed to polling collaborators.
const recentCap = 100

// Bus is a synchronous in-process event bus with a bounded replay ring.
type Bus struct {
	mu        sync.Mutex
	listeners []Listener
	recent    []Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for all subsequent events.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish stamps and delivers the event to every listener in subscription
// order, then records it in the replay ring.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.Lock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.recent = append(b.recent, e)
	if len(b.recent) > recentCap {
		b.recent = b.recent[len(b.recent)-recentCap:]
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}

// Recent returns a copy of the replay ring, oldest first.
func (b *Bus) Recent() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.recent))
	copy(out, b.recent)
	return out
}
