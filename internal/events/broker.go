// Package events provides the fire-and-forget publication channel used to
// push timer state changes to live subscribers such as dashboards.
package events

import (
	"context"
	"sync"
	"time"
)

// Event is one published state change notification.
type Event struct {
	UserID  string
	Name    string
	Payload map[string]any
	At      time.Time
}

// Broker is an in-process fan-out publisher. Delivery is non-blocking: a
// subscriber that cannot keep up loses events rather than stalling the
// publisher, matching the advisory contract of the timer operations.
type Broker struct {
	mu          sync.RWMutex
	now         func() time.Time
	buffer      int
	nextID      int
	subscribers map[int]chan Event
}

// NewBroker returns a broker whose subscriber channels hold up to buffer
// undelivered events.
func NewBroker(buffer int, now func() time.Time) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	if now == nil {
		now = time.Now
	}
	return &Broker{
		now:         now,
		buffer:      buffer,
		subscribers: make(map[int]chan Event),
	}
}

// Subscribe registers a listener for all published events. The returned
// cancel function removes the subscription and closes the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subscribers[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. It never
// returns an error; the signature carries one only to satisfy the publisher
// contract of the application layer.
func (b *Broker) Publish(ctx context.Context, userID, name string, payload map[string]any) error {
	event := Event{
		UserID:  userID,
		Name:    name,
		Payload: payload,
		At:      b.now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full; drop rather than block the timer op.
		}
	}
	return nil
}
