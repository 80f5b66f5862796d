// Package events provides the in-process broadcast bus feeding the live
// event stream endpoint.
package events

import "sync"

// Event types published on the bus.
const (
	IncidentReported  = "incident.reported"
	IncidentResolved  = "incident.resolved"
	IncidentEscalated = "incident.escalated"
	TicketCreated     = "ticket.created"
	AssetRegistered   = "asset.registered"
	AssetProcessed    = "asset.processed"
	AssetFailed       = "asset.failed"
)

// Event is a notification about a state change, fanned out to stream
// subscribers.
type Event struct {
	Type     string `json:"type"`
	TenantID string `json:"tenant_id,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Bus is an in-process broadcast channel. Publish never blocks: a subscriber
// that falls behind its buffer loses events rather than stalling writers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan Event{}}
}

// Publish fans the event out to every current subscriber.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a buffered subscription. The cancel function releases
// it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
