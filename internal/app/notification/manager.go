// Package notification provides the event hub observers subscribe to.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// subscription represents a subscriber's subscription.
type subscription struct {
	id string
	ch chan Event
}

// Hub manages subscriptions and broadcasting.
type Hub struct {
	mu            sync.Mutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	bufferSize    int
	closed        bool
}

// NewHub creates a new hub. A bufferSize <= 0 uses DefaultBufferSize.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subscriptions: make(map[string]*subscription),
		bufferSize:    bufferSize,
	}
}

// Subscribe adds a new subscription and returns its ID and event channel.
func (h *Hub) Subscribe() (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Event, h.bufferSize)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscriptions[id] = &subscription{id: id, ch: ch}
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscriptions[id]; ok {
		delete(h.subscriptions, id)
		close(sub.ch)
	}
}

// Publish stamps the event with the next sequence number and sends it to
// every subscriber without blocking. Slow subscribers lose events.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.sequenceNo++
	e.SequenceNo = h.sequenceNo

	for _, sub := range h.subscriptions {
		select {
		case sub.ch <- e:
		default:
			zlog.Warn().Msgf("notification dropped: subscription=%s type=%s seq=%d", sub.id, e.Type, e.SequenceNo)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscriptions)
}

// Close removes all subscriptions and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subscriptions {
		close(sub.ch)
		delete(h.subscriptions, id)
	}
	h.closed = true
}
