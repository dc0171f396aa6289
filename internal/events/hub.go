// Package events fans out scheduler activity to WebSocket subscribers.
// Delivery is best effort: a subscriber that falls behind loses events.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Event types.
const (
	TypeScheduled = "schedule.created"
	TypeCancelled = "schedule.cancelled"
	TypePosted    = "tweet.posted"
	TypeFailed    = "tweet.failed"
)

// Event is one notification. Subscribers only receive events whose UserID
// matches their own.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	ScheduleID string    `json:"scheduleId,omitempty"`
	TweetID    string    `json:"tweetId,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher accepts events. *Hub implements it.
type Publisher interface {
	Publish(Event)
}

type subscriber struct {
	userID string
	ch     chan Event
}

// Hub is an in-process pub/sub keyed by user id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	logger *slog.Logger
}

var _ Publisher = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[*subscriber]struct{}), logger: logger}
}

// Subscribe registers a subscriber for userID. The returned cancel func
// unregisters it and closes the channel.
func (h *Hub) Subscribe(userID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{userID: userID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish delivers e to every matching subscriber without blocking.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.userID != e.UserID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.logger.Warn("events: subscriber lagging, event dropped", "user", e.UserID, "type", e.Type)
		}
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Service is the name the process-wide Hub is published under.
const Service = "events"
