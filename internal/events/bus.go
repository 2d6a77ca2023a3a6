// Package events provides the in-process pub/sub used to push changes to
// event streams and background jobs.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates event categories.
type EventType string

const (
	EventTaskAdded       EventType = "task_added"
	EventTaskUpdated     EventType = "task_updated"
	EventTaskDeleted     EventType = "task_deleted"
	EventTaskCompleted   EventType = "task_completed"
	EventScheduleUpdated EventType = "schedule_updated"
	EventAIMessage       EventType = "ai_message"
	EventReminder        EventType = "reminder"
)

// Payload generic event payload.
type Payload map[string]any

// Event is one published message.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	Time    time.Time `json:"time"`
	Payload Payload   `json:"payload"`
}

// Subscriber receives events.
type Subscriber chan Event

// Bus implements a simple in-process pubsub. Slow subscribers miss events
// rather than block publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[Subscriber][]EventType // nil slice means every type
	now  func() time.Time
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Subscriber][]EventType),
		now:  time.Now,
	}
}

// Subscribe registers a subscriber for the given types, or for all types
// when none are given.
func (b *Bus) Subscribe(types ...EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[ch] = types
	b.mu.Unlock()
	return ch
}

// Publish sends an event to matching subscribers and returns it.
func (b *Bus) Publish(eventType EventType, payload Payload) Event {
	ev := Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Time:    b.now(),
		Payload: payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub, types := range b.subs {
		if !matches(types, eventType) {
			continue
		}
		select {
		case sub <- ev:
		default:
		}
	}
	return ev
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub)
}

func matches(types []EventType, t EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
