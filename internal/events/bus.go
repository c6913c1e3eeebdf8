package events

import (
	"sync"
	"sync/atomic"
)

// Topic names a class of cross-view change.
type Topic string

const (
	// NotificationSettingsChanged carries the new model.NotificationSettings.
	NotificationSettingsChanged Topic = "notification-settings-changed"

	// SessionChanged has no payload; subscribers re-read the session.
	SessionChanged Topic = "session-changed"

	// BookmarksChanged carries the new []model.Bookmark.
	BookmarksChanged Topic = "bookmarks-changed"

	// ViewedAlertsChanged carries the model.AlertID that was marked viewed.
	ViewedAlertsChanged Topic = "viewed-alerts-changed"

	// ToastsChanged carries the active []model.NotificationToast, newest first.
	ToastsChanged Topic = "toasts-changed"
)

// Event is a single published change.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives events. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
	active  atomic.Bool
}

// Bus is an in-process publish/subscribe service. There is no replay: a
// subscriber added after a publish does not see it.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Topic][]*subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]*subscription)}
}

// Subscribe registers handler for topic and returns a function that
// removes it. The returned function is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler}
	sub.active.Store(true)
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			b.remove(topic, sub.id)
		})
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers payload to every current subscriber of topic,
// synchronously and in subscription order.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.Lock()
	subs := make([]*subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.Unlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, s := range subs {
		// Skip handlers removed by an earlier handler in this same publish.
		if !s.active.Load() {
			continue
		}
		s.handler(ev)
	}
}

// SubscriberCount returns the number of handlers registered for topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
