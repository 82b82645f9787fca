package eventbus

import (
	"sync"
	"time"
)

// Topic names carried by the bus. Every UI surface may subscribe to any of
// them with a callback taking the optional detail payload.
const (
	TopicClaimsChanged       = "claims-changed"
	TopicNotificationChanged = "notification-changed"
	TopicDataSync            = "data-sync"
)

// Event is one invalidation signal delivered to subscribers.
type Event struct {
	Topic  string         `json:"topic"`
	Detail map[string]any `json:"detail,omitempty"`
	At     time.Time      `json:"at"`
}

// Handler consumes one event. Handlers run synchronously on the publisher's
// goroutine so back-to-back publishes are observed in issuance order.
type Handler func(Event)

// Bus is an in-process publish/subscribe channel with named topics.
// Construct one per engine instance and inject it; tests get isolated buses.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscription identifies one registered handler so it can be removed when
// the owning view unmounts.
type Subscription struct {
	bus   *Bus
	topic string
	id    int
}

// Subscribe registers h for topic and returns the handle used to unsubscribe.
func (b *Bus) Subscribe(topic string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][b.nextID] = h
	return &Subscription{bus: b, topic: topic, id: b.nextID}
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if handlers, ok := s.bus.subs[s.topic]; ok {
		delete(handlers, s.id)
	}
	s.bus = nil
}

// Publish delivers the event to every subscriber of topic. Delivery is
// synchronous and complete before Publish returns.
func (b *Bus) Publish(topic string, detail map[string]any) {
	ev := Event{Topic: topic, Detail: detail, At: time.Now()}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	// Invoke outside the lock so handlers may subscribe/unsubscribe.
	for _, h := range handlers {
		h(ev)
	}
}

// SubscriberCount reports how many handlers are registered for topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
