package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversDetail(t *testing.T) {
	bus := New()

	var got Event
	bus.Subscribe(TopicClaimsChanged, func(ev Event) { got = ev })
	bus.Publish(TopicClaimsChanged, map[string]any{"claim_id": "C1"})

	assert.Equal(t, TopicClaimsChanged, got.Topic)
	assert.Equal(t, "C1", got.Detail["claim_id"])
	assert.False(t, got.At.IsZero())
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := New()

	calls := 0
	bus.Subscribe(TopicClaimsChanged, func(Event) { calls++ })
	bus.Publish(TopicDataSync, nil)
	bus.Publish(TopicNotificationChanged, nil)

	assert.Zero(t, calls)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()

	calls := 0
	sub := bus.Subscribe(TopicClaimsChanged, func(Event) { calls++ })
	bus.Publish(TopicClaimsChanged, nil)
	sub.Unsubscribe()
	sub.Unsubscribe() // safe to repeat
	bus.Publish(TopicClaimsChanged, nil)

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.SubscriberCount(TopicClaimsChanged))
}

func TestBackToBackPublishesObservedInOrder(t *testing.T) {
	bus := New()

	var seen []string
	bus.Subscribe(TopicClaimsChanged, func(ev Event) {
		seen = append(seen, ev.Detail["id"].(string))
	})
	bus.Publish(TopicClaimsChanged, map[string]any{"id": "first"})
	bus.Publish(TopicClaimsChanged, map[string]any{"id": "second"})

	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestHandlerMayUnsubscribeDuringDelivery(t *testing.T) {
	bus := New()

	var sub *Subscription
	calls := 0
	sub = bus.Subscribe(TopicDataSync, func(Event) {
		calls++
		sub.Unsubscribe()
	})
	bus.Publish(TopicDataSync, nil)
	bus.Publish(TopicDataSync, nil)

	assert.Equal(t, 1, calls)
}
