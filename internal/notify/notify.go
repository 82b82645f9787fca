package notify

import (
	"context"
	"log"
	"time"

	"claimdesk/internal/eventbus"
)

// Event is one user-facing notification. Delivery is fire-and-forget:
// sink failures are logged, never propagated.
type Event struct {
	Type     string    `json:"type"`
	ClaimID  string    `json:"claim_id,omitempty"`
	TargetID string    `json:"target_id,omitempty"` // employee the notification is for
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Sink delivers notifications to wherever the deployment routes them.
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// LogSink writes notifications to the process log. Used when no broker is
// configured.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, event Event) error {
	log.Printf("notification [%s] claim=%s: %s", event.Type, event.ClaimID, event.Message)
	return nil
}

// Notifier fans a notification out to the sink and tells subscribed views
// their notification state is stale.
type Notifier struct {
	sink Sink
	bus  *eventbus.Bus
}

func NewNotifier(sink Sink, bus *eventbus.Bus) *Notifier {
	return &Notifier{sink: sink, bus: bus}
}

// Send delivers the event. Sink errors are swallowed after logging; the
// bus publish still happens so views refresh from the store regardless.
func (n *Notifier) Send(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	if err := n.sink.Notify(ctx, event); err != nil {
		log.Printf("notification sink failed (dropped): %v", err)
	}
	n.bus.Publish(eventbus.TopicNotificationChanged, map[string]any{
		"type":     event.Type,
		"claim_id": event.ClaimID,
	})
}
