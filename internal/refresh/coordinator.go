package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"claimdesk/internal/eventbus"
)

// FetchFunc re-pulls whatever data a view renders. It is expected to be
// network-bound and is always raced against the coordinator's timeout.
type FetchFunc func(ctx context.Context) (any, error)

// Result is what a view gets back from a refresh. Stale means the fetch did
// not complete in time and Data is the last-known-good value.
type Result struct {
	Data  any       `json:"data"`
	Stale bool      `json:"stale"`
	At    time.Time `json:"at"`
}

// Coordinator owns refresh behavior shared by every mounted view: the fetch
// timeout and the re-broadcast delays that cover views subscribing after a
// submission's initial event has already fired.
type Coordinator struct {
	bus              *eventbus.Bus
	timeout          time.Duration
	rebroadcastAfter []time.Duration
}

// NewCoordinator builds a coordinator. timeout bounds every view fetch;
// typical values are 3–10 seconds.
func NewCoordinator(bus *eventbus.Bus, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		bus:              bus,
		timeout:          timeout,
		rebroadcastAfter: []time.Duration{500 * time.Millisecond, 2 * time.Second},
	}
}

// SetRebroadcastDelays overrides the delayed re-broadcast schedule.
func (c *Coordinator) SetRebroadcastDelays(delays ...time.Duration) {
	c.rebroadcastAfter = delays
}

// View is one mounted UI surface. It re-fetches on every bus event for its
// topics and keeps the last good result for timeout fallback.
type View struct {
	name  string
	coord *Coordinator
	fetch FetchFunc
	apply func(Result)
	subs  []*eventbus.Subscription

	mu       sync.Mutex
	lastGood any
	hasGood  bool
}

// Mount subscribes a view to its topics and performs the initial refresh.
// The returned View must be unmounted to release its subscriptions.
func (c *Coordinator) Mount(name string, topics []string, fetch FetchFunc, apply func(Result)) *View {
	v := &View{name: name, coord: c, fetch: fetch, apply: apply}
	for _, topic := range topics {
		v.subs = append(v.subs, c.bus.Subscribe(topic, func(eventbus.Event) {
			v.refresh(context.Background())
		}))
	}
	v.refresh(context.Background())
	return v
}

// Refresh forces a fetch outside the event path and returns its result.
func (v *View) Refresh(ctx context.Context) Result {
	return v.refresh(ctx)
}

// Unmount drops every subscription. No handler runs for this view afterward.
func (v *View) Unmount() {
	for _, sub := range v.subs {
		sub.Unsubscribe()
	}
	v.subs = nil
}

// refresh races the fetch against the coordinator's timeout. On timeout the
// caller gets the last-known-good data marked stale; the in-flight fetch is
// not cancelled and its late result is still applied and re-announced.
func (v *View) refresh(ctx context.Context) Result {
	fetchCtx, cancel := context.WithTimeout(ctx, v.coord.timeout)

	type outcome struct {
		data any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		data, err := v.fetch(context.WithoutCancel(fetchCtx))
		done <- outcome{data: data, err: err}
	}()

	var result Result
	select {
	case out := <-done:
		cancel()
		if out.err != nil {
			log.Printf("view %s: fetch failed, serving stale: %v", v.name, out.err)
			result = v.staleResult()
		} else {
			result = v.goodResult(out.data)
		}
	case <-fetchCtx.Done():
		cancel()
		result = v.staleResult()
		// A late arrival still lands: update the cache and tell every
		// surface a sync happened, last write wins.
		go func() {
			out := <-done
			if out.err != nil {
				return
			}
			late := v.goodResult(out.data)
			if v.apply != nil {
				v.apply(late)
			}
			v.coord.bus.Publish(eventbus.TopicDataSync, map[string]any{"view": v.name, "late": true})
		}()
	}

	if v.apply != nil {
		v.apply(result)
	}
	return result
}

func (v *View) goodResult(data any) Result {
	v.mu.Lock()
	v.lastGood = data
	v.hasGood = true
	v.mu.Unlock()
	return Result{Data: data, Stale: false, At: time.Now()}
}

func (v *View) staleResult() Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Result{Data: v.lastGood, Stale: true, At: time.Now()}
}

// AnnounceSubmission publishes the submission event immediately and then
// re-broadcasts it on the configured delays, covering views that subscribe
// asynchronously after the first event has fired.
func (c *Coordinator) AnnounceSubmission(claimID string) {
	detail := map[string]any{"claim_id": claimID, "action": "submitted"}
	c.bus.Publish(eventbus.TopicDataSync, detail)
	for _, delay := range c.rebroadcastAfter {
		d := delay
		time.AfterFunc(d, func() {
			c.bus.Publish(eventbus.TopicDataSync, detail)
		})
	}
}
