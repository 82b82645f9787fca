package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"claimdesk/internal/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type applyRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *applyRecorder) apply(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *applyRecorder) all() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func TestMountPerformsInitialRefresh(t *testing.T) {
	bus := eventbus.New()
	coord := NewCoordinator(bus, time.Second)

	var calls atomic.Int32
	rec := &applyRecorder{}
	view := coord.Mount("dashboard", []string{eventbus.TopicClaimsChanged}, func(context.Context) (any, error) {
		calls.Add(1)
		return "snapshot-1", nil
	}, rec.apply)
	defer view.Unmount()

	assert.Equal(t, int32(1), calls.Load())
	results := rec.all()
	require.Len(t, results, 1)
	assert.Equal(t, "snapshot-1", results[0].Data)
	assert.False(t, results[0].Stale)
}

func TestBusEventTriggersRefetch(t *testing.T) {
	bus := eventbus.New()
	coord := NewCoordinator(bus, time.Second)

	var calls atomic.Int32
	view := coord.Mount("dashboard", []string{eventbus.TopicClaimsChanged, eventbus.TopicDataSync}, func(context.Context) (any, error) {
		return calls.Add(1), nil
	}, nil)
	defer view.Unmount()

	bus.Publish(eventbus.TopicClaimsChanged, nil)
	bus.Publish(eventbus.TopicDataSync, nil)
	assert.Equal(t, int32(3), calls.Load(), "initial mount plus one per event")

	view.Unmount()
	bus.Publish(eventbus.TopicClaimsChanged, nil)
	assert.Equal(t, int32(3), calls.Load(), "no refetch after unmount")
}

func TestTimeoutServesLastKnownGood(t *testing.T) {
	bus := eventbus.New()
	coord := NewCoordinator(bus, 30*time.Millisecond)

	var slow atomic.Bool
	lateApplied := make(chan Result, 1)
	syncSeen := make(chan eventbus.Event, 1)
	bus.Subscribe(eventbus.TopicDataSync, func(ev eventbus.Event) {
		select {
		case syncSeen <- ev:
		default:
		}
	})

	rec := &applyRecorder{}
	view := coord.Mount("dashboard", nil, func(context.Context) (any, error) {
		if !slow.Load() {
			return "fresh-1", nil
		}
		time.Sleep(120 * time.Millisecond)
		return "fresh-2", nil
	}, func(res Result) {
		rec.apply(res)
		if res.Data == "fresh-2" {
			select {
			case lateApplied <- res:
			default:
			}
		}
	})
	defer view.Unmount()

	slow.Store(true)
	res := view.Refresh(context.Background())
	assert.True(t, res.Stale)
	assert.Equal(t, "fresh-1", res.Data, "timeout falls back to the last good value")

	// The in-flight fetch is not cancelled: its result still lands and a
	// sync event announces it.
	select {
	case late := <-lateApplied:
		assert.False(t, late.Stale)
	case <-time.After(time.Second):
		t.Fatal("late fetch result was never applied")
	}
	select {
	case ev := <-syncSeen:
		assert.Equal(t, true, ev.Detail["late"])
	case <-time.After(time.Second):
		t.Fatal("no data-sync event for the late arrival")
	}

	// A subsequent fast refresh replaces the cache.
	slow.Store(false)
	res = view.Refresh(context.Background())
	assert.False(t, res.Stale)
}

func TestFetchErrorServesStale(t *testing.T) {
	bus := eventbus.New()
	coord := NewCoordinator(bus, time.Second)

	var fail atomic.Bool
	view := coord.Mount("dashboard", nil, func(context.Context) (any, error) {
		if fail.Load() {
			return nil, errors.New("backend down")
		}
		return "good", nil
	}, nil)
	defer view.Unmount()

	fail.Store(true)
	res := view.Refresh(context.Background())
	assert.True(t, res.Stale)
	assert.Equal(t, "good", res.Data)
}

func TestTimeoutBeforeAnyGoodResult(t *testing.T) {
	bus := eventbus.New()
	coord := NewCoordinator(bus, 20*time.Millisecond)

	view := coord.Mount("dashboard", nil, func(context.Context) (any, error) {
		time.Sleep(100 * time.Millisecond)
		return "eventually", nil
	}, nil)
	defer view.Unmount()

	res := view.Refresh(context.Background())
	assert.True(t, res.Stale)
	assert.Nil(t, res.Data, "no last-known-good yet")
}

func TestAnnounceSubmissionRebroadcasts(t *testing.T) {
	bus := eventbus.New()
	coord := NewCoordinator(bus, time.Second)
	coord.SetRebroadcastDelays(10*time.Millisecond, 25*time.Millisecond)

	events := make(chan eventbus.Event, 8)
	bus.Subscribe(eventbus.TopicDataSync, func(ev eventbus.Event) { events <- ev })

	coord.AnnounceSubmission("claim-42")

	for i := 0; i < 3; i++ {
		select {
		case ev := <-events:
			assert.Equal(t, "claim-42", ev.Detail["claim_id"])
			assert.Equal(t, "submitted", ev.Detail["action"])
		case <-time.After(time.Second):
			t.Fatalf("expected 3 submission events, got %d", i)
		}
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
