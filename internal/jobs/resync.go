package jobs

import (
	"context"
	"log"
	"time"

	"claimdesk/internal/eventbus"
	"claimdesk/internal/store"

	"github.com/go-co-op/gocron"
)

// ResyncJob periodically re-pulls the durable claim set into the in-memory
// store and announces a data-sync, reconciling any drift left by failed
// writes or out-of-band database changes.
type ResyncJob struct {
	store     *store.Store
	bus       *eventbus.Bus
	scheduler *gocron.Scheduler
	interval  time.Duration
}

func NewResyncJob(st *store.Store, bus *eventbus.Bus, interval time.Duration) *ResyncJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ResyncJob{
		store:     st,
		bus:       bus,
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
	}
}

// Start schedules the job and runs the scheduler in the background.
func (j *ResyncJob) Start() error {
	if _, err := j.scheduler.Every(j.interval).Do(j.runOnce); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler.
func (j *ResyncJob) Stop() {
	j.scheduler.Stop()
}

func (j *ResyncJob) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.store.Load(ctx); err != nil {
		log.Printf("claim resync failed, keeping current snapshot: %v", err)
		return
	}
	j.bus.Publish(eventbus.TopicDataSync, map[string]any{"source": "resync"})
}
