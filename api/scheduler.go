/*
scheduler.go - Periodic alert batch scheduler

PURPOSE:
  Runs the alert batch in the background at a configurable interval with
  cutoff = yesterday, so alerts keep flowing even when nobody opens the
  dashboard.

DESIGN:
  - Background goroutine driven by a ticker
  - Runs once immediately on Start
  - Batch runs are idempotent, so overlapping triggers are harmless

USAGE:
  scheduler := NewBatchScheduler(handler.Runner)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunBatchNow endpoint (manual trigger)
  - engine/batch.go: Runner
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/attendance-engine/engine"
)

// BatchScheduler triggers periodic alert recomputation.
type BatchScheduler struct {
	Runner        *engine.Runner
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBatchScheduler creates a new scheduler.
func NewBatchScheduler(runner *engine.Runner) *BatchScheduler {
	return &BatchScheduler{
		Runner:        runner,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

// RunNow triggers one batch run outside the schedule.
func (bs *BatchScheduler) RunNow() {
	bs.runBatch()
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.runBatch()

	for {
		select {
		case <-bs.ticker.C:
			bs.runBatch()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) runBatch() {
	cutoff := engine.Yesterday()
	log.Printf("[Scheduler] Running alert batch with cutoff %s", cutoff)

	inserted, err := bs.Runner.RunBatch(context.Background(), cutoff)
	if err != nil {
		log.Printf("[Scheduler] Batch run failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Batch complete: %d new alerts", len(inserted))
}
