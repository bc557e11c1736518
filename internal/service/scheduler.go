package service

import (
	"context"
	"log"
	"sync"
	"time"

	"partshub-api/internal/model"
)

// SyncScheduler periodically asks the orchestrator whether a scheduled
// sync is due and kicks one off when it is. The orchestrator itself owns
// no timer; this is the cron-like driver.
type SyncScheduler struct {
	orchestrator *Orchestrator
	tick         time.Duration

	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a scheduler that checks every tick. A zero
// tick defaults to 5 minutes.
func NewSyncScheduler(orchestrator *Orchestrator, tick time.Duration) *SyncScheduler {
	if tick == 0 {
		tick = 5 * time.Minute
	}
	return &SyncScheduler{
		orchestrator: orchestrator,
		tick:         tick,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the scheduler loop.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.tick)
	s.mu.Unlock()

	log.Printf("[SyncScheduler] Started - tick: %v", s.tick)
	go s.run()
}

// run is the main scheduler loop.
func (s *SyncScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.maybeSync()
		case <-s.stopCh:
			log.Printf("[SyncScheduler] Stopped")
			return
		}
	}
}

// maybeSync runs a sync if one is due. A sync already in flight is not an
// error; the next tick will try again.
func (s *SyncScheduler) maybeSync() {
	due, syncType := s.orchestrator.ShouldRunScheduledSync(time.Now())
	if !due {
		return
	}

	log.Printf("[SyncScheduler] Scheduled %s sync due", syncType)

	var err error
	if syncType == model.SyncTypeFull {
		_, err = s.orchestrator.PerformFullSync(context.Background())
	} else {
		_, err = s.orchestrator.PerformIncrementalSync(context.Background())
	}
	if err == ErrSyncInProgress {
		log.Printf("[SyncScheduler] Skipped: sync already running")
	} else if err != nil {
		log.Printf("[SyncScheduler] Sync failed to start: %v", err)
	}
}

// Stop stops the scheduler.
func (s *SyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
