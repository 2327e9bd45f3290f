package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionSweeper is the part of the session store the sweeper needs
type SessionSweeper interface {
	Sweep() int
}

// SweepManager periodically removes idle sessions
type SweepManager struct {
	store    SessionSweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSweepManager creates a new sweep manager
func NewSweepManager(store SessionSweeper, logger *slog.Logger, interval time.Duration) *SweepManager {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepManager{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the periodic sweep until Stop is called or ctx is cancelled.
// It blocks; run it in its own goroutine.
func (sm *SweepManager) Start(ctx context.Context) {
	defer close(sm.done)

	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.runSweep()
		case <-sm.stopCh:
			sm.logger.Info("session sweeper stopped")
			return
		case <-ctx.Done():
			sm.logger.Info("session sweeper context cancelled")
			return
		}
	}
}

func (sm *SweepManager) runSweep() {
	if removed := sm.store.Sweep(); removed > 0 {
		sm.logger.Info("idle sessions removed", slog.Int("sessions", removed))
	}
}

// Stop signals the sweeper to stop and waits for it to return. Safe to call more than once.
func (sm *SweepManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stopCh) })
	<-sm.done
}
