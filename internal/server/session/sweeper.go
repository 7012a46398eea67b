package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically purges expired session bindings from a MemoryStore.
// Only started when a token TTL is configured.
type Sweeper struct {
	store    *MemoryStore
	interval time.Duration
	done     chan struct{}
}

// NewSweeper creates a new sweeper.
func NewSweeper(store *MemoryStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine.
func (sw *Sweeper) Start(ctx context.Context) {
	slog.Info("session sweeper started", "interval", sw.interval)

	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if purged := sw.store.PurgeExpired(); purged > 0 {
					slog.Info("purged expired sessions", "count", purged)
				}
			case <-ctx.Done():
				slog.Info("session sweeper stopping")
				close(sw.done)
				return
			}
		}
	}()
}

// Wait blocks until the sweeper has fully stopped.
func (sw *Sweeper) Wait() {
	<-sw.done
}
