package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Evicter is the part of the workspace manager the cleaner drives
type Evicter interface {
	EvictIdle(cutoff time.Time) []string
	Now() time.Time
}

// Cleaner periodically drops idle workspaces from memory
type Cleaner struct {
	manager  Evicter
	idleTTL  time.Duration
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(manager Evicter, idleTTL, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}

	return &Cleaner{
		manager:  manager,
		idleTTL:  idleTTL,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "idle_ttl", c.idleTTL)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup evicts workspaces idle for longer than the TTL and returns how many were dropped
func (c *Cleaner) cleanup() int {
	cutoff := c.manager.Now().Add(-c.idleTTL)

	evicted := c.manager.EvictIdle(cutoff)
	if len(evicted) == 0 {
		slog.Debug("no idle workspaces found")
		return 0
	}

	for _, id := range evicted {
		slog.Debug("idle workspace evicted", "workspace_id", id)
	}
	slog.Info("evicted idle workspaces", "count", len(evicted))
	return len(evicted)
}
