package scheduler

import (
	"context"
	"time"

	"eventquote_backend/platform/logger"
)

const (
	defaultCascadeRunCleanupInterval = 6 * time.Hour
	defaultCascadeRunRetention       = 180 * 24 * time.Hour
)

// CascadeRunPurger deletes completed cascade journal entries.
type CascadeRunPurger interface {
	DeleteCompletedCascadeRunsBefore(ctx context.Context, before time.Time) (int64, error)
}

// CascadeRunCleanup periodically removes old fully succeeded cascade runs.
type CascadeRunCleanup struct {
	repo      CascadeRunPurger
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewCascadeRunCleanup(repo CascadeRunPurger, log *logger.Logger, interval, retention time.Duration) *CascadeRunCleanup {
	if interval <= 0 {
		interval = defaultCascadeRunCleanupInterval
	}
	if retention <= 0 {
		retention = defaultCascadeRunRetention
	}

	return &CascadeRunCleanup{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *CascadeRunCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *CascadeRunCleanup) cleanup(ctx context.Context) {
	before := c.now().Add(-c.retention)

	deleted, err := c.repo.DeleteCompletedCascadeRunsBefore(ctx, before)
	if err != nil {
		c.log.Warn("cascade run cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("cascade run cleanup deleted completed runs", "deleted", deleted)
	}
}
