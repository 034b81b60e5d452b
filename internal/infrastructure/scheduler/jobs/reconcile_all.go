// Package jobs contains the scheduled job implementations for Kudos Hub.
package jobs

import (
	"context"
	"fmt"

	"github.com/kudos-hub/kudos-engagement-hub/internal/application/command"
	"github.com/kudos-hub/kudos-engagement-hub/internal/infrastructure/scheduler"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
)

// CacheInvalidator drops cached leaderboard rows after totals change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReconcileAllJob runs batch reconciliation over every user with completions.
type ReconcileAllJob struct {
	handler *command.ReconcileAllHandler
	cache   CacheInvalidator
	log     *logger.Logger
}

// NewReconcileAllJob creates a new ReconcileAllJob.
// cache may be nil when no leaderboard cache is configured.
func NewReconcileAllJob(
	handler *command.ReconcileAllHandler,
	cache CacheInvalidator,
	log *logger.Logger,
) *ReconcileAllJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileAllJob{
		handler: handler,
		cache:   cache,
		log:     log.Component("job.reconcile_all"),
	}
}

var _ scheduler.Job = (*ReconcileAllJob)(nil)

// Name returns the unique name of the job.
func (j *ReconcileAllJob) Name() string {
	return "reconcile_all"
}

// Description returns a human-readable description of the job.
func (j *ReconcileAllJob) Description() string {
	return "Credits unlinked completions and recomputes point totals for all users"
}

// Run executes the job.
func (j *ReconcileAllJob) Run(ctx context.Context) error {
	result, err := j.handler.Handle(ctx, command.ReconcileAllCommand{})
	if err != nil {
		return fmt.Errorf("reconcile all: %w", err)
	}

	if result.CreditedTotal > 0 && j.cache != nil {
		// Totals moved, the cached board is stale.
		if err := j.cache.Invalidate(ctx); err != nil {
			j.log.Warn().Err(err).Msg("failed to invalidate leaderboard cache")
		}
	}

	if result.FailedUsers > 0 {
		return fmt.Errorf("reconcile all: %d of %d users failed", result.FailedUsers, result.TotalUsers)
	}
	return nil
}
