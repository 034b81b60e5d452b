package jobs

import (
	"context"
	"fmt"

	"github.com/kudos-hub/kudos-engagement-hub/internal/application/command"
	"github.com/kudos-hub/kudos-engagement-hub/internal/infrastructure/scheduler"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
)

// ArchiveRankingsJob archives the current ranking as an append-only batch
// of snapshots. Trend arrows on the leaderboard compare against the most
// recent snapshot that is at least one month old, so the job only needs to
// run around once a month; extra runs just add more snapshots.
type ArchiveRankingsJob struct {
	handler *command.ArchiveRankingHandler
	log     *logger.Logger
}

// NewArchiveRankingsJob creates a new ArchiveRankingsJob.
func NewArchiveRankingsJob(handler *command.ArchiveRankingHandler, log *logger.Logger) *ArchiveRankingsJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ArchiveRankingsJob{
		handler: handler,
		log:     log.Component("job.archive_rankings"),
	}
}

var _ scheduler.Job = (*ArchiveRankingsJob)(nil)

// Name returns the unique name of the job.
func (j *ArchiveRankingsJob) Name() string {
	return "archive_rankings"
}

// Description returns a human-readable description of the job.
func (j *ArchiveRankingsJob) Description() string {
	return "Archives the current leaderboard positions for trend computation"
}

// Run executes the job.
func (j *ArchiveRankingsJob) Run(ctx context.Context) error {
	result, err := j.handler.Handle(ctx, command.ArchiveRankingCommand{})
	if err != nil {
		return fmt.Errorf("archive rankings: %w", err)
	}

	j.log.Info().Int("archived", result.ArchivedCount).Msg("ranking snapshot archived")
	return nil
}
