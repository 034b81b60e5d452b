package command

import (
	"context"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARCHIVE RANKING COMMAND
// Computes the current ranking and writes one snapshot row per ranked user.
// Snapshots are append-only; trend arrows on the leaderboard are computed
// against the most recent snapshot that is at least one month old.
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveRankingCommand contains the data to archive the current ranking.
type ArchiveRankingCommand struct {
	// Now is the archive timestamp (defaults to now if zero).
	Now time.Time
}

// ArchiveRankingResult contains the result of an archive run.
type ArchiveRankingResult struct {
	// ArchivedCount is the number of snapshot rows written.
	ArchivedCount int

	// ArchivedAt is the snapshot timestamp.
	ArchivedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ArchiveRankingHandler handles the ArchiveRankingCommand.
type ArchiveRankingHandler struct {
	reader    leaderboard.Reader
	snapshots leaderboard.SnapshotRepository
	log       *logger.Logger
}

// NewArchiveRankingHandler creates a new ArchiveRankingHandler.
func NewArchiveRankingHandler(
	reader leaderboard.Reader,
	snapshots leaderboard.SnapshotRepository,
	log *logger.Logger,
) *ArchiveRankingHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ArchiveRankingHandler{
		reader:    reader,
		snapshots: snapshots,
		log:       log.Component("archive_ranking"),
	}
}

// Handle executes the archive ranking command.
func (h *ArchiveRankingHandler) Handle(ctx context.Context, cmd ArchiveRankingCommand) (*ArchiveRankingResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	joinRows, err := h.reader.ListJoinRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive_ranking: failed to load leaderboard rows: %w", err)
	}

	ranking := leaderboard.NewRanking(leaderboard.GroupJoinRows(joinRows))
	if ranking.Count() == 0 {
		// Nothing to archive; an empty batch run is a valid no-op.
		h.log.Info().Msg("ranking is empty, nothing to archive")
		return &ArchiveRankingResult{ArchivedAt: now}, nil
	}

	snaps := make([]leaderboard.Snapshot, 0, ranking.Count())
	for _, row := range ranking.Rows() {
		snaps = append(snaps, leaderboard.Snapshot{
			UserID:    row.UserID,
			CreatedAt: now,
			Position:  row.Position,
			Points:    row.PointsTotal,
		})
	}

	if err := h.snapshots.ArchiveBatch(ctx, snaps); err != nil {
		return nil, fmt.Errorf("archive_ranking: failed to archive snapshots: %w", err)
	}

	h.log.Info().
		Int("archived", len(snaps)).
		Time("archived_at", now).
		Msg("ranking archived")

	return &ArchiveRankingResult{
		ArchivedCount: len(snaps),
		ArchivedAt:    now,
	}, nil
}
