package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
)

// LeaderboardRepository implements leaderboard.Reader and
// leaderboard.SnapshotRepository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

var (
	_ leaderboard.Reader             = (*LeaderboardRepository)(nil)
	_ leaderboard.SnapshotRepository = (*LeaderboardRepository)(nil)
)

// ListJoinRows loads the flat fan-out rows for the leaderboard: one row per
// active cosmetic part, or a single row with an empty part type for users
// without parts. Grouping back into per-user records is a domain concern.
func (r *LeaderboardRepository) ListJoinRows(ctx context.Context) ([]leaderboard.JoinRow, error) {
	query := `
		SELECT p.user_id, p.display_name, p.anonymous, p.points_total,
		       p.last_hero_activity, p.avatar_color, p.avatar_level,
		       COALESCE(up.part_type, ''), COALESCE(up.part_id, 0)
		FROM profiles p
		LEFT JOIN user_parts up ON up.user_id = p.user_id AND up.active = TRUE
		WHERE p.points_total > 0 AND p.active = TRUE
		ORDER BY p.points_total DESC, p.last_hero_activity DESC, p.user_id, up.part_type
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard rows: %w", err)
	}
	defer rows.Close()

	var out []leaderboard.JoinRow
	for rows.Next() {
		var jr leaderboard.JoinRow
		var total int

		err := rows.Scan(
			&jr.UserID,
			&jr.DisplayName,
			&jr.Anonymous,
			&total,
			&jr.LastActive,
			&jr.AvatarColor,
			&jr.AvatarLevel,
			&jr.PartType,
			&jr.PartID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}

		jr.PointsTotal = ledger.Points(total)
		out = append(out, jr)
	}
	return out, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

// Archive stores a single snapshot row. Append-only, no dedup.
func (r *LeaderboardRepository) Archive(ctx context.Context, snap leaderboard.Snapshot) error {
	query := `
		INSERT INTO rank_snapshots (user_id, created_at, rank_position, points)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, snap.UserID, snap.CreatedAt, int(snap.Position), int(snap.Points))
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}
	return nil
}

// ArchiveBatch stores one archive run's snapshots in a single transaction.
func (r *LeaderboardRepository) ArchiveBatch(ctx context.Context, snaps []leaderboard.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, snap := range snaps {
			_, err := tx.Exec(ctx,
				`INSERT INTO rank_snapshots (user_id, created_at, rank_position, points) VALUES ($1, $2, $3, $4)`,
				snap.UserID, snap.CreatedAt, int(snap.Position), int(snap.Points),
			)
			if err != nil {
				return fmt.Errorf("failed to archive snapshot for %s: %w", snap.UserID, err)
			}
		}
		return nil
	})
}

// LastQualifying returns the user's most recent snapshot that is at least
// one month old at now.
func (r *LeaderboardRepository) LastQualifying(ctx context.Context, userID string, now time.Time) (*leaderboard.Snapshot, error) {
	query := `
		SELECT user_id, created_at, rank_position, points
		FROM rank_snapshots
		WHERE user_id = $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(r.conn.QueryRow(ctx, query, userID, now.AddDate(0, -1, 0)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to query qualifying snapshot: %w", err)
	}
	return snap, nil
}

// LastQualifyingAll returns every user's most recent qualifying snapshot
// in one query, for building the leaderboard trend column.
func (r *LeaderboardRepository) LastQualifyingAll(ctx context.Context, now time.Time) (map[string]leaderboard.Snapshot, error) {
	query := `
		SELECT DISTINCT ON (user_id) user_id, created_at, rank_position, points
		FROM rank_snapshots
		WHERE created_at <= $1
		ORDER BY user_id, created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, now.AddDate(0, -1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query qualifying snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]leaderboard.Snapshot)
	for rows.Next() {
		var snap leaderboard.Snapshot
		var position, points int

		if err := rows.Scan(&snap.UserID, &snap.CreatedAt, &position, &points); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		snap.Position = leaderboard.Position(position)
		snap.Points = ledger.Points(points)
		out[snap.UserID] = snap
	}
	return out, rows.Err()
}

// scanSnapshot maps a single row to a domain snapshot.
func scanSnapshot(row pgx.Row) (*leaderboard.Snapshot, error) {
	var snap leaderboard.Snapshot
	var position, points int

	if err := row.Scan(&snap.UserID, &snap.CreatedAt, &position, &points); err != nil {
		return nil, err
	}

	snap.Position = leaderboard.Position(position)
	snap.Points = ledger.Points(points)
	return &snap, nil
}
