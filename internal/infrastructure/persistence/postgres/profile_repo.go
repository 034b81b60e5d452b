package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/profile"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
)

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

var _ profile.Repository = (*ProfileRepository)(nil)

// GetByUserID returns the user's profile.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*profile.Profile, error) {
	query := `
		SELECT user_id, points_total, last_updated, last_hero_activity, last_guide_activity, token
		FROM profiles
		WHERE user_id = $1
	`

	var p profile.Profile
	var total int
	err := r.conn.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&total,
		&p.LastUpdated,
		&p.LastHeroActivity,
		&p.LastGuideActivity,
		&p.Token,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	p.PointsTotal = ledger.Points(total)
	return &p, nil
}

// GetOrCreate returns the profile, lazily seeding it on first touch.
// The insert is idempotent under concurrent first touches: the conflict
// loser reads the row the winner created.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID string) (*profile.Profile, error) {
	p, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	seeded, err := profile.New(userID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO profiles (user_id, points_total, last_updated, last_hero_activity, last_guide_activity, token)
		VALUES ($1, $2, $3, $4, $5, $6::uuid)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err = r.conn.Exec(ctx, query,
		seeded.UserID,
		int(seeded.PointsTotal),
		seeded.LastUpdated,
		seeded.LastHeroActivity,
		seeded.LastGuideActivity,
		seeded.Token,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}

// SaveTotal persists the recomputed total. The full recompute always wins
// over whatever was cached.
func (r *ProfileRepository) SaveTotal(ctx context.Context, userID string, total ledger.Points, at time.Time) error {
	query := `
		UPDATE profiles
		SET points_total = $2, last_updated = $3
		WHERE user_id = $1
	`

	tag, err := r.conn.Exec(ctx, query, userID, int(total), at)
	if err != nil {
		return fmt.Errorf("failed to save profile total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// TouchHeroActivity advances the points-earning activity marker.
// The marker is monotonic: an older timestamp never rewinds it.
func (r *ProfileRepository) TouchHeroActivity(ctx context.Context, userID string, at time.Time) error {
	query := `
		UPDATE profiles
		SET last_hero_activity = GREATEST(last_hero_activity, $2)
		WHERE user_id = $1
	`

	tag, err := r.conn.Exec(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("failed to touch hero activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}
