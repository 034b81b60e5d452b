package redis

import (
	"context"
	"errors"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// LeaderboardCache is a caching decorator over leaderboard.Reader.
// It caches the NEUTRAL join rows, before ranking and anonymization:
// generated names must stay per-read, so only the raw fan-out rows are
// safe to share between viewers.
type LeaderboardCache struct {
	cache  *Cache
	source leaderboard.Reader
	ttl    time.Duration
}

// NewLeaderboardCache creates a new LeaderboardCache over the given reader.
func NewLeaderboardCache(cache *Cache, source leaderboard.Reader) *LeaderboardCache {
	return &LeaderboardCache{cache: cache, source: source, ttl: TTLLeaderboard}
}

var _ leaderboard.Reader = (*LeaderboardCache)(nil)

const joinRowsKey = PrefixLeaderboard + "join_rows"

// cachedJoinRow is the JSON shape stored in Redis.
type cachedJoinRow struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Anonymous   bool      `json:"anonymous"`
	PointsTotal int       `json:"points_total"`
	LastActive  time.Time `json:"last_active"`
	AvatarColor string    `json:"avatar_color"`
	AvatarLevel int       `json:"avatar_level"`
	PartType    string    `json:"part_type"`
	PartID      int       `json:"part_id"`
}

// ListJoinRows returns the flat leaderboard rows, consulting the cache first.
// A Redis failure degrades to a direct source read.
func (c *LeaderboardCache) ListJoinRows(ctx context.Context) ([]leaderboard.JoinRow, error) {
	var cached []cachedJoinRow
	err := c.cache.Get(ctx, joinRowsKey, &cached)
	if err == nil {
		return fromCachedRows(cached), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return c.source.ListJoinRows(ctx)
	}

	rows, err := c.source.ListJoinRows(ctx)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, joinRowsKey, toCachedRows(rows), c.ttl)
	return rows, nil
}

// Invalidate drops the cached rows. Called after reconciliation runs that
// change totals, so the board catches up before the TTL.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, joinRowsKey)
}

func toCachedRows(rows []leaderboard.JoinRow) []cachedJoinRow {
	out := make([]cachedJoinRow, len(rows))
	for i, r := range rows {
		out[i] = cachedJoinRow{
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			Anonymous:   r.Anonymous,
			PointsTotal: int(r.PointsTotal),
			LastActive:  r.LastActive,
			AvatarColor: r.AvatarColor,
			AvatarLevel: r.AvatarLevel,
			PartType:    r.PartType,
			PartID:      r.PartID,
		}
	}
	return out
}

func fromCachedRows(rows []cachedJoinRow) []leaderboard.JoinRow {
	out := make([]leaderboard.JoinRow, len(rows))
	for i, r := range rows {
		out[i] = leaderboard.JoinRow{
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			Anonymous:   r.Anonymous,
			PointsTotal: ledger.Points(r.PointsTotal),
			LastActive:  r.LastActive,
			AvatarColor: r.AvatarColor,
			AvatarLevel: r.AvatarLevel,
			PartType:    r.PartType,
			PartID:      r.PartID,
		}
	}
	return out
}
