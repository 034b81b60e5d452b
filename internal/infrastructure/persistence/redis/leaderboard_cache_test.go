package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
)

type countingReader struct {
	rows  []leaderboard.JoinRow
	calls int
}

func (r *countingReader) ListJoinRows(ctx context.Context) ([]leaderboard.JoinRow, error) {
	r.calls++
	return r.rows, nil
}

func TestLeaderboardCache_CachesJoinRows(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingReader{rows: []leaderboard.JoinRow{
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 300, LastActive: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC), PartType: "hat", PartID: 7},
		{UserID: "bob", DisplayName: "Bob", Anonymous: true, PointsTotal: 200, LastActive: time.Date(2026, 8, 15, 11, 0, 0, 0, time.UTC)},
	}}
	lc := NewLeaderboardCache(cache, source)

	first, err := lc.ListJoinRows(context.Background())
	require.NoError(t, err)
	second, err := lc.ListJoinRows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "alice", second[0].UserID)
	assert.Equal(t, 300, int(second[0].PointsTotal))
	assert.True(t, second[1].Anonymous)
}

func TestLeaderboardCache_InvalidateForcesReload(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingReader{rows: []leaderboard.JoinRow{
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 100, LastActive: time.Now().UTC()},
	}}
	lc := NewLeaderboardCache(cache, source)

	_, err := lc.ListJoinRows(context.Background())
	require.NoError(t, err)

	require.NoError(t, lc.Invalidate(context.Background()))

	_, err = lc.ListJoinRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestLeaderboardCache_ExpiresAfterTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	source := &countingReader{rows: []leaderboard.JoinRow{
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 100, LastActive: time.Now().UTC()},
	}}
	lc := NewLeaderboardCache(cache, source)

	_, err := lc.ListJoinRows(context.Background())
	require.NoError(t, err)

	mr.FastForward(TTLLeaderboard + time.Second)

	_, err = lc.ListJoinRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
