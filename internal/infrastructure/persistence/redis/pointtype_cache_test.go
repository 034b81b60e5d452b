package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
)

type countingResolver struct {
	types map[ledger.PointTypeCode]*ledger.PointType
	calls int
}

func (r *countingResolver) Resolve(ctx context.Context, code ledger.PointTypeCode) (*ledger.PointType, error) {
	r.calls++
	pt, ok := r.types[code]
	if !ok {
		return nil, shared.ErrUnknownPointType
	}
	return pt, nil
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheWithClient(client), mr
}

func TestPointTypeCache_ReadThrough(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingResolver{types: map[ledger.PointTypeCode]*ledger.PointType{
		"learning_task": {ID: 1, Code: "learning_task", Points: 10, Active: true},
	}}
	ptc := NewPointTypeCache(cache, source)

	for i := 0; i < 3; i++ {
		pt, err := ptc.Resolve(context.Background(), "learning_task")
		require.NoError(t, err)
		assert.Equal(t, 10, int(pt.Points))
	}

	assert.Equal(t, 1, source.calls, "repeated resolves must hit the cache")
}

func TestPointTypeCache_UnknownCodeNotCached(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingResolver{types: map[ledger.PointTypeCode]*ledger.PointType{}}
	ptc := NewPointTypeCache(cache, source)

	_, err := ptc.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrUnknownPointType)

	_, err = ptc.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrUnknownPointType)

	assert.Equal(t, 2, source.calls, "unknown codes keep failing loudly on every resolve")
}

func TestPointTypeCache_ExpiresAfterTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	source := &countingResolver{types: map[ledger.PointTypeCode]*ledger.PointType{
		"course": {ID: 4, Code: "course", Points: 50, Active: true},
	}}
	ptc := NewPointTypeCache(cache, source)

	_, err := ptc.Resolve(context.Background(), "course")
	require.NoError(t, err)

	mr.FastForward(TTLPointType * 2)

	_, err = ptc.Resolve(context.Background(), "course")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestPointTypeCache_InvalidatePicksUpNewValue(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingResolver{types: map[ledger.PointTypeCode]*ledger.PointType{
		"mission": {ID: 3, Code: "mission", Points: 15, Active: true},
	}}
	ptc := NewPointTypeCache(cache, source)

	pt, err := ptc.Resolve(context.Background(), "mission")
	require.NoError(t, err)
	assert.Equal(t, 15, int(pt.Points))

	// Admin changes the type's current value.
	source.types["mission"].Points = 30
	require.NoError(t, ptc.Invalidate(context.Background(), "mission"))

	pt, err = ptc.Resolve(context.Background(), "mission")
	require.NoError(t, err)
	assert.Equal(t, 30, int(pt.Points), "invalidation makes the new value visible immediately")
}
