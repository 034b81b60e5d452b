package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// PointTypeCache is a read-through cache over the point type directory.
// Reconciliation resolves the same handful of codes for every completion,
// so the directory is cached with a short TTL. Unknown codes are NOT
// negatively cached: they must keep failing loudly.
type PointTypeCache struct {
	cache  *Cache
	source ledger.PointTypeResolver
}

// NewPointTypeCache creates a new PointTypeCache over the given source.
func NewPointTypeCache(cache *Cache, source ledger.PointTypeResolver) *PointTypeCache {
	return &PointTypeCache{cache: cache, source: source}
}

var _ ledger.PointTypeResolver = (*PointTypeCache)(nil)

// cachedPointType is the JSON shape stored in Redis.
type cachedPointType struct {
	ID     int    `json:"id"`
	Code   string `json:"code"`
	Points int    `json:"points"`
	Active bool   `json:"active"`
}

// Resolve returns the point type, consulting the cache first.
// A Redis failure degrades to a direct source read.
func (c *PointTypeCache) Resolve(ctx context.Context, code ledger.PointTypeCode) (*ledger.PointType, error) {
	key := PrefixPointType + string(code)

	var cached cachedPointType
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return &ledger.PointType{
			ID:     ledger.PointTypeID(cached.ID),
			Code:   ledger.PointTypeCode(cached.Code),
			Points: ledger.Points(cached.Points),
			Active: cached.Active,
		}, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// Degraded mode: keep resolving without the cache.
		return c.source.Resolve(ctx, code)
	}

	pt, err := c.source.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, cachedPointType{
		ID:     int(pt.ID),
		Code:   string(pt.Code),
		Points: int(pt.Points),
		Active: pt.Active,
	}, TTLPointType)

	return pt, nil
}

// Invalidate drops a code from the cache. Called after an admin changes
// a point type's value so the new value is visible immediately.
func (c *PointTypeCache) Invalidate(ctx context.Context, code ledger.PointTypeCode) error {
	if err := c.cache.Delete(ctx, PrefixPointType+string(code)); err != nil {
		return fmt.Errorf("failed to invalidate point type %q: %w", code, err)
	}
	return nil
}
