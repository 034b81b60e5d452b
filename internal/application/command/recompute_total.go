package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/profile"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE TOTAL COMMAND
// Recomputes the cached profile total from scratch as the sum of the user's
// active ledger entries. Self-healing: any drift the cache accumulated is
// overwritten by the recomputed value and reported.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeTotalCommand contains the data to recompute a profile total.
type RecomputeTotalCommand struct {
	// UserID is the internal ID of the employee.
	UserID string

	// Now is the recompute timestamp (defaults to now if zero).
	Now time.Time
}

// Validate validates the command.
func (c RecomputeTotalCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("recompute_total: user_id is required")
	}
	return nil
}

// RecomputeTotalResult contains the result of a recompute.
type RecomputeTotalResult struct {
	// UserID is the employee whose total was recomputed.
	UserID string

	// Total is the recomputed sum of active ledger entries.
	Total ledger.Points

	// Drift is recomputed minus previously cached. Non-zero drift means
	// the cache had diverged from the ledger.
	Drift ledger.Points

	// RecomputedAt is when the recompute ran.
	RecomputedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeTotalHandler handles the RecomputeTotalCommand.
type RecomputeTotalHandler struct {
	store    ledger.Store
	profiles profile.Repository
	log      *logger.Logger
}

// NewRecomputeTotalHandler creates a new RecomputeTotalHandler.
func NewRecomputeTotalHandler(
	store ledger.Store,
	profiles profile.Repository,
	log *logger.Logger,
) *RecomputeTotalHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RecomputeTotalHandler{
		store:    store,
		profiles: profiles,
		log:      log.Component("recompute_total"),
	}
}

// Handle executes the recompute total command.
func (h *RecomputeTotalHandler) Handle(ctx context.Context, cmd RecomputeTotalCommand) (*RecomputeTotalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("recompute_total: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	total, err := h.store.SumActive(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("recompute_total: failed to sum ledger: %w", err)
	}

	// Lazy creation: a user touched for the first time gets a seeded profile.
	prof, err := h.profiles.GetOrCreate(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("recompute_total: failed to load profile: %w", err)
	}

	drift := prof.ApplyTotal(total, now)
	if drift != 0 {
		h.log.Warn().
			Str("user_id", cmd.UserID).
			Int("drift", int(drift)).
			Int("total", int(total)).
			Msg("profile total drifted from ledger")
	}

	if err := h.profiles.SaveTotal(ctx, cmd.UserID, total, now); err != nil {
		return nil, fmt.Errorf("recompute_total: failed to save total: %w", err)
	}

	return &RecomputeTotalResult{
		UserID:       cmd.UserID,
		Total:        total,
		Drift:        drift,
		RecomputedAt: now,
	}, nil
}
