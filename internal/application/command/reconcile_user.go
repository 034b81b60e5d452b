// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/completion"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/profile"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE USER COMMAND
// Scans all four completion families for completions without a matching active
// ledger entry and credits each one exactly once. Finishes with a full profile
// total recompute, so the cached sum converges even if it had drifted.
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileUserCommand contains the data to reconcile a single user.
type ReconcileUserCommand struct {
	// UserID is the internal ID of the employee.
	UserID string

	// Now is the reconciliation timestamp (defaults to now if zero).
	Now time.Time
}

// Validate validates the command.
func (c ReconcileUserCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("reconcile_user: user_id is required")
	}
	return nil
}

// ReconcileUserResult contains the result of a reconciliation run.
type ReconcileUserResult struct {
	// UserID is the reconciled employee.
	UserID string

	// CreditedCount is the number of new ledger entries created.
	CreditedCount int

	// SkippedCount is the number of completions already credited
	// (lost races are counted here, not as failures).
	SkippedCount int

	// FailedCount is the number of completions that could not be credited.
	FailedCount int

	// NewTotal is the recomputed profile total after the run.
	NewTotal ledger.Points

	// Drift is the difference between the recomputed total and the
	// previously cached one. Zero when the cache was consistent.
	Drift ledger.Points

	// Errors maps "family/completion_id" to the per-item failure.
	// One bad completion never blocks the rest of the run.
	Errors map[string]error

	// ReconciledAt is when the run finished.
	ReconciledAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileUserHandler handles the ReconcileUserCommand.
type ReconcileUserHandler struct {
	scanner   completion.Scanner
	resolver  ledger.PointTypeResolver
	store     ledger.Store
	profiles  profile.Repository
	recompute *RecomputeTotalHandler
	log       *logger.Logger
}

// NewReconcileUserHandler creates a new ReconcileUserHandler.
func NewReconcileUserHandler(
	scanner completion.Scanner,
	resolver ledger.PointTypeResolver,
	store ledger.Store,
	profiles profile.Repository,
	recompute *RecomputeTotalHandler,
	log *logger.Logger,
) *ReconcileUserHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileUserHandler{
		scanner:   scanner,
		resolver:  resolver,
		store:     store,
		profiles:  profiles,
		recompute: recompute,
		log:       log.Component("reconcile_user"),
	}
}

// Handle executes the reconcile user command.
func (h *ReconcileUserHandler) Handle(ctx context.Context, cmd ReconcileUserCommand) (*ReconcileUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("reconcile_user: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	unlinked, err := h.scanner.ScanUnlinked(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("reconcile_user: failed to scan completions: %w", err)
	}

	result := &ReconcileUserResult{
		UserID: cmd.UserID,
		Errors: make(map[string]error),
	}

	var latestCredit time.Time
	for _, u := range unlinked {
		credited := result.CreditedCount
		if err := h.creditOne(ctx, u, result); err != nil {
			// Partial-failure isolation: record and continue with the rest.
			key := fmt.Sprintf("%s/%s", u.Family, u.CompletionID)
			result.Errors[key] = err
			result.FailedCount++
			h.log.Error().
				Str("user_id", cmd.UserID).
				Str("completion", key).
				Err(err).
				Msg("failed to credit completion")
			continue
		}
		if result.CreditedCount > credited && u.CompletedAt.After(latestCredit) {
			latestCredit = u.CompletedAt
		}
	}

	// Full recompute from the ledger, never an incremental adjustment.
	// Credits that failed above are simply absent from the sum.
	total, err := h.recompute.Handle(ctx, RecomputeTotalCommand{UserID: cmd.UserID, Now: now})
	if err != nil {
		return nil, fmt.Errorf("reconcile_user: failed to recompute total: %w", err)
	}

	// The tie-break marker advances to the newest credited completion.
	// Runs after the recompute so the lazily created profile row exists.
	if result.CreditedCount > 0 {
		if err := h.profiles.TouchHeroActivity(ctx, cmd.UserID, latestCredit); err != nil {
			h.log.Warn().Str("user_id", cmd.UserID).Err(err).Msg("failed to touch hero activity")
		}
	}

	result.NewTotal = total.Total
	result.Drift = total.Drift
	result.ReconciledAt = now

	h.log.Info().
		Str("user_id", cmd.UserID).
		Int("credited", result.CreditedCount).
		Int("skipped", result.SkippedCount).
		Int("failed", result.FailedCount).
		Int("new_total", int(result.NewTotal)).
		Msg("reconciliation run finished")

	return result, nil
}

// creditOne credits a single unlinked completion.
func (h *ReconcileUserHandler) creditOne(ctx context.Context, u completion.Unlinked, result *ReconcileUserResult) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid completion: %w", err)
	}

	pt, err := h.resolver.Resolve(ctx, u.PointTypeCode)
	if err != nil {
		// Unknown point type fails loudly per item; no entry is created.
		return fmt.Errorf("failed to resolve point type %q: %w", u.PointTypeCode, err)
	}

	_, err = h.store.Award(ctx, ledger.Award{
		UserID:          u.UserID,
		PointType:       *pt,
		LinkID:          u.CompletionID,
		InteractionType: u.Family.InteractionType(),
		OccurredAt:      u.CompletedAt,
		Multiplier:      ledger.MultiplierDefault,
	})
	if err != nil {
		if shared.IsConflict(err) {
			// Another run credited this completion first. Expected under
			// concurrent runs, treated as success.
			result.SkippedCount++
			h.log.Debug().
				Str("user_id", u.UserID).
				Str("link_id", u.CompletionID).
				Msg("completion already credited, skipping")
			return nil
		}
		return fmt.Errorf("failed to award: %w", err)
	}

	result.CreditedCount++
	return nil
}
