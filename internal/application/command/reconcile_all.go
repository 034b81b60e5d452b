package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/completion"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE ALL COMMAND
// Batch reconciliation over every user with at least one completion.
// Per-user failures are isolated; transient store failures are retried
// with backoff before a user is counted as failed.
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileAllCommand contains the data for a batch reconciliation run.
type ReconcileAllCommand struct {
	// Now is the run timestamp (defaults to now if zero).
	Now time.Time
}

// ReconcileAllResult contains aggregate results for a batch run.
type ReconcileAllResult struct {
	// TotalUsers is the number of users scanned.
	TotalUsers int

	// SucceededUsers is the number of users reconciled without error.
	SucceededUsers int

	// FailedUsers is the number of users whose run failed after retries.
	FailedUsers int

	// CreditedTotal is the total number of new entries across all users.
	CreditedTotal int

	// SkippedTotal is the total number of already-credited completions.
	SkippedTotal int

	// Errors maps user ID to the run failure.
	Errors map[string]error

	// StartedAt / FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileAllHandler handles the ReconcileAllCommand.
type ReconcileAllHandler struct {
	scanner completion.Scanner
	user    *ReconcileUserHandler
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewReconcileAllHandler creates a new ReconcileAllHandler.
func NewReconcileAllHandler(
	scanner completion.Scanner,
	user *ReconcileUserHandler,
	log *logger.Logger,
) *ReconcileAllHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileAllHandler{
		scanner: scanner,
		user:    user,
		retrier: retry.New(retry.WithMaxAttempts(3)),
		log:     log.Component("reconcile_all"),
	}
}

// Handle executes the batch reconciliation command.
func (h *ReconcileAllHandler) Handle(ctx context.Context, cmd ReconcileAllCommand) (*ReconcileAllResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	userIDs, err := h.scanner.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile_all: failed to list users: %w", err)
	}

	result := &ReconcileAllResult{
		TotalUsers: len(userIDs),
		Errors:     make(map[string]error),
		StartedAt:  now,
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = timeutil.Now()
			return result, fmt.Errorf("reconcile_all: run interrupted: %w", err)
		}

		userResult, err := h.reconcileWithRetry(ctx, userID, now)
		if err != nil {
			result.FailedUsers++
			result.Errors[userID] = err
			h.log.Error().Str("user_id", userID).Err(err).Msg("user reconciliation failed")
			continue
		}

		result.SucceededUsers++
		result.CreditedTotal += userResult.CreditedCount
		result.SkippedTotal += userResult.SkippedCount
	}

	result.FinishedAt = timeutil.Now()

	h.log.Info().
		Int("total_users", result.TotalUsers).
		Int("succeeded", result.SucceededUsers).
		Int("failed", result.FailedUsers).
		Int("credited_total", result.CreditedTotal).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("batch reconciliation finished")

	return result, nil
}

// reconcileWithRetry runs one user's reconciliation, retrying transient
// store failures. Validation failures are permanent.
func (h *ReconcileAllHandler) reconcileWithRetry(ctx context.Context, userID string, now time.Time) (*ReconcileUserResult, error) {
	var userResult *ReconcileUserResult

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		res, err := h.user.Handle(ctx, ReconcileUserCommand{UserID: userID, Now: now})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return retry.Permanent(err)
			}
			return retry.Retryable(err)
		}
		userResult = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return userResult, nil
}
