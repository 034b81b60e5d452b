package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/logger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE POINT VALUES COMMAND
// Administrative bulk correction: rewrites the points of all active entries
// of one point type to the type's new value. This is deliberately separate
// from reconciliation, which never touches historical entries.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePointValuesCommand contains the data for a bulk point correction.
type UpdatePointValuesCommand struct {
	// PointTypeID is the point type whose entries get rewritten.
	PointTypeID ledger.PointTypeID

	// NewPoints is the new per-entry value.
	NewPoints ledger.Points

	// RequestedBy identifies the administrator, for the audit log.
	RequestedBy string
}

// Validate validates the command.
func (c UpdatePointValuesCommand) Validate() error {
	if !c.PointTypeID.IsValid() {
		return errors.New("update_point_values: point_type_id is required")
	}
	if c.RequestedBy == "" {
		return errors.New("update_point_values: requested_by is required")
	}
	return nil
}

// UpdatePointValuesResult contains the result of a bulk correction.
type UpdatePointValuesResult struct {
	// PointTypeID is the corrected point type.
	PointTypeID ledger.PointTypeID

	// UpdatedCount is the number of rewritten entries.
	UpdatedCount int

	// UpdatedAt is when the correction ran.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePointValuesHandler handles the UpdatePointValuesCommand.
// Affected profile totals are converged by the next reconciliation run.
type UpdatePointValuesHandler struct {
	store ledger.Store
	log   *logger.Logger
}

// NewUpdatePointValuesHandler creates a new UpdatePointValuesHandler.
func NewUpdatePointValuesHandler(store ledger.Store, log *logger.Logger) *UpdatePointValuesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UpdatePointValuesHandler{
		store: store,
		log:   log.Component("update_point_values"),
	}
}

// Handle executes the update point values command.
func (h *UpdatePointValuesHandler) Handle(ctx context.Context, cmd UpdatePointValuesCommand) (*UpdatePointValuesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_point_values: validation failed: %w", err)
	}

	updated, err := h.store.UpdatePointValues(ctx, cmd.PointTypeID, cmd.NewPoints)
	if err != nil {
		return nil, fmt.Errorf("update_point_values: failed to rewrite entries: %w", err)
	}

	now := timeutil.Now()
	h.log.Warn().
		Int("point_type_id", int(cmd.PointTypeID)).
		Int("new_points", int(cmd.NewPoints)).
		Int("updated", updated).
		Str("requested_by", cmd.RequestedBy).
		Msg("bulk point correction applied")

	return &UpdatePointValuesResult{
		PointTypeID:  cmd.PointTypeID,
		UpdatedCount: updated,
		UpdatedAt:    now,
	}, nil
}
