package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
)

// LedgerRepository implements ledger.Store and ledger.InteractionStore
// for PostgreSQL.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

var (
	_ ledger.Store            = (*LedgerRepository)(nil)
	_ ledger.InteractionStore = (*LedgerRepository)(nil)
)

// Append inserts a single ledger entry and returns its assigned ID.
// An unknown point type surfaces as a foreign key violation and is mapped
// to shared.ErrUnknownPointType: no entry is created for it.
func (r *LedgerRepository) Append(ctx context.Context, e *ledger.Entry) (ledger.EntryID, error) {
	id, err := r.appendTx(ctx, r.conn, e)
	if err != nil {
		return 0, err
	}
	e.ID = id
	return id, nil
}

func (r *LedgerRepository) appendTx(ctx context.Context, q Querier, e *ledger.Entry) (ledger.EntryID, error) {
	query := `
		INSERT INTO ledger_entries (user_id, point_type_id, points, multiplier, link_id, interaction_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, '')::uuid, $7)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		e.UserID,
		int(e.PointTypeID),
		int(e.Points),
		int(e.Multiplier),
		e.LinkID,
		string(e.InteractionID),
		e.CreatedAt,
	).Scan(&id)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return 0, shared.ErrAlreadyCredited
		case IsForeignKeyViolation(err):
			return 0, shared.ErrUnknownPointType
		}
		return 0, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return ledger.EntryID(id), nil
}

// Award performs the atomic credit triple: create the interaction, append
// the entry and link them, all in one transaction. A duplicate for the same
// (user, point type, link) among active entries rolls the whole triple back
// and returns shared.ErrAlreadyCredited.
func (r *LedgerRepository) Award(ctx context.Context, award ledger.Award) (*ledger.Entry, error) {
	in, err := ledger.NewInteraction(award.UserID, award.InteractionType, award.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to build interaction: %w", err)
	}

	entry, err := ledger.NewEntry(
		award.UserID,
		award.PointType.ID,
		award.PointType.Points,
		award.LinkID,
		award.Multiplier,
		award.OccurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger entry: %w", err)
	}
	if err := entry.LinkInteraction(in.ID); err != nil {
		return nil, err
	}

	err = r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := r.createTx(ctx, tx, in); err != nil {
			return err
		}
		id, err := r.appendTx(ctx, tx, entry)
		if err != nil {
			return err
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Create inserts a new interaction. Used standalone for direct scores and
// inside the Award transaction.
func (r *LedgerRepository) Create(ctx context.Context, in *ledger.Interaction) error {
	return r.createTx(ctx, r.conn, in)
}

func (r *LedgerRepository) createTx(ctx context.Context, q Querier, in *ledger.Interaction) error {
	query := `
		INSERT INTO interactions (id, type_code, user_id, occurred_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.Exec(ctx, query, string(in.ID), string(in.TypeCode), in.UserID, in.OccurredAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// Link binds an entry to an interaction. The binding is set-once: linking
// an already linked entry to a different interaction fails with
// shared.ErrLinkConflict, relinking to the same one is a no-op.
func (r *LedgerRepository) Link(ctx context.Context, entryID ledger.EntryID, interactionID ledger.InteractionID) error {
	query := `
		UPDATE ledger_entries
		SET interaction_id = $2
		WHERE id = $1 AND (interaction_id IS NULL OR interaction_id = $2)
	`

	tag, err := r.conn.Exec(ctx, query, int64(entryID), string(interactionID))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrInteractionMissing
		}
		return fmt.Errorf("failed to link entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the entry does not exist or it is linked elsewhere.
		var exists bool
		if err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE id = $1)`, int64(entryID)).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check entry existence: %w", err)
		}
		if !exists {
			return shared.ErrEntryNotFound
		}
		return shared.ErrLinkConflict
	}
	return nil
}

// SumActive returns the sum of the user's active entries. Voided entries
// are excluded structurally by the voided_by predicate.
func (r *LedgerRepository) SumActive(ctx context.Context, userID string) (ledger.Points, error) {
	query := `
		SELECT COALESCE(SUM(points), 0)
		FROM ledger_entries
		WHERE user_id = $1 AND voided_by IS NULL
	`

	var total int
	if err := r.conn.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum active entries: %w", err)
	}
	return ledger.Points(total), nil
}

// ListActiveByUser returns the user's active entries, newest first.
func (r *LedgerRepository) ListActiveByUser(ctx context.Context, userID string) ([]*ledger.Entry, error) {
	query := `
		SELECT id, user_id, point_type_id, points, multiplier,
		       COALESCE(link_id, ''), COALESCE(interaction_id::text, ''),
		       created_at, voided_by, voided_at
		FROM ledger_entries
		WHERE user_id = $1 AND voided_by IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Void marks an entry as voided. The row is never deleted; it just stops
// participating in sums, rankings and the idempotency index.
func (r *LedgerRepository) Void(ctx context.Context, id ledger.EntryID, by string, at time.Time) error {
	if by == "" {
		return ledger.ErrInvalidVoidedBy
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	query := `
		UPDATE ledger_entries
		SET voided_by = $2, voided_at = $3
		WHERE id = $1 AND voided_by IS NULL
	`

	tag, err := r.conn.Exec(ctx, query, int64(id), by, at)
	if err != nil {
		return fmt.Errorf("failed to void entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE id = $1)`, int64(id)).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check entry existence: %w", err)
		}
		if !exists {
			return shared.ErrEntryNotFound
		}
		return shared.ErrEntryVoided
	}
	return nil
}

// UpdatePointValues rewrites the points of all active entries of one type.
// Explicit bulk correction; regular reconciliation never touches history.
func (r *LedgerRepository) UpdatePointValues(ctx context.Context, pointTypeID ledger.PointTypeID, newPoints ledger.Points) (int, error) {
	query := `
		UPDATE ledger_entries
		SET points = $2
		WHERE point_type_id = $1 AND voided_by IS NULL
	`

	tag, err := r.conn.Exec(ctx, query, int(pointTypeID), int(newPoints))
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite point values: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// scanEntries maps rows to domain entries.
func scanEntries(rows pgx.Rows) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	for rows.Next() {
		var (
			e             ledger.Entry
			pointTypeID   int
			points        int
			multiplier    int
			interactionID string
			voidedBy      *string
			voidedAt      *time.Time
		)

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&pointTypeID,
			&points,
			&multiplier,
			&e.LinkID,
			&interactionID,
			&e.CreatedAt,
			&voidedBy,
			&voidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		e.PointTypeID = ledger.PointTypeID(pointTypeID)
		e.Points = ledger.Points(points)
		e.Multiplier = ledger.Multiplier(multiplier)
		e.InteractionID = ledger.InteractionID(interactionID)
		if voidedBy != nil && voidedAt != nil {
			e.State = ledger.Voided(*voidedBy, *voidedAt)
		} else {
			e.State = ledger.Active()
		}

		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// POINT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// PointTypeRepository resolves point type codes straight from the database.
// The redis read-through cache wraps it for hot paths.
type PointTypeRepository struct {
	conn *Connection
}

// NewPointTypeRepository creates a new PointTypeRepository.
func NewPointTypeRepository(conn *Connection) *PointTypeRepository {
	return &PointTypeRepository{conn: conn}
}

var _ ledger.PointTypeResolver = (*PointTypeRepository)(nil)

// Resolve returns the point type with its current value.
func (r *PointTypeRepository) Resolve(ctx context.Context, code ledger.PointTypeCode) (*ledger.PointType, error) {
	query := `
		SELECT id, code, points, active
		FROM point_types
		WHERE code = $1 AND active = TRUE
	`

	var pt ledger.PointType
	var id, points int
	var ptCode string
	err := r.conn.QueryRow(ctx, query, string(code)).Scan(&id, &ptCode, &points, &pt.Active)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUnknownPointType
		}
		return nil, fmt.Errorf("failed to resolve point type: %w", err)
	}

	pt.ID = ledger.PointTypeID(id)
	pt.Code = ledger.PointTypeCode(ptCode)
	pt.Points = ledger.Points(points)
	return &pt, nil
}

// SetPoints updates a point type's current value. Historical ledger entries
// keep the value they were created with.
func (r *PointTypeRepository) SetPoints(ctx context.Context, id ledger.PointTypeID, points ledger.Points) error {
	query := `UPDATE point_types SET points = $2 WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, int(id), int(points))
	if err != nil {
		return fmt.Errorf("failed to update point type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUnknownPointType
	}
	return nil
}
