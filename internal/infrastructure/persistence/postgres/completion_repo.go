package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/completion"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// CompletionRepository implements completion.Scanner for PostgreSQL.
//
// Each family scan is an anti-join: a completion is unlinked while no ACTIVE
// ledger entry exists with the completion's ID as link_id and the matching
// point type. Entries voided by an admin drop out of the anti-join, so the
// completion becomes creditable again.
type CompletionRepository struct {
	conn *Connection
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(conn *Connection) *CompletionRepository {
	return &CompletionRepository{conn: conn}
}

var _ completion.Scanner = (*CompletionRepository)(nil)

// notCreditedClause is the shared anti-join predicate. c is the completion
// table alias in the enclosing query.
const notCreditedClause = `
	NOT EXISTS (
		SELECT 1
		FROM ledger_entries le
		JOIN point_types pt ON pt.id = le.point_type_id
		WHERE le.user_id = c.user_id
		  AND le.link_id = c.id
		  AND pt.code = c.point_type_code
		  AND le.voided_by IS NULL
	)
`

// ScanUnlinked returns the user's unlinked completions across all families.
func (r *CompletionRepository) ScanUnlinked(ctx context.Context, userID string) ([]completion.Unlinked, error) {
	var all []completion.Unlinked
	for _, family := range completion.Families() {
		found, err := r.ScanUnlinkedFamily(ctx, userID, family)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

// ScanUnlinkedFamily returns the user's unlinked completions of one family.
func (r *CompletionRepository) ScanUnlinkedFamily(ctx context.Context, userID string, family completion.Family) ([]completion.Unlinked, error) {
	query, err := familyScanQuery(family)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s completions: %w", family, err)
	}
	defer rows.Close()

	return scanUnlinked(rows, family)
}

// familyScanQuery builds the per-family anti-join query.
func familyScanQuery(family completion.Family) (string, error) {
	switch family {
	case completion.FamilyLearningTask:
		return `
			SELECT c.id, c.user_id, c.point_type_code, c.completed_at
			FROM learning_task_completions c
			WHERE c.user_id = $1 AND ` + notCreditedClause + `
			ORDER BY c.completed_at
		`, nil
	case completion.FamilySideQuest:
		return `
			SELECT c.id, c.user_id, c.point_type_code, c.completed_at
			FROM side_quest_completions c
			WHERE c.user_id = $1 AND ` + notCreditedClause + `
			ORDER BY c.completed_at
		`, nil
	case completion.FamilyMission:
		// Structural and reserved mission types never earn points, so they
		// are filtered out before the anti-join. Nested missions (those that
		// arrived through a side quest) are scanned like any other.
		return fmt.Sprintf(`
			SELECT c.id, c.user_id, c.point_type_code, c.completed_at
			FROM mission_completions c
			WHERE c.user_id = $1
			  AND c.mission_type <> %d
			  AND c.mission_type >= %d
			  AND `+notCreditedClause+`
			ORDER BY c.completed_at
		`, int(completion.MissionTypeExcluded), int(completion.MissionEngagementFloor)), nil
	case completion.FamilyCourse:
		return `
			SELECT c.id, c.user_id, c.point_type_code, c.completed_at
			FROM course_completions c
			WHERE c.user_id = $1 AND ` + notCreditedClause + `
			ORDER BY c.completed_at
		`, nil
	}
	return "", completion.ErrInvalidFamily
}

// ListUserIDs returns users with at least one completion in any family.
func (r *CompletionRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT user_id FROM (
			SELECT user_id FROM learning_task_completions
			UNION ALL
			SELECT user_id FROM side_quest_completions
			UNION ALL
			SELECT user_id FROM mission_completions
			UNION ALL
			SELECT user_id FROM course_completions
		) u
		ORDER BY user_id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// scanUnlinked maps rows to domain unlinked completions.
func scanUnlinked(rows pgx.Rows, family completion.Family) ([]completion.Unlinked, error) {
	var out []completion.Unlinked
	for rows.Next() {
		u := completion.Unlinked{Family: family}
		var pointTypeCode string

		if err := rows.Scan(&u.CompletionID, &u.UserID, &pointTypeCode, &u.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s completion: %w", family, err)
		}

		u.PointTypeCode = ledger.PointTypeCode(pointTypeCode)
		out = append(out, u)
	}
	return out, rows.Err()
}
