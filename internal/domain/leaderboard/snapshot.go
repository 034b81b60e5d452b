// Package leaderboard содержит доменную модель лидерборда Kudos Hub.
package leaderboard

import (
	"context"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - периодическая архивная запись позиции и очков сотрудника.
// Append-only: по одной строке на сотрудника на прогон архивации,
// потребители всегда выбирают самую свежую квалифицирующую запись.
type Snapshot struct {
	// UserID - сотрудник.
	UserID string

	// CreatedAt - время архивации.
	CreatedAt time.Time

	// Position - позиция на момент архивации.
	Position Position

	// Points - очки на момент архивации.
	Points ledger.Points
}

// QualifiesAt возвращает true, если снапшот пригоден для тренда на момент
// now: создан не позже месяца назад (старше периода) и не в будущем.
func (s Snapshot) QualifiesAt(now time.Time) bool {
	cutoff := timeutil.OneMonthBefore(now)
	return !s.CreatedAt.After(cutoff) && !s.CreatedAt.After(now)
}

// MostRecentQualifying выбирает самый свежий квалифицирующий снапшот.
// Возвращает nil, если подходящего нет - тогда поля тренда пустые.
func MostRecentQualifying(snaps []Snapshot, now time.Time) *Snapshot {
	var best *Snapshot
	for i := range snaps {
		if !snaps[i].QualifiesAt(now) {
			continue
		}
		if best == nil || snaps[i].CreatedAt.After(best.CreatedAt) {
			best = &snaps[i]
		}
	}
	return best
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository определяет контракт хранилища снапшотов рангов.
type SnapshotRepository interface {
	// Archive сохраняет снапшот (append-only, без дедупликации).
	Archive(ctx context.Context, snap Snapshot) error

	// ArchiveBatch сохраняет снапшоты одного прогона архивации.
	ArchiveBatch(ctx context.Context, snaps []Snapshot) error

	// LastQualifying возвращает самый свежий квалифицирующий снапшот
	// сотрудника на момент now. Возвращает shared.ErrSnapshotNotFound,
	// если подходящего нет.
	LastQualifying(ctx context.Context, userID string, now time.Time) (*Snapshot, error)

	// LastQualifyingAll возвращает квалифицирующие снапшоты всех
	// сотрудников одной выборкой (для построения лидерборда).
	LastQualifyingAll(ctx context.Context, now time.Time) (map[string]Snapshot, error)
}
