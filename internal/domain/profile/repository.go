// Package profile содержит доменную модель профиля сотрудника Kudos Hub.
package profile

import (
	"context"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// Repository определяет контракт хранилища профилей.
// Реализация находится в infrastructure слое (PostgreSQL).
type Repository interface {
	// GetByUserID возвращает профиль сотрудника.
	// Возвращает shared.ErrProfileNotFound, если профиль не создан.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)

	// GetOrCreate возвращает профиль, лениво создавая его при первом касании.
	GetOrCreate(ctx context.Context, userID string) (*Profile, error)

	// SaveTotal сохраняет пересчитанную сумму и время пересчёта.
	SaveTotal(ctx context.Context, userID string, total ledger.Points, at time.Time) error

	// TouchHeroActivity обновляет время последней активности, принёсшей очки.
	TouchHeroActivity(ctx context.Context, userID string, at time.Time) error
}
