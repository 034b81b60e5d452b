// Package profile содержит доменную модель профиля сотрудника Kudos Hub.
// Профиль хранит кэшированную сумму очков; источник истины - журнал,
// и сумма в любой момент выводима заново полным пересчётом.
package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// GuideActivitySince - синтетическая якорная дата активности наставника,
// проставляемая при ленивом создании профиля.
var GuideActivitySince = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - агрегат сотрудника с кэшированной суммой очков.
// Инвариант: PointsTotal == сумма активных записей журнала сотрудника
// после каждого прогона реконсиляции (eventually consistent).
type Profile struct {
	// UserID - уникальный ключ профиля.
	UserID string

	// PointsTotal - кэшированная сумма очков.
	PointsTotal ledger.Points

	// LastUpdated - время последнего пересчёта суммы.
	LastUpdated time.Time

	// LastHeroActivity - последняя активность, принёсшая очки.
	// Используется как tie-break при равных суммах в лидерборде.
	LastHeroActivity time.Time

	// LastGuideActivity - последняя активность наставника.
	LastGuideActivity time.Time

	// Token - непрозрачный токен профиля.
	Token string
}

// New создаёт профиль с засеянными значениями по умолчанию.
// Вызывается лениво при первом касании сотрудника.
func New(userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	now := time.Now().UTC()
	return &Profile{
		UserID:            userID,
		PointsTotal:       0,
		LastUpdated:       now,
		LastHeroActivity:  now,
		LastGuideActivity: GuideActivitySince,
		Token:             uuid.New().String(),
	}, nil
}

// ApplyTotal применяет пересчитанную сумму. Возвращает дрифт - разницу
// между кэшированным и пересчитанным значением (0 при согласованности).
func (p *Profile) ApplyTotal(total ledger.Points, at time.Time) ledger.Points {
	drift := total - p.PointsTotal
	p.PointsTotal = total
	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.LastUpdated = at
	return drift
}

// RecordHeroActivity фиксирует активность, принёсшую очки.
func (p *Profile) RecordHeroActivity(at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if at.After(p.LastHeroActivity) {
		p.LastHeroActivity = at
	}
}

// RecordGuideActivity фиксирует активность наставника.
func (p *Profile) RecordGuideActivity(at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if at.After(p.LastGuideActivity) {
		p.LastGuideActivity = at
	}
}

// ErrInvalidUserID - пустой идентификатор сотрудника.
var ErrInvalidUserID = errors.New("invalid user id: cannot be empty")
