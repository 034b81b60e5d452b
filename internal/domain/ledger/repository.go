// Package ledger содержит доменную модель журнала очков Kudos Hub.
package ledger

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD
// ══════════════════════════════════════════════════════════════════════════════

// Award описывает одно атомарное начисление: создание Interaction, запись
// журнала и её привязку. Тройка выполняется как одна транзакция: если
// привязка не удалась, запись журнала и Interaction откатываются вместе,
// чтобы в журнале не осталось "осиротевшей" записи без привязки.
type Award struct {
	// UserID - сотрудник, которому начисляются очки.
	UserID string

	// PointType - тип очков; Points берётся из текущего значения типа.
	PointType PointType

	// LinkID - идентификатор исходного завершения (ключ идемпотентности).
	LinkID string

	// InteractionType - тип действия для создаваемого Interaction.
	InteractionType InteractionTypeCode

	// OccurredAt - момент исходного действия.
	OccurredAt time.Time

	// Multiplier - информационный множитель (по умолчанию 1).
	Multiplier Multiplier
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Store определяет контракт хранилища журнала очков.
// Реализация находится в infrastructure слое (PostgreSQL).
type Store interface {
	// Append добавляет запись журнала. Возвращает присвоенный EntryID.
	// Обязано громко падать при неизвестном PointTypeID (FK violation):
	// запись для неизвестного типа очков не создаётся.
	Append(ctx context.Context, e *Entry) (EntryID, error)

	// Award выполняет атомарную тройку CreateInteraction -> Append -> Link.
	// Повторное начисление за то же завершение (тот же LinkID и тип очков)
	// возвращает shared.ErrAlreadyCredited - ожидаемый исход при гонках.
	Award(ctx context.Context, award Award) (*Entry, error)

	// SumActive возвращает сумму очков активных записей сотрудника.
	SumActive(ctx context.Context, userID string) (Points, error)

	// ListActiveByUser возвращает активные записи сотрудника.
	ListActiveByUser(ctx context.Context, userID string) ([]*Entry, error)

	// Void аннулирует запись (административная коррекция).
	Void(ctx context.Context, id EntryID, by string, at time.Time) error

	// UpdatePointValues переписывает очки активных записей данного типа.
	// Это явная массовая коррекция, отдельная от обычной реконсиляции.
	// Возвращает количество изменённых записей.
	UpdatePointValues(ctx context.Context, pointTypeID PointTypeID, newPoints Points) (int, error)
}

// InteractionStore определяет контракт хранилища Interaction.
type InteractionStore interface {
	// Create сохраняет новый Interaction. Вызывается внутри той же
	// транзакции, что и Append, чтобы create-then-link откатывался атомарно.
	Create(ctx context.Context, in *Interaction) error

	// Link привязывает запись журнала к Interaction. Привязка set-once:
	// повтор с тем же Interaction - no-op, с другим - shared.ErrLinkConflict.
	Link(ctx context.Context, entryID EntryID, interactionID InteractionID) error
}

// PointTypeResolver разрешает код типа очков в тип с текущим значением.
// Реализация - read-through кеш с коротким TTL поверх справочника.
type PointTypeResolver interface {
	// Resolve возвращает shared.ErrUnknownPointType для неизвестного кода.
	Resolve(ctx context.Context, code PointTypeCode) (*PointType, error)
}
