// Package ledger содержит доменную модель журнала очков Kudos Hub.
// Журнал - это источник истины для всех начислений: каждая запись фиксирует
// одно действие сотрудника ровно один раз, а кэшированные суммы в профилях
// всегда можно пересчитать из активных записей журнала.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// EntryID идентифицирует запись журнала.
type EntryID int64

// IsValid проверяет, что идентификатор положительный.
func (id EntryID) IsValid() bool {
	return id > 0
}

// Points представляет количество очков. Значение может быть отрицательным:
// корректировки оформляются новыми отрицательными записями, а не удалением.
type Points int

// IsCorrection возвращает true для корректирующего (отрицательного) значения.
func (p Points) IsCorrection() bool {
	return p < 0
}

// String возвращает строковое представление со знаком.
func (p Points) String() string {
	if p > 0 {
		return fmt.Sprintf("+%d", int(p))
	}
	return fmt.Sprintf("%d", int(p))
}

// Multiplier - информационный множитель начисления. Очки в записи уже
// содержат применённый множитель.
type Multiplier int

// MultiplierDefault - множитель по умолчанию.
const MultiplierDefault Multiplier = 1

// IsValid проверяет, что множитель положительный.
func (m Multiplier) IsValid() bool {
	return m >= 1
}

// PointTypeID идентифицирует тип очков.
type PointTypeID int

// IsValid проверяет, что идентификатор положительный.
func (id PointTypeID) IsValid() bool {
	return id > 0
}

// PointTypeCode - символьный код типа очков (например, "learning_task").
type PointTypeCode string

// IsValid проверяет, что код непустой.
func (c PointTypeCode) IsValid() bool {
	return c != ""
}

// PointType описывает тип начисления и его текущее значение.
// Значение типа - "current value": исторические записи журнала сохраняют
// значение на момент создания и не переписываются при изменении типа.
type PointType struct {
	ID     PointTypeID
	Code   PointTypeCode
	Points Points
	Active bool
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY STATE (soft delete)
// ══════════════════════════════════════════════════════════════════════════════

// StateKind определяет вид состояния записи.
type StateKind int

const (
	// StateActive - запись учитывается во всех суммах и рейтингах.
	StateActive StateKind = iota

	// StateVoided - запись логически аннулирована и нигде не учитывается.
	StateVoided
)

// EntryState - состояние записи журнала. Вместо nullable-колонки
// моделируется как tagged state, чтобы исключение аннулированных записей
// было структурно гарантировано.
type EntryState struct {
	Kind     StateKind
	VoidedBy string
	VoidedAt time.Time
}

// Active возвращает активное состояние.
func Active() EntryState {
	return EntryState{Kind: StateActive}
}

// Voided возвращает аннулированное состояние.
func Voided(by string, at time.Time) EntryState {
	return EntryState{Kind: StateVoided, VoidedBy: by, VoidedAt: at}
}

// IsActive возвращает true для активного состояния.
func (s EntryState) IsActive() bool {
	return s.Kind == StateActive
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна запись журнала очков. Запись неизменяема, за исключением
// set-once привязки к Interaction и административного аннулирования.
type Entry struct {
	// ID - идентификатор записи (присваивается хранилищем).
	ID EntryID

	// UserID - сотрудник, которому начислены очки.
	UserID string

	// PointTypeID - тип начисления.
	PointTypeID PointTypeID

	// Points - начисленные очки (множитель уже применён).
	Points Points

	// Multiplier - информационный множитель.
	Multiplier Multiplier

	// LinkID - обратная ссылка на исходное завершение (ключ идемпотентности).
	// Пустая строка для прямых начислений без источника.
	LinkID string

	// InteractionID - ссылка на Interaction; пустая до привязки.
	InteractionID InteractionID

	// CreatedAt - момент создания записи.
	CreatedAt time.Time

	// State - текущее состояние (Active/Voided).
	State EntryState
}

// NewEntry создаёт новую активную запись журнала с валидацией.
func NewEntry(userID string, pointTypeID PointTypeID, points Points, linkID string, multiplier Multiplier, createdAt time.Time) (*Entry, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !pointTypeID.IsValid() {
		return nil, ErrInvalidPointType
	}
	if multiplier == 0 {
		multiplier = MultiplierDefault
	}
	if !multiplier.IsValid() {
		return nil, ErrInvalidMultiplier
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &Entry{
		UserID:      userID,
		PointTypeID: pointTypeID,
		Points:      points,
		Multiplier:  multiplier,
		LinkID:      linkID,
		CreatedAt:   createdAt,
		State:       Active(),
	}, nil
}

// IsActive возвращает true, если запись учитывается в суммах.
func (e *Entry) IsActive() bool {
	return e.State.IsActive()
}

// IsLinked возвращает true, если запись привязана к Interaction.
func (e *Entry) IsLinked() bool {
	return e.InteractionID != ""
}

// LinkInteraction привязывает запись к Interaction. Привязка set-once:
// повторная привязка к тому же Interaction - no-op, к другому - ошибка.
func (e *Entry) LinkInteraction(id InteractionID) error {
	if !id.IsValid() {
		return ErrInvalidInteractionID
	}
	if e.InteractionID == id {
		return nil
	}
	if e.InteractionID != "" {
		return shared.ErrLinkConflict
	}
	e.InteractionID = id
	return nil
}

// Void аннулирует запись. Аннулированная запись не удаляется физически
// и исключается из всех вычислений.
func (e *Entry) Void(by string, at time.Time) error {
	if by == "" {
		return ErrInvalidVoidedBy
	}
	if !e.IsActive() {
		return shared.ErrEntryVoided
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	e.State = Voided(by, at)
	return nil
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{ID: %d, User: %s, Points: %s, Link: %s}",
		e.ID, e.UserID, e.Points, e.LinkID)
}

// SumActive возвращает сумму очков активных записей.
func SumActive(entries []*Entry) Points {
	var total Points
	for _, e := range entries {
		if e.IsActive() {
			total += e.Points
		}
	}
	return total
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUserID - пустой идентификатор сотрудника.
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidPointType - невалидный тип очков.
	ErrInvalidPointType = errors.New("invalid point type id: must be positive")

	// ErrInvalidMultiplier - невалидный множитель.
	ErrInvalidMultiplier = errors.New("invalid multiplier: must be >= 1")

	// ErrInvalidInteractionID - невалидный идентификатор Interaction.
	ErrInvalidInteractionID = errors.New("invalid interaction id: cannot be empty")

	// ErrInvalidVoidedBy - не указан автор аннулирования.
	ErrInvalidVoidedBy = errors.New("invalid voided by: cannot be empty")
)
