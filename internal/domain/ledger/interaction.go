package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION
// ══════════════════════════════════════════════════════════════════════════════

// InteractionID идентифицирует Interaction (суррогатный UUID).
type InteractionID string

// IsValid проверяет, что идентификатор непустой.
func (id InteractionID) IsValid() bool {
	return id != ""
}

// InteractionTypeCode - символьный код типа действия.
type InteractionTypeCode string

// Коды типов действий для четырёх семейств завершений и прямых начислений.
const (
	InteractionLearningTaskCompleted InteractionTypeCode = "learning_task_completed"
	InteractionSideQuestCompleted    InteractionTypeCode = "side_quest_completed"
	InteractionMissionCompleted      InteractionTypeCode = "mission_completed"
	InteractionCourseCompleted       InteractionTypeCode = "course_completed"
	InteractionDirectScore           InteractionTypeCode = "direct_score"
)

// IsValid проверяет, что код непустой.
func (c InteractionTypeCode) IsValid() bool {
	return c != ""
}

// Interaction - запись об одном реальном действии сотрудника. Создаётся
// действием-владельцем и после создания неизменяема. Записи журнала ссылаются
// на Interaction слабой ссылкой: жизненный цикл Interaction от них не зависит.
type Interaction struct {
	// ID - суррогатный идентификатор.
	ID InteractionID

	// TypeCode - тип действия.
	TypeCode InteractionTypeCode

	// UserID - сотрудник, совершивший действие.
	UserID string

	// OccurredAt - момент действия.
	OccurredAt time.Time
}

// NewInteraction создаёт новый Interaction со свежим идентификатором.
func NewInteraction(userID string, typeCode InteractionTypeCode, occurredAt time.Time) (*Interaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !typeCode.IsValid() {
		return nil, ErrInvalidInteractionType
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return &Interaction{
		ID:         InteractionID(uuid.New().String()),
		TypeCode:   typeCode,
		UserID:     userID,
		OccurredAt: occurredAt,
	}, nil
}

// ErrInvalidInteractionType - невалидный тип действия.
var ErrInvalidInteractionType = errors.New("invalid interaction type: cannot be empty")
