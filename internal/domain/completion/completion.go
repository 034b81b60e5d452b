// Package completion содержит доменную модель завершений задач Kudos Hub.
// Завершения принадлежат внешним контент-подсистемам (курсы, side quests,
// миссии); здесь определён контракт сканера, находящего завершения без
// соответствующей активной записи журнала ("unlinked completions").
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK FAMILIES
// ══════════════════════════════════════════════════════════════════════════════

// Family определяет семейство завершений.
type Family string

const (
	// FamilyLearningTask - учебные задачи.
	FamilyLearningTask Family = "learning_task"

	// FamilySideQuest - side quests.
	FamilySideQuest Family = "side_quest"

	// FamilyMission - миссии (в том числе вложенные в side quest).
	FamilyMission Family = "mission"

	// FamilyCourse - завершения курсов.
	FamilyCourse Family = "course"
)

// Families перечисляет все семейства в порядке обхода при реконсиляции.
func Families() []Family {
	return []Family{FamilyLearningTask, FamilySideQuest, FamilyMission, FamilyCourse}
}

// IsValid проверяет корректность семейства.
func (f Family) IsValid() bool {
	switch f {
	case FamilyLearningTask, FamilySideQuest, FamilyMission, FamilyCourse:
		return true
	}
	return false
}

// InteractionType возвращает тип действия для записей этого семейства.
func (f Family) InteractionType() ledger.InteractionTypeCode {
	switch f {
	case FamilyLearningTask:
		return ledger.InteractionLearningTaskCompleted
	case FamilySideQuest:
		return ledger.InteractionSideQuestCompleted
	case FamilyMission:
		return ledger.InteractionMissionCompleted
	case FamilyCourse:
		return ledger.InteractionCourseCompleted
	}
	return ""
}

// String возвращает строковое представление семейства.
func (f Family) String() string {
	return string(f)
}

// ══════════════════════════════════════════════════════════════════════════════
// MISSION TYPE RULES
// ══════════════════════════════════════════════════════════════════════════════

// MissionType - тип миссии. Очки приносят только типы, отражающие реальную
// вовлечённость; структурные/служебные типы не начисляются.
type MissionType int

const (
	// MissionTypeExcluded - зарезервированный исключённый тип.
	MissionTypeExcluded MissionType = 0

	// MissionEngagementFloor - минимальный тип, который приносит очки.
	MissionEngagementFloor MissionType = 2
)

// Earns возвращает true, если миссии этого типа начисляют очки.
func (mt MissionType) Earns() bool {
	return mt != MissionTypeExcluded && mt >= MissionEngagementFloor
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLINKED COMPLETION
// ══════════════════════════════════════════════════════════════════════════════

// Unlinked - завершение, для которого не существует активной записи журнала
// с совпадающим LinkID и типом очков. Именно это множество реконсиляция
// превращает в начисления; при повторном прогоне без новых завершений
// множество пусто.
type Unlinked struct {
	// Family - семейство завершения.
	Family Family

	// CompletionID - идентификатор завершения у подсистемы-владельца.
	CompletionID string

	// UserID - сотрудник, завершивший задачу.
	UserID string

	// PointTypeCode - код типа очков, разрешённый через тип задачи.
	PointTypeCode ledger.PointTypeCode

	// CompletedAt - момент завершения (всегда установлен).
	CompletedAt time.Time
}

// Validate проверяет корректность записи.
func (u Unlinked) Validate() error {
	if !u.Family.IsValid() {
		return ErrInvalidFamily
	}
	if u.CompletionID == "" {
		return ErrInvalidCompletionID
	}
	if u.UserID == "" {
		return ledger.ErrInvalidUserID
	}
	if !u.PointTypeCode.IsValid() {
		return ErrMissingPointTypeCode
	}
	if u.CompletedAt.IsZero() {
		return ErrMissingCompletedAt
	}
	return nil
}

// String возвращает строковое представление для логирования.
func (u Unlinked) String() string {
	return fmt.Sprintf("Unlinked{%s/%s user=%s type=%s}",
		u.Family, u.CompletionID, u.UserID, u.PointTypeCode)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCANNER INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Scanner находит непривязанные завершения. Сканер - это "ворота
// идемпотентности" реконсиляции: anti-join по (LinkID, тип очков) среди
// активных записей журнала гарантирует, что повторные прогоны ничего
// не начисляют дважды.
type Scanner interface {
	// ScanUnlinked возвращает непривязанные завершения сотрудника по всем
	// четырём семействам.
	ScanUnlinked(ctx context.Context, userID string) ([]Unlinked, error)

	// ScanUnlinkedFamily возвращает непривязанные завершения одного семейства.
	ScanUnlinkedFamily(ctx context.Context, userID string, family Family) ([]Unlinked, error)

	// ListUserIDs возвращает сотрудников, у которых есть хотя бы одно
	// завершение (для пакетной реконсиляции).
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidFamily - неизвестное семейство завершений.
	ErrInvalidFamily = errors.New("invalid completion family")

	// ErrInvalidCompletionID - пустой идентификатор завершения.
	ErrInvalidCompletionID = errors.New("invalid completion id: cannot be empty")

	// ErrMissingPointTypeCode - не разрешён код типа очков.
	ErrMissingPointTypeCode = errors.New("missing point type code")

	// ErrMissingCompletedAt - отсутствует момент завершения.
	ErrMissingCompletedAt = errors.New("missing completed at timestamp")
)
