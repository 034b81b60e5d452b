// Package leaderboard содержит доменную модель лидерборда Kudos Hub.
// Лидерборд вычисляется на каждое чтение из кэшированных сумм профилей,
// состояния аватаров и настроек анонимности; ничего из результата
// не персистится, кроме периодических снапшотов рангов.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Position - позиция в лидерборде. Позиции плотные: 1..N без пропусков,
// равные суммы получают разные последовательные позиции по tie-break.
type Position int

// IsValid проверяет, что позиция положительная.
func (p Position) IsValid() bool {
	return p > 0
}

// String возвращает строковое представление позиции.
func (p Position) String() string {
	return fmt.Sprintf("#%d", p)
}

// RankChange представляет изменение позиции с прошлого снапшота.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// RankDirection определяет направление изменения ранга.
type RankDirection string

const (
	// RankDirectionUp - сотрудник поднялся в рейтинге.
	RankDirectionUp RankDirection = "up"
	// RankDirectionDown - сотрудник опустился в рейтинге.
	RankDirectionDown RankDirection = "down"
	// RankDirectionStable - позиция не изменилась.
	RankDirectionStable RankDirection = "stable"
	// RankDirectionNew - новый участник без снапшота.
	RankDirectionNew RankDirection = "new"
)

// Direction возвращает направление изменения.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return RankDirectionUp
	case rc < 0:
		return RankDirectionDown
	default:
		return RankDirectionStable
	}
}

// AvatarState - косметическое состояние аватара сотрудника.
type AvatarState struct {
	// Color - текущий цвет аватара.
	Color string

	// Level - уровень аватара.
	Level int
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ROW
// ══════════════════════════════════════════════════════════════════════════════

// Row - одна запись лидерборда. Вычисляется на каждое чтение и живёт
// только в рамках этого вычисления.
type Row struct {
	// Position - плотная позиция в рейтинге.
	Position Position

	// UserID - внутренний идентификатор сотрудника.
	UserID string

	// DisplayIdentity - отображаемое имя: реальное или сгенерированное
	// для анонимных сотрудников.
	DisplayIdentity string

	// Anonymous - настройка "appear anonymously" сотрудника.
	Anonymous bool

	// PointsTotal - текущая сумма очков.
	PointsTotal ledger.Points

	// LastActive - последняя активность, принёсшая очки (tie-break).
	LastActive time.Time

	// Avatar - состояние аватара.
	Avatar AvatarState

	// Parts - активные косметические части, ключ - тип части.
	Parts map[string]int

	// LastPosition - позиция из квалифицирующего снапшота (0 - нет тренда).
	LastPosition Position

	// LastPoints - очки из квалифицирующего снапшота.
	LastPoints ledger.Points

	// HasTrend - найден ли квалифицирующий снапшот.
	HasTrend bool
}

// RankChange возвращает изменение позиции относительно снапшота.
func (r *Row) RankChange() RankChange {
	if !r.HasTrend {
		return 0
	}
	return RankChange(int(r.LastPosition) - int(r.Position))
}

// Direction возвращает направление тренда.
func (r *Row) Direction() RankDirection {
	if !r.HasTrend {
		return RankDirectionNew
	}
	return r.RankChange().Direction()
}

// String возвращает строковое представление для логирования.
func (r *Row) String() string {
	return fmt.Sprintf("Row{%s user=%s points=%d}", r.Position, r.UserID, r.PointsTotal)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOIN ROWS (fan-out stage)
// ══════════════════════════════════════════════════════════════════════════════

// JoinRow - плоская строка join-стадии: по одной строке на активную
// косметическую часть сотрудника (или одна строка без части). Стадия
// группировки сворачивает их обратно в одну запись на сотрудника.
type JoinRow struct {
	UserID      string
	DisplayName string
	Anonymous   bool
	PointsTotal ledger.Points
	LastActive  time.Time
	AvatarColor string
	AvatarLevel int

	// PartType/PartID - активная часть; PartType пуст, если частей нет.
	PartType string
	PartID   int
}

// GroupJoinRows сворачивает плоские join-строки в одну запись на сотрудника
// с отображением частей по типу. Порядок первого появления сохраняется.
func GroupJoinRows(rows []JoinRow) []*Row {
	grouped := make([]*Row, 0, len(rows))
	byUser := make(map[string]*Row, len(rows))

	for _, jr := range rows {
		row, ok := byUser[jr.UserID]
		if !ok {
			row = &Row{
				UserID:          jr.UserID,
				DisplayIdentity: jr.DisplayName,
				Anonymous:       jr.Anonymous,
				PointsTotal:     jr.PointsTotal,
				LastActive:      jr.LastActive,
				Avatar:          AvatarState{Color: jr.AvatarColor, Level: jr.AvatarLevel},
				Parts:           make(map[string]int),
			}
			byUser[jr.UserID] = row
			grouped = append(grouped, row)
		}
		if jr.PartType != "" {
			row.Parts[jr.PartType] = jr.PartID
		}
	}

	return grouped
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Ranking - отсортированный список записей лидерборда.
type Ranking struct {
	rows   []*Row
	byUser map[string]*Row
}

// NewRanking строит рейтинг из сгруппированных записей: сортирует по сумме
// очков по убыванию, при равенстве - по последней активности по убыванию,
// и присваивает плотные позиции 1..N. Записи с нулевой или отрицательной
// суммой в рейтинг не попадают.
func NewRanking(rows []*Row) *Ranking {
	eligible := make([]*Row, 0, len(rows))
	for _, row := range rows {
		if row.PointsTotal > 0 {
			eligible = append(eligible, row)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].PointsTotal != eligible[j].PointsTotal {
			return eligible[i].PointsTotal > eligible[j].PointsTotal
		}
		return eligible[i].LastActive.After(eligible[j].LastActive)
	})

	byUser := make(map[string]*Row, len(eligible))
	for i, row := range eligible {
		row.Position = Position(i + 1)
		byUser[row.UserID] = row
	}

	return &Ranking{rows: eligible, byUser: byUser}
}

// Rows возвращает все записи в порядке позиций.
func (r *Ranking) Rows() []*Row {
	return r.rows
}

// GetByUser возвращает запись сотрудника (nil, если нет в рейтинге).
func (r *Ranking) GetByUser(userID string) *Row {
	return r.byUser[userID]
}

// Count возвращает количество записей.
func (r *Ranking) Count() int {
	return len(r.rows)
}

// ApplyTrend проставляет тренд из квалифицирующих снапшотов.
func (r *Ranking) ApplyTrend(snapshots map[string]Snapshot) {
	for _, row := range r.rows {
		snap, ok := snapshots[row.UserID]
		if !ok {
			continue
		}
		row.LastPosition = snap.Position
		row.LastPoints = snap.Points
		row.HasTrend = true
	}
}

// Anonymize заменяет отображаемое имя анонимных сотрудников сгенерированным.
// Сотрудник, просматривающий лидерборд, всегда видит своё реальное имя.
// Имя не персистится: повторные чтения дают разные имена - это принятое
// свойство дизайна.
func (r *Ranking) Anonymize(viewerUserID string, gen NameGenerator) {
	for _, row := range r.rows {
		if row.Anonymous && row.UserID != viewerUserID {
			row.DisplayIdentity = gen.Generate()
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilRow - попытка добавить nil запись.
	ErrNilRow = errors.New("cannot add nil row")

	// ErrDuplicateUser - сотрудник уже есть в рейтинге.
	ErrDuplicateUser = errors.New("user already exists in ranking")
)
