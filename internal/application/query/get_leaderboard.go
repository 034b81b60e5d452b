// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
	"github.com/kudos-hub/kudos-engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Строит лидерборд на момент запроса: загружает плоские join-строки,
// группирует части по сотрудникам, сортирует, проставляет тренд из
// снапшотов и анонимизирует имена относительно конкретного зрителя.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// ViewerUserID - сотрудник, просматривающий лидерборд. Анонимные
	// участники показываются ему под сгенерированными именами, но свою
	// собственную запись он всегда видит под реальным именем.
	ViewerUserID string

	// Limit - количество записей (по умолчанию 50, максимум 200).
	Limit int

	// Offset - смещение для пагинации.
	Offset int

	// Now - момент запроса (по умолчанию текущее время).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// LeaderboardRowDTO - DTO для записи лидерборда.
type LeaderboardRowDTO struct {
	// Position - плотная позиция в рейтинге (начиная с 1).
	Position int `json:"position"`

	// DisplayIdentity - отображаемое имя (реальное или сгенерированное).
	DisplayIdentity string `json:"display_identity"`

	// IsViewer - это запись самого зрителя.
	IsViewer bool `json:"is_viewer"`

	// PointsTotal - текущая сумма очков.
	PointsTotal int `json:"points_total"`

	// AvatarColor - цвет аватара.
	AvatarColor string `json:"avatar_color"`

	// AvatarLevel - уровень аватара.
	AvatarLevel int `json:"avatar_level"`

	// Parts - активные косметические части по типу.
	Parts map[string]int `json:"parts,omitempty"`

	// RankChange - изменение позиции с прошлого периода (+ вверх, - вниз).
	RankChange int `json:"rank_change"`

	// RankDirection - направление: "up", "down", "stable", "new".
	RankDirection string `json:"rank_direction"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Rows - записи лидерборда в порядке позиций.
	Rows []LeaderboardRowDTO `json:"rows"`

	// TotalCount - общее количество участников рейтинга.
	TotalCount int `json:"total_count"`

	// ViewerPosition - позиция зрителя (0, если не в рейтинге).
	ViewerPosition int `json:"viewer_position"`

	// GeneratedAt - момент генерации результата.
	GeneratedAt time.Time `json:"generated_at"`

	// HasMore - есть ли ещё записи после текущей страницы.
	HasMore bool `json:"has_more"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	reader    leaderboard.Reader
	snapshots leaderboard.SnapshotRepository
	namegen   leaderboard.NameGenerator
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(
	reader leaderboard.Reader,
	snapshots leaderboard.SnapshotRepository,
	namegen leaderboard.NameGenerator,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		reader:    reader,
		snapshots: snapshots,
		namegen:   namegen,
	}
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	now := query.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	joinRows, err := h.reader.ListJoinRows(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrExternalService, "failed to load leaderboard rows", err)
	}

	ranking := leaderboard.NewRanking(leaderboard.GroupJoinRows(joinRows))

	// Тренд из последних квалифицирующих снапшотов. Отсутствие снапшотов
	// не критично: записи просто останутся без стрелки тренда.
	snaps, err := h.snapshots.LastQualifyingAll(ctx, now)
	if err == nil {
		ranking.ApplyTrend(snaps)
	}

	ranking.Anonymize(query.ViewerUserID, h.namegen)

	viewerPosition := 0
	if viewerRow := ranking.GetByUser(query.ViewerUserID); viewerRow != nil {
		viewerPosition = int(viewerRow.Position)
	}

	page := paginate(ranking.Rows(), query.Offset, query.Limit)

	dtos := make([]LeaderboardRowDTO, len(page))
	for i, row := range page {
		dtos[i] = h.toDTO(row, query.ViewerUserID)
	}

	return &GetLeaderboardResult{
		Rows:           dtos,
		TotalCount:     ranking.Count(),
		ViewerPosition: viewerPosition,
		GeneratedAt:    now,
		HasMore:        query.Offset+len(page) < ranking.Count(),
	}, nil
}

// toDTO конвертирует доменную запись в DTO. Внутренний UserID наружу
// не отдаётся: потребители видят только отображаемое имя.
func (h *GetLeaderboardHandler) toDTO(row *leaderboard.Row, viewerUserID string) LeaderboardRowDTO {
	return LeaderboardRowDTO{
		Position:        int(row.Position),
		DisplayIdentity: row.DisplayIdentity,
		IsViewer:        row.UserID == viewerUserID,
		PointsTotal:     int(row.PointsTotal),
		AvatarColor:     row.Avatar.Color,
		AvatarLevel:     row.Avatar.Level,
		Parts:           row.Parts,
		RankChange:      int(row.RankChange()),
		RankDirection:   string(row.Direction()),
	}
}

// paginate применяет пагинацию к записям.
func paginate(rows []*leaderboard.Row, offset, limit int) []*leaderboard.Row {
	if offset >= len(rows) {
		return []*leaderboard.Row{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// Возвращает позицию и тренд одного сотрудника без построения страницы.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserRankQuery содержит параметры запроса позиции сотрудника.
type GetUserRankQuery struct {
	// UserID - сотрудник.
	UserID string

	// Now - момент запроса (по умолчанию текущее время).
	Now time.Time
}

// GetUserRankResult содержит позицию сотрудника.
type GetUserRankResult struct {
	// Position - позиция в рейтинге.
	Position int `json:"position"`

	// PointsTotal - текущая сумма очков.
	PointsTotal int `json:"points_total"`

	// RankChange - изменение позиции с прошлого периода.
	RankChange int `json:"rank_change"`

	// RankDirection - направление изменения.
	RankDirection string `json:"rank_direction"`
}

// GetUserRankHandler обрабатывает запросы позиции сотрудника.
type GetUserRankHandler struct {
	reader    leaderboard.Reader
	snapshots leaderboard.SnapshotRepository
}

// NewGetUserRankHandler создаёт новый обработчик.
func NewGetUserRankHandler(
	reader leaderboard.Reader,
	snapshots leaderboard.SnapshotRepository,
) *GetUserRankHandler {
	return &GetUserRankHandler{reader: reader, snapshots: snapshots}
}

// Handle выполняет запрос позиции сотрудника.
func (h *GetUserRankHandler) Handle(ctx context.Context, query GetUserRankQuery) (*GetUserRankResult, error) {
	if query.UserID == "" {
		return nil, shared.NewDomainError("query", "GetUserRank", shared.ErrValidation, "user_id is required")
	}

	now := query.Now
	if now.IsZero() {
		now = timeutil.Now()
	}

	joinRows, err := h.reader.ListJoinRows(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserRank", shared.ErrExternalService, "failed to load leaderboard rows", err)
	}

	ranking := leaderboard.NewRanking(leaderboard.GroupJoinRows(joinRows))
	row := ranking.GetByUser(query.UserID)
	if row == nil {
		return nil, shared.ErrProfileNotFound
	}

	if snap, err := h.snapshots.LastQualifying(ctx, query.UserID, now); err == nil && snap != nil {
		ranking.ApplyTrend(map[string]leaderboard.Snapshot{query.UserID: *snap})
	}

	return &GetUserRankResult{
		Position:      int(row.Position),
		PointsTotal:   int(row.PointsTotal),
		RankChange:    int(row.RankChange()),
		RankDirection: string(row.Direction()),
	}, nil
}
