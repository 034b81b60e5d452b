// Package leaderboard содержит доменную модель лидерборда Kudos Hub.
package leaderboard

import (
	"context"
)

// Reader загружает плоские join-строки для построения лидерборда.
// Одна строка на активную косметическую часть сотрудника; сворачивание
// в записи на сотрудника выполняет GroupJoinRows.
type Reader interface {
	ListJoinRows(ctx context.Context) ([]JoinRow, error)
}
