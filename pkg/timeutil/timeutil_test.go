package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndEndOfDay(t *testing.T) {
	in := time.Date(2026, 8, 15, 13, 45, 12, 500, time.UTC)

	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), StartOfDay(in))
	assert.Equal(t, time.Date(2026, 8, 15, 23, 59, 59, 999999999, time.UTC), EndOfDay(in))
}

func TestStartAndEndOfMonth(t *testing.T) {
	in := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 999999999, time.UTC), EndOfMonth(in))
}

func TestOneMonthBefore(t *testing.T) {
	in := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC), OneMonthBefore(in))
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 15, 23, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 8, 16, 0, 30, 0, 0, time.UTC)

	assert.True(t, IsSameDay(morning, evening))
	assert.False(t, IsSameDay(evening, nextDay))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 8, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 14, DaysBetween(a, b))
	assert.Equal(t, 14, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2026-08-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestFormatMonthStr(t *testing.T) {
	in := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08", FormatMonthStr(in))
}
