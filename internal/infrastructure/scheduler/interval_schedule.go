package scheduler

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule runs a job at fixed intervals.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a schedule that fires every interval.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next run time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns a human-readable representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

var _ Schedule = (*IntervalSchedule)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// DailySchedule runs a job once per day at a fixed UTC time.
type DailySchedule struct {
	Hour   int
	Minute int
}

// NewDailySchedule creates a schedule that fires every day at hour:minute UTC.
func NewDailySchedule(hour, minute int) *DailySchedule {
	return &DailySchedule{Hour: hour, Minute: minute}
}

// Next returns the next run time after t.
func (s *DailySchedule) Next(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns a human-readable representation of the schedule.
func (s *DailySchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d UTC", s.Hour, s.Minute)
}

var _ Schedule = (*DailySchedule)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// MonthlySchedule runs a job once per month on a fixed day at a fixed UTC hour.
// Days past 28 are clamped so February never gets skipped.
type MonthlySchedule struct {
	Day  int
	Hour int
}

// NewMonthlySchedule creates a schedule that fires on the given day of the
// month at hour:00 UTC.
func NewMonthlySchedule(day, hour int) *MonthlySchedule {
	if day < 1 {
		day = 1
	}
	if day > 28 {
		day = 28
	}
	return &MonthlySchedule{Day: day, Hour: hour}
}

// Next returns the next run time after t.
func (s *MonthlySchedule) Next(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), s.Day, s.Hour, 0, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}

// String returns a human-readable representation of the schedule.
func (s *MonthlySchedule) String() string {
	return fmt.Sprintf("@monthly day=%d %02d:00 UTC", s.Day, s.Hour)
}

var _ Schedule = (*MonthlySchedule)(nil)
