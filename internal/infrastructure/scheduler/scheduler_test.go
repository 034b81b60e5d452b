package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name string
	err  error
	runs atomic.Int64
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "fake job for tests" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(nil)

	require.NoError(t, s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Hour)))

	err := s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterValidatesInputs(t *testing.T) {
	s := NewScheduler(nil)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "a"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(nil)
	job := &fakeJob{name: "reconcile"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "reconcile")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := NewScheduler(nil)
	jobErr := errors.New("boom")
	require.NoError(t, s.Register(&fakeJob{name: "broken", err: jobErr}, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "broken")
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	s := NewScheduler(nil)

	_, err := s.RunNow(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_ListJobs(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(30*time.Minute)))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].Name)
	assert.True(t, jobs[0].Enabled)
	assert.Equal(t, "@every 30m0s", jobs[0].Schedule)
	assert.False(t, jobs[0].NextRun.IsZero())
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	at := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, at.Add(15*time.Minute), s.Next(at))
}

func TestDailySchedule_Next(t *testing.T) {
	s := NewDailySchedule(3, 30)

	before := time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 15, 3, 30, 0, 0, time.UTC), s.Next(before))

	after := time.Date(2026, 8, 15, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 16, 3, 30, 0, 0, time.UTC), s.Next(after))
}

func TestMonthlySchedule_Next(t *testing.T) {
	s := NewMonthlySchedule(1, 4)

	mid := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 4, 0, 0, 0, time.UTC), s.Next(mid))

	early := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 4, 0, 0, 0, time.UTC), s.Next(early))
}

func TestMonthlySchedule_ClampsDay(t *testing.T) {
	s := NewMonthlySchedule(31, 0)
	assert.Equal(t, 28, s.Day)

	jan := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), s.Next(jan))
}
