package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/completion"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func TestReconcileUser_CreditsUnlinkedCompletions(t *testing.T) {
	env := newTestEnv([]completion.Unlinked{
		learningTask("alice", "task-1", testNow.Add(-3*time.Hour)),
		learningTask("alice", "task-2", testNow.Add(-2*time.Hour)),
		learningTask("alice", "task-3", testNow.Add(-time.Hour)),
	})

	result, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 3, result.CreditedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 30, int(result.NewTotal))
	assert.Empty(t, result.Errors)

	entries, err := env.store.ListActiveByUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, e.IsLinked(), "every credited entry must be linked to an interaction")
		assert.Equal(t, 10, int(e.Points))
	}
	assert.Len(t, env.store.interactions, 3)
}

func TestReconcileUser_SecondRunIsNoOp(t *testing.T) {
	env := newTestEnv([]completion.Unlinked{
		learningTask("alice", "task-1", testNow.Add(-time.Hour)),
	})

	first, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreditedCount)

	second, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreditedCount)
	assert.Equal(t, 0, second.FailedCount)
	assert.Equal(t, int(first.NewTotal), int(second.NewTotal))

	entries, _ := env.store.ListActiveByUser(context.Background(), "alice")
	assert.Len(t, entries, 1)
}

func TestReconcileUser_LostRaceCountsAsSkipped(t *testing.T) {
	comp := learningTask("alice", "task-1", testNow.Add(-time.Hour))
	env := newTestEnv([]completion.Unlinked{comp})

	// A concurrent run credits the completion between scan and award.
	env.scanner.store = newFakeStore() // scanner keeps seeing it as unlinked
	_, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)

	result, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 0, result.CreditedCount)
	assert.Equal(t, 1, result.SkippedCount, "duplicate award is an expected no-op, not a failure")
	assert.Equal(t, 0, result.FailedCount)

	entries, _ := env.store.ListActiveByUser(context.Background(), "alice")
	assert.Len(t, entries, 1)
}

func TestReconcileUser_UnknownPointTypeIsIsolated(t *testing.T) {
	bad := completion.Unlinked{
		Family:        completion.FamilyCourse,
		CompletionID:  "course-1",
		UserID:        "alice",
		PointTypeCode: "retired_code",
		CompletedAt:   testNow.Add(-time.Hour),
	}
	env := newTestEnv([]completion.Unlinked{
		learningTask("alice", "task-1", testNow.Add(-2*time.Hour)),
		bad,
	})

	result, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreditedCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Contains(t, result.Errors, "course/course-1")
	assert.Equal(t, 10, int(result.NewTotal), "the failed completion contributes nothing")
}

func TestReconcileUser_HealsDriftedTotal(t *testing.T) {
	env := newTestEnv(nil)

	prof, err := env.profiles.GetOrCreate(context.Background(), "alice")
	require.NoError(t, err)
	prof.PointsTotal = 999 // corrupted cache

	result, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 0, int(result.NewTotal))
	assert.Equal(t, -999, int(result.Drift))
	assert.Equal(t, 0, int(prof.PointsTotal))
}

func TestReconcileUser_AdvancesHeroActivity(t *testing.T) {
	env := newTestEnv([]completion.Unlinked{
		learningTask("alice", "task-1", testNow.Add(-2*time.Hour)),
		learningTask("alice", "task-2", testNow.Add(-time.Hour)),
	})

	prof, err := env.profiles.GetOrCreate(context.Background(), "alice")
	require.NoError(t, err)
	prof.LastHeroActivity = testNow.Add(-48 * time.Hour)

	_, err = env.reconcile.Handle(context.Background(), ReconcileUserCommand{UserID: "alice", Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(-time.Hour), prof.LastHeroActivity,
		"tie-break marker moves to the newest credited completion")
}

func TestReconcileUser_ValidatesCommand(t *testing.T) {
	env := newTestEnv(nil)

	_, err := env.reconcile.Handle(context.Background(), ReconcileUserCommand{})
	assert.Error(t, err)
}
