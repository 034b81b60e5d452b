package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
)

func TestArchiveRanking_WritesOneSnapshotPerRankedUser(t *testing.T) {
	reader := &fakeLeaderboardReader{rows: []leaderboard.JoinRow{
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 300, LastActive: testNow.Add(-time.Hour)},
		{UserID: "bob", DisplayName: "Bob", PointsTotal: 200, LastActive: testNow.Add(-2 * time.Hour)},
		{UserID: "carol", DisplayName: "Carol", PointsTotal: 0, LastActive: testNow},
	}}
	snapshots := &fakeSnapshots{}
	h := NewArchiveRankingHandler(reader, snapshots, nil)

	result, err := h.Handle(context.Background(), ArchiveRankingCommand{Now: testNow})
	require.NoError(t, err)

	// carol has zero points and is not ranked, so she gets no snapshot.
	assert.Equal(t, 2, result.ArchivedCount)
	require.Len(t, snapshots.archived, 2)

	assert.Equal(t, "alice", snapshots.archived[0].UserID)
	assert.Equal(t, leaderboard.Position(1), snapshots.archived[0].Position)
	assert.Equal(t, 300, int(snapshots.archived[0].Points))
	assert.Equal(t, testNow, snapshots.archived[0].CreatedAt)

	assert.Equal(t, "bob", snapshots.archived[1].UserID)
	assert.Equal(t, leaderboard.Position(2), snapshots.archived[1].Position)
}

func TestArchiveRanking_AppendsAcrossRuns(t *testing.T) {
	reader := &fakeLeaderboardReader{rows: []leaderboard.JoinRow{
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 100, LastActive: testNow},
	}}
	snapshots := &fakeSnapshots{}
	h := NewArchiveRankingHandler(reader, snapshots, nil)

	_, err := h.Handle(context.Background(), ArchiveRankingCommand{Now: testNow})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), ArchiveRankingCommand{Now: testNow.AddDate(0, 1, 0)})
	require.NoError(t, err)

	// Append-only archive: two runs leave two rows for the same user.
	assert.Len(t, snapshots.archived, 2)
}

func TestArchiveRanking_EmptyRankingIsNoOp(t *testing.T) {
	reader := &fakeLeaderboardReader{}
	snapshots := &fakeSnapshots{}
	h := NewArchiveRankingHandler(reader, snapshots, nil)

	result, err := h.Handle(context.Background(), ArchiveRankingCommand{Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ArchivedCount)
	assert.Empty(t, snapshots.archived)
}
