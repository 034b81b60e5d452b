package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestGroupJoinRows_FanIn(t *testing.T) {
	rows := []JoinRow{
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 300, LastActive: day(10), AvatarColor: "teal", AvatarLevel: 2, PartType: "hat", PartID: 7},
		{UserID: "alice", DisplayName: "Alice", PointsTotal: 300, LastActive: day(10), AvatarColor: "teal", AvatarLevel: 2, PartType: "glasses", PartID: 3},
		{UserID: "bob", DisplayName: "Bob", PointsTotal: 150, LastActive: day(5)},
	}

	grouped := GroupJoinRows(rows)
	require.Len(t, grouped, 2)

	alice := grouped[0]
	assert.Equal(t, "alice", alice.UserID)
	assert.Equal(t, map[string]int{"hat": 7, "glasses": 3}, alice.Parts)
	assert.Equal(t, "teal", alice.Avatar.Color)
	assert.Equal(t, 2, alice.Avatar.Level)

	bob := grouped[1]
	assert.Equal(t, "bob", bob.UserID)
	assert.Empty(t, bob.Parts)
}

func TestNewRanking_DensePositions(t *testing.T) {
	rows := GroupJoinRows([]JoinRow{
		{UserID: "u1", PointsTotal: 500, LastActive: day(1)},
		{UserID: "u2", PointsTotal: 300, LastActive: day(1)},
		{UserID: "u3", PointsTotal: 100, LastActive: day(1)},
		{UserID: "u4", PointsTotal: 400, LastActive: day(1)},
	})

	ranking := NewRanking(rows)
	require.Equal(t, 4, ranking.Count())

	positions := make([]Position, 0, 4)
	for _, row := range ranking.Rows() {
		positions = append(positions, row.Position)
	}
	assert.Equal(t, []Position{1, 2, 3, 4}, positions)
	assert.Equal(t, "u1", ranking.Rows()[0].UserID)
	assert.Equal(t, "u4", ranking.Rows()[1].UserID)
}

func TestNewRanking_TieBreakByLastActive(t *testing.T) {
	rows := GroupJoinRows([]JoinRow{
		{UserID: "older", PointsTotal: 200, LastActive: day(3)},
		{UserID: "newer", PointsTotal: 200, LastActive: day(20)},
	})

	ranking := NewRanking(rows)
	require.Equal(t, 2, ranking.Count())

	// The more recently active user ranks strictly above at equal points,
	// and ties still receive distinct sequential positions.
	assert.Equal(t, "newer", ranking.Rows()[0].UserID)
	assert.Equal(t, Position(1), ranking.Rows()[0].Position)
	assert.Equal(t, "older", ranking.Rows()[1].UserID)
	assert.Equal(t, Position(2), ranking.Rows()[1].Position)
}

func TestNewRanking_ExcludesZeroTotals(t *testing.T) {
	rows := GroupJoinRows([]JoinRow{
		{UserID: "scored", PointsTotal: 10, LastActive: day(1)},
		{UserID: "zero", PointsTotal: 0, LastActive: day(1)},
		{UserID: "negative", PointsTotal: -5, LastActive: day(1)},
	})

	ranking := NewRanking(rows)
	assert.Equal(t, 1, ranking.Count())
	assert.Nil(t, ranking.GetByUser("zero"))
	assert.Nil(t, ranking.GetByUser("negative"))
}

func TestRanking_ApplyTrend(t *testing.T) {
	rows := GroupJoinRows([]JoinRow{
		{UserID: "alice", PointsTotal: 500, LastActive: day(1)},
		{UserID: "bob", PointsTotal: 300, LastActive: day(1)},
	})
	ranking := NewRanking(rows)

	ranking.ApplyTrend(map[string]Snapshot{
		"alice": {UserID: "alice", Position: 3, Points: 410, CreatedAt: day(1).AddDate(0, -1, 0)},
	})

	alice := ranking.GetByUser("alice")
	require.True(t, alice.HasTrend)
	assert.Equal(t, Position(3), alice.LastPosition)
	assert.Equal(t, RankChange(2), alice.RankChange())
	assert.Equal(t, RankDirectionUp, alice.Direction())

	bob := ranking.GetByUser("bob")
	assert.False(t, bob.HasTrend)
	assert.Equal(t, RankDirectionNew, bob.Direction())
}

type fixedNameGen struct{ name string }

func (g fixedNameGen) Generate() string { return g.name }

func TestRanking_Anonymize(t *testing.T) {
	rows := GroupJoinRows([]JoinRow{
		{UserID: "bob", DisplayName: "bob", Anonymous: true, PointsTotal: 500, LastActive: day(1)},
		{UserID: "carol", DisplayName: "carol", Anonymous: false, PointsTotal: 300, LastActive: day(1)},
	})
	ranking := NewRanking(rows)

	// Carol viewing: bob's identity is replaced, carol keeps hers.
	ranking.Anonymize("carol", fixedNameGen{name: "Swift Otter"})
	assert.Equal(t, "Swift Otter", ranking.GetByUser("bob").DisplayIdentity)
	assert.Equal(t, "carol", ranking.GetByUser("carol").DisplayIdentity)
}

func TestRanking_Anonymize_ViewerSeesOwnName(t *testing.T) {
	rows := GroupJoinRows([]JoinRow{
		{UserID: "bob", DisplayName: "bob", Anonymous: true, PointsTotal: 500, LastActive: day(1)},
	})
	ranking := NewRanking(rows)

	ranking.Anonymize("bob", fixedNameGen{name: "Hidden Lynx"})
	assert.Equal(t, "bob", ranking.GetByUser("bob").DisplayIdentity)
}

func TestRandomNameGenerator_TwoWords(t *testing.T) {
	gen := NewRandomNameGenerator(42)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		name := gen.Generate()
		assert.Regexp(t, `^[A-Z][a-z]+ [A-Z][a-z]+$`, name)
		seen[name] = true
	}
	// Not a fixed value: the generator actually varies.
	assert.Greater(t, len(seen), 1)
}

func TestRankChange_Direction(t *testing.T) {
	assert.Equal(t, RankDirectionUp, RankChange(4).Direction())
	assert.Equal(t, RankDirectionDown, RankChange(-2).Direction())
	assert.Equal(t, RankDirectionStable, RankChange(0).Direction())
}
