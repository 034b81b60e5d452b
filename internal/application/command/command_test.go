package command

import (
	"context"
	"fmt"
	"time"

	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/completion"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/leaderboard"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/ledger"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/profile"
	"github.com/kudos-hub/kudos-engagement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// Shared by the command handler tests. The fake store enforces the same
// duplicate rule as the real one: one active entry per
// (user_id, point_type_id, link_id).
// ══════════════════════════════════════════════════════════════════════════════

type fakeStore struct {
	entries      []*ledger.Entry
	interactions []*ledger.Interaction
	nextID       ledger.EntryID

	// failSumFor simulates a transient failure for one user.
	failSumFor   string
	sumFailsLeft int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) Append(ctx context.Context, e *ledger.Entry) (ledger.EntryID, error) {
	e.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, e)
	return e.ID, nil
}

func (s *fakeStore) Award(ctx context.Context, award ledger.Award) (*ledger.Entry, error) {
	for _, e := range s.entries {
		if e.IsActive() && e.UserID == award.UserID &&
			e.PointTypeID == award.PointType.ID && e.LinkID == award.LinkID {
			return nil, shared.ErrAlreadyCredited
		}
	}

	in, err := ledger.NewInteraction(award.UserID, award.InteractionType, award.OccurredAt)
	if err != nil {
		return nil, err
	}
	s.interactions = append(s.interactions, in)

	e, err := ledger.NewEntry(award.UserID, award.PointType.ID, award.PointType.Points, award.LinkID, award.Multiplier, award.OccurredAt)
	if err != nil {
		return nil, err
	}
	if _, err := s.Append(ctx, e); err != nil {
		return nil, err
	}
	if err := e.LinkInteraction(in.ID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *fakeStore) SumActive(ctx context.Context, userID string) (ledger.Points, error) {
	if userID == s.failSumFor && s.sumFailsLeft != 0 {
		if s.sumFailsLeft > 0 {
			s.sumFailsLeft--
		}
		return 0, fmt.Errorf("connection reset")
	}
	var total ledger.Points
	for _, e := range s.entries {
		if e.UserID == userID && e.IsActive() {
			total += e.Points
		}
	}
	return total, nil
}

func (s *fakeStore) ListActiveByUser(ctx context.Context, userID string) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	for _, e := range s.entries {
		if e.UserID == userID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) Void(ctx context.Context, id ledger.EntryID, by string, at time.Time) error {
	for _, e := range s.entries {
		if e.ID == id {
			return e.Void(by, at)
		}
	}
	return shared.ErrEntryNotFound
}

func (s *fakeStore) UpdatePointValues(ctx context.Context, pointTypeID ledger.PointTypeID, newPoints ledger.Points) (int, error) {
	updated := 0
	for _, e := range s.entries {
		if e.PointTypeID == pointTypeID && e.IsActive() {
			e.Points = newPoints
			updated++
		}
	}
	return updated, nil
}

var _ ledger.Store = (*fakeStore)(nil)

// fakeScanner serves completions minus whatever the store already credited,
// mirroring the anti-join the real scanner runs in SQL.
type fakeScanner struct {
	completions []completion.Unlinked
	resolver    *fakeResolver
	store       *fakeStore
}

func (s *fakeScanner) ScanUnlinked(ctx context.Context, userID string) ([]completion.Unlinked, error) {
	var out []completion.Unlinked
	for _, c := range s.completions {
		if c.UserID != userID {
			continue
		}
		if s.isCredited(c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeScanner) ScanUnlinkedFamily(ctx context.Context, userID string, family completion.Family) ([]completion.Unlinked, error) {
	all, err := s.ScanUnlinked(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []completion.Unlinked
	for _, c := range all {
		if c.Family == family {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeScanner) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, c := range s.completions {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			out = append(out, c.UserID)
		}
	}
	return out, nil
}

func (s *fakeScanner) isCredited(c completion.Unlinked) bool {
	pt, ok := s.resolver.types[c.PointTypeCode]
	if !ok {
		return false
	}
	for _, e := range s.store.entries {
		if e.IsActive() && e.UserID == c.UserID && e.PointTypeID == pt.ID && e.LinkID == c.CompletionID {
			return true
		}
	}
	return false
}

var _ completion.Scanner = (*fakeScanner)(nil)

type fakeResolver struct {
	types map[ledger.PointTypeCode]*ledger.PointType
}

func (r *fakeResolver) Resolve(ctx context.Context, code ledger.PointTypeCode) (*ledger.PointType, error) {
	pt, ok := r.types[code]
	if !ok {
		return nil, shared.ErrUnknownPointType
	}
	return pt, nil
}

var _ ledger.PointTypeResolver = (*fakeResolver)(nil)

type fakeProfiles struct {
	profiles map[string]*profile.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*profile.Profile)}
}

func (r *fakeProfiles) GetByUserID(ctx context.Context, userID string) (*profile.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfiles) GetOrCreate(ctx context.Context, userID string) (*profile.Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	p, err := profile.New(userID)
	if err != nil {
		return nil, err
	}
	r.profiles[userID] = p
	return p, nil
}

func (r *fakeProfiles) SaveTotal(ctx context.Context, userID string, total ledger.Points, at time.Time) error {
	p, ok := r.profiles[userID]
	if !ok {
		return shared.ErrProfileNotFound
	}
	p.PointsTotal = total
	p.LastUpdated = at
	return nil
}

func (r *fakeProfiles) TouchHeroActivity(ctx context.Context, userID string, at time.Time) error {
	p, ok := r.profiles[userID]
	if !ok {
		return shared.ErrProfileNotFound
	}
	p.RecordHeroActivity(at)
	return nil
}

var _ profile.Repository = (*fakeProfiles)(nil)

type fakeLeaderboardReader struct {
	rows []leaderboard.JoinRow
}

func (r *fakeLeaderboardReader) ListJoinRows(ctx context.Context) ([]leaderboard.JoinRow, error) {
	return r.rows, nil
}

var _ leaderboard.Reader = (*fakeLeaderboardReader)(nil)

type fakeSnapshots struct {
	archived []leaderboard.Snapshot
}

func (r *fakeSnapshots) Archive(ctx context.Context, snap leaderboard.Snapshot) error {
	r.archived = append(r.archived, snap)
	return nil
}

func (r *fakeSnapshots) ArchiveBatch(ctx context.Context, snaps []leaderboard.Snapshot) error {
	r.archived = append(r.archived, snaps...)
	return nil
}

func (r *fakeSnapshots) LastQualifying(ctx context.Context, userID string, now time.Time) (*leaderboard.Snapshot, error) {
	var mine []leaderboard.Snapshot
	for _, s := range r.archived {
		if s.UserID == userID {
			mine = append(mine, s)
		}
	}
	best := leaderboard.MostRecentQualifying(mine, now)
	if best == nil {
		return nil, shared.ErrSnapshotNotFound
	}
	return best, nil
}

func (r *fakeSnapshots) LastQualifyingAll(ctx context.Context, now time.Time) (map[string]leaderboard.Snapshot, error) {
	out := make(map[string]leaderboard.Snapshot)
	for _, s := range r.archived {
		if !s.QualifiesAt(now) {
			continue
		}
		prev, ok := out[s.UserID]
		if !ok || s.CreatedAt.After(prev.CreatedAt) {
			out[s.UserID] = s
		}
	}
	return out, nil
}

var _ leaderboard.SnapshotRepository = (*fakeSnapshots)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// TEST ENVIRONMENT
// ══════════════════════════════════════════════════════════════════════════════

type testEnv struct {
	store     *fakeStore
	scanner   *fakeScanner
	resolver  *fakeResolver
	profiles  *fakeProfiles
	recompute *RecomputeTotalHandler
	reconcile *ReconcileUserHandler
}

func newTestEnv(completions []completion.Unlinked) *testEnv {
	store := newFakeStore()
	resolver := &fakeResolver{types: map[ledger.PointTypeCode]*ledger.PointType{
		"learning_task": {ID: 1, Code: "learning_task", Points: 10, Active: true},
		"side_quest":    {ID: 2, Code: "side_quest", Points: 25, Active: true},
		"mission":       {ID: 3, Code: "mission", Points: 15, Active: true},
		"course":        {ID: 4, Code: "course", Points: 50, Active: true},
	}}
	scanner := &fakeScanner{completions: completions, resolver: resolver, store: store}
	profiles := newFakeProfiles()

	recompute := NewRecomputeTotalHandler(store, profiles, nil)
	reconcile := NewReconcileUserHandler(scanner, resolver, store, profiles, recompute, nil)

	return &testEnv{
		store:     store,
		scanner:   scanner,
		resolver:  resolver,
		profiles:  profiles,
		recompute: recompute,
		reconcile: reconcile,
	}
}

func learningTask(userID, completionID string, at time.Time) completion.Unlinked {
	return completion.Unlinked{
		Family:        completion.FamilyLearningTask,
		CompletionID:  completionID,
		UserID:        userID,
		PointTypeCode: "learning_task",
		CompletedAt:   at,
	}
}
