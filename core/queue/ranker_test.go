package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/model"
)

// fakeTrackRepo is an in-memory stand-in for the GORM track repository.
type fakeTrackRepo struct {
	tracks map[int64]*model.Track
	votes  map[string]bool // "trackID:userID"
	nextID int64
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{
		tracks: make(map[int64]*model.Track),
		votes:  make(map[string]bool),
		nextID: 1,
	}
}

func voteKey(trackID, userID int64) string {
	return fmt.Sprintf("%d:%d", trackID, userID)
}

func (r *fakeTrackRepo) Create(_ context.Context, track *model.Track) error {
	track.ID = r.nextID
	r.nextID++
	cp := *track
	r.tracks[track.ID] = &cp
	return nil
}

func (r *fakeTrackRepo) GetByID(_ context.Context, id int64) (*model.Track, error) {
	t, ok := r.tracks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTrackRepo) Delete(_ context.Context, id int64) error {
	delete(r.tracks, id)
	return nil
}

func (r *fakeTrackRepo) ListByRoom(_ context.Context, roomID string) ([]model.Track, error) {
	var out []model.Track
	for _, t := range r.tracks {
		if t.RoomID == roomID {
			out = append(out, *t)
		}
	}
	Sort(out)
	return out, nil
}

func (r *fakeTrackRepo) Vote(_ context.Context, trackID, userID int64) (int, bool, error) {
	t, ok := r.tracks[trackID]
	if !ok {
		return 0, false, errors.New("track not found")
	}
	if r.votes[voteKey(trackID, userID)] {
		return t.VoteScore, true, nil
	}
	r.votes[voteKey(trackID, userID)] = true
	t.VoteScore++
	return t.VoteScore, false, nil
}

func (r *fakeTrackRepo) Unvote(_ context.Context, trackID, userID int64) (int, bool, error) {
	t, ok := r.tracks[trackID]
	if !ok {
		return 0, false, errors.New("track not found")
	}
	if !r.votes[voteKey(trackID, userID)] {
		return t.VoteScore, false, nil
	}
	delete(r.votes, voteKey(trackID, userID))
	t.VoteScore--
	return t.VoteScore, true, nil
}

func (r *fakeTrackRepo) VotedTrackIDs(_ context.Context, roomID string, userID int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, t := range r.tracks {
		if t.RoomID == roomID && r.votes[voteKey(t.ID, userID)] {
			out[t.ID] = true
		}
	}
	return out, nil
}

func seedTracks(t *testing.T, repo *fakeTrackRepo, roomID string, n int) []int64 {
	t.Helper()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		track := &model.Track{
			RoomID:    roomID,
			Title:     fmt.Sprintf("track-%d", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(context.Background(), track); err != nil {
			t.Fatalf("seed track: %v", err)
		}
		ids = append(ids, track.ID)
	}
	return ids
}

func queueIDs(t *testing.T, r *Ranker, roomID string) []int64 {
	t.Helper()
	tracks, err := r.OrderedQueue(context.Background(), roomID)
	if err != nil {
		t.Fatalf("OrderedQueue: %v", err)
	}
	ids := make([]int64, 0, len(tracks))
	for _, tr := range tracks {
		ids = append(ids, tr.ID)
	}
	return ids
}

func expectOrder(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestSortTieBreaksByUploadTimeThenID(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tracks := []model.Track{
		{ID: 3, VoteScore: 1, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 1, VoteScore: 1, CreatedAt: base},
		{ID: 4, VoteScore: 0, CreatedAt: base},
		{ID: 2, VoteScore: 1, CreatedAt: base},
	}
	Sort(tracks)

	want := []int64{1, 2, 3, 4}
	for i, tr := range tracks {
		if tr.ID != want[i] {
			t.Fatalf("position %d: expected track %d, got %d", i, want[i], tr.ID)
		}
	}
}

func TestVotesReorderQueue(t *testing.T) {
	repo := newFakeTrackRepo()
	r := NewRanker(repo)
	ctx := context.Background()

	ids := seedTracks(t, repo, "100001", 3)
	t1, t2, t3 := ids[0], ids[1], ids[2]

	// untouched queue keeps upload order
	expectOrder(t, queueIDs(t, r, "100001"), []int64{t1, t2, t3})

	if _, err := r.Vote(ctx, t3, 7); err != nil {
		t.Fatalf("vote t3: %v", err)
	}
	expectOrder(t, queueIDs(t, r, "100001"), []int64{t3, t1, t2})

	if _, err := r.Vote(ctx, t1, 8); err != nil {
		t.Fatalf("vote t1: %v", err)
	}
	// t1 and t3 tie at one vote; earlier upload wins
	expectOrder(t, queueIDs(t, r, "100001"), []int64{t1, t3, t2})
}

func TestVoteIsIdempotent(t *testing.T) {
	repo := newFakeTrackRepo()
	r := NewRanker(repo)
	ctx := context.Background()

	ids := seedTracks(t, repo, "100001", 1)

	result, err := r.Vote(ctx, ids[0], 7)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if result.NewScore != 1 || !result.UserHasVoted {
		t.Fatalf("unexpected first vote result: %+v", result)
	}

	result, err = r.Vote(ctx, ids[0], 7)
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if result == nil || result.NewScore != 1 {
		t.Fatalf("duplicate vote must report the unchanged score, got %+v", result)
	}

	// a second user still counts
	if result, err = r.Vote(ctx, ids[0], 8); err != nil {
		t.Fatalf("second user vote: %v", err)
	}
	if result.NewScore != 2 {
		t.Fatalf("expected score 2, got %d", result.NewScore)
	}
}

func TestUnvoteIsIdempotent(t *testing.T) {
	repo := newFakeTrackRepo()
	r := NewRanker(repo)
	ctx := context.Background()

	ids := seedTracks(t, repo, "100001", 1)

	if _, err := r.Unvote(ctx, ids[0], 7); !errors.Is(err, ErrNotVoted) {
		t.Fatalf("expected ErrNotVoted, got %v", err)
	}

	if _, err := r.Vote(ctx, ids[0], 7); err != nil {
		t.Fatalf("vote: %v", err)
	}
	result, err := r.Unvote(ctx, ids[0], 7)
	if err != nil {
		t.Fatalf("unvote: %v", err)
	}
	if result.NewScore != 0 || result.UserHasVoted {
		t.Fatalf("unexpected unvote result: %+v", result)
	}

	if _, err := r.Unvote(ctx, ids[0], 7); !errors.Is(err, ErrNotVoted) {
		t.Fatalf("expected ErrNotVoted on repeat, got %v", err)
	}
}

func TestNextAfterSkipsOnlyTheCurrentTrack(t *testing.T) {
	repo := newFakeTrackRepo()
	r := NewRanker(repo)
	ctx := context.Background()

	ids := seedTracks(t, repo, "100001", 3)
	t1, t2, t3 := ids[0], ids[1], ids[2]

	if _, err := r.Vote(ctx, t2, 7); err != nil {
		t.Fatalf("vote: %v", err)
	}

	next, err := r.NextAfter(ctx, "100001", t2)
	if err != nil {
		t.Fatalf("NextAfter: %v", err)
	}
	if next == nil || next.ID != t1 {
		t.Fatalf("expected next track %d, got %+v", t1, next)
	}

	// the excluded track stays eligible once it is no longer current
	next, err = r.NextAfter(ctx, "100001", t3)
	if err != nil {
		t.Fatalf("NextAfter: %v", err)
	}
	if next == nil || next.ID != t2 {
		t.Fatalf("expected next track %d, got %+v", t2, next)
	}
}

func TestNextAfterEmptyQueue(t *testing.T) {
	repo := newFakeTrackRepo()
	r := NewRanker(repo)

	next, err := r.NextAfter(context.Background(), "100001", 42)
	if err != nil {
		t.Fatalf("NextAfter: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil for empty queue, got %+v", next)
	}
}

func TestNextAfterSingleTrackQueue(t *testing.T) {
	repo := newFakeTrackRepo()
	r := NewRanker(repo)

	ids := seedTracks(t, repo, "100001", 1)
	next, err := r.NextAfter(context.Background(), "100001", ids[0])
	if err != nil {
		t.Fatalf("NextAfter: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil when only the current track remains, got %+v", next)
	}
}
