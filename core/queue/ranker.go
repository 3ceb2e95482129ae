// Package queue implements the vote-ordered track queue: the ordering
// policy and the idempotent vote/unvote mutations over it.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/FALLENEZER/Spotik-sub003/model"
	"github.com/FALLENEZER/Spotik-sub003/repository"
)

var (
	// ErrAlreadyVoted is returned when the user already voted for the track.
	ErrAlreadyVoted = errors.New("already voted for this track")

	// ErrNotVoted is returned by unvote when no vote exists to remove.
	ErrNotVoted = errors.New("no vote to remove")
)

// VoteResult is the outcome of a vote or unvote.
type VoteResult struct {
	TrackID      int64 `json:"trackId"`
	NewScore     int   `json:"newScore"`
	UserHasVoted bool  `json:"userHasVoted"`
}

// Ranker orders a room's tracks by vote score and mediates vote mutations.
type Ranker struct {
	tracks repository.TrackRepository
}

// NewRanker creates a ranker over the given track repository.
func NewRanker(tracks repository.TrackRepository) *Ranker {
	return &Ranker{tracks: tracks}
}

// Sort orders tracks in place by vote score descending, then upload time
// ascending, then id ascending. The stable sort plus the id key keeps the
// order deterministic even when both primary keys tie.
func Sort(tracks []model.Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		if tracks[i].VoteScore != tracks[j].VoteScore {
			return tracks[i].VoteScore > tracks[j].VoteScore
		}
		if !tracks[i].CreatedAt.Equal(tracks[j].CreatedAt) {
			return tracks[i].CreatedAt.Before(tracks[j].CreatedAt)
		}
		return tracks[i].ID < tracks[j].ID
	})
}

// OrderedQueue returns all of a room's tracks in queue order.
func (r *Ranker) OrderedQueue(ctx context.Context, roomID string) ([]model.Track, error) {
	tracks, err := r.tracks.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list room tracks: %w", err)
	}
	// the repository already orders; re-sorting keeps the policy in one place
	Sort(tracks)
	return tracks, nil
}

// NextAfter returns the head of the room's queue excluding the given track,
// or nil when the queue is empty. Previously played tracks are not excluded;
// an unplayed vote can bring a track back to the top.
func (r *Ranker) NextAfter(ctx context.Context, roomID string, excludeTrackID int64) (*model.Track, error) {
	tracks, err := r.OrderedQueue(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		if tracks[i].ID != excludeTrackID {
			return &tracks[i], nil
		}
	}
	return nil, nil
}

// Vote registers the user's vote for the track. A duplicate vote changes
// nothing and reports ErrAlreadyVoted with the current score attached to
// the result.
func (r *Ranker) Vote(ctx context.Context, trackID, userID int64) (*VoteResult, error) {
	score, already, err := r.tracks.Vote(ctx, trackID, userID)
	if err != nil {
		return nil, fmt.Errorf("vote failed: %w", err)
	}
	result := &VoteResult{TrackID: trackID, NewScore: score, UserHasVoted: true}
	if already {
		return result, ErrAlreadyVoted
	}
	return result, nil
}

// Unvote removes the user's vote for the track. When no vote exists it
// reports ErrNotVoted and leaves the score untouched.
func (r *Ranker) Unvote(ctx context.Context, trackID, userID int64) (*VoteResult, error) {
	score, removed, err := r.tracks.Unvote(ctx, trackID, userID)
	if err != nil {
		return nil, fmt.Errorf("unvote failed: %w", err)
	}
	result := &VoteResult{TrackID: trackID, NewScore: score, UserHasVoted: false}
	if !removed {
		return result, ErrNotVoted
	}
	return result, nil
}
