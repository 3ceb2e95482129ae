package repository

import (
	"context"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackRepository is the track and vote data access interface.
//
// Vote and Unvote return structured outcomes instead of sentinel errors:
// the bool reports whether the operation actually changed anything, so the
// caller can translate a duplicate vote or a missing vote into its own
// conflict signal.
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	Delete(ctx context.Context, id int64) error

	// ListByRoom returns the room's tracks in queue order:
	// vote_score DESC, created_at ASC, id ASC.
	ListByRoom(ctx context.Context, roomID string) ([]model.Track, error)

	Vote(ctx context.Context, trackID, userID int64) (score int, already bool, err error)
	Unvote(ctx context.Context, trackID, userID int64) (score int, removed bool, err error)
	VotedTrackIDs(ctx context.Context, roomID string, userID int64) (map[int64]bool, error)
}

// gormTrackRepository is the GORM implementation.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a GORM-backed track repository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create inserts a track.
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Create(track).Error
}

// GetByID fetches a track, (nil, nil) when absent.
func (r *gormTrackRepository) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// Delete removes the track and its votes in one transaction.
func (r *gormTrackRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", id).Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Track{}).Error
	})
}

// ListByRoom returns the room's tracks in queue order. The trailing id key
// keeps the order deterministic when score and upload time both tie.
func (r *gormTrackRepository) ListByRoom(ctx context.Context, roomID string) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("vote_score DESC, created_at ASC, id ASC").
		Find(&tracks).Error
	return tracks, err
}

// Vote inserts a vote and bumps the denormalized counter in one transaction.
// The track row is locked so concurrent voters on the same track serialize
// and the counter can never drift from the live vote count.
func (r *gormTrackRepository) Vote(ctx context.Context, trackID, userID int64) (int, bool, error) {
	var score int
	var already bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var track model.Track
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", trackID).
			First(&track).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.Vote{}).
			Where("track_id = ? AND user_id = ?", trackID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			already = true
			score = track.VoteScore
			return nil
		}

		vote := &model.Vote{TrackID: trackID, UserID: userID, CreatedAt: time.Now().UTC()}
		if err := tx.Create(vote).Error; err != nil {
			return err
		}

		score = track.VoteScore + 1
		return tx.Model(&model.Track{}).
			Where("id = ?", trackID).
			Update("vote_score", gorm.Expr("vote_score + 1")).Error
	})
	return score, already, err
}

// Unvote deletes a vote and decrements the counter in the same transaction.
// removed is false when no vote existed.
func (r *gormTrackRepository) Unvote(ctx context.Context, trackID, userID int64) (int, bool, error) {
	var score int
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var track model.Track
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", trackID).
			First(&track).Error; err != nil {
			return err
		}

		res := tx.Where("track_id = ? AND user_id = ?", trackID, userID).
			Delete(&model.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			score = track.VoteScore
			return nil
		}

		removed = true
		score = track.VoteScore - 1
		return tx.Model(&model.Track{}).
			Where("id = ?", trackID).
			Update("vote_score", gorm.Expr("vote_score - 1")).Error
	})
	return score, removed, err
}

// VotedTrackIDs returns the set of track ids in the room the user has voted for.
func (r *gormTrackRepository) VotedTrackIDs(ctx context.Context, roomID string, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Select("votes.track_id").
		Joins("JOIN tracks ON tracks.id = votes.track_id").
		Where("tracks.room_id = ? AND votes.user_id = ?", roomID, userID).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}

	voted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}
