package repository

import (
	"context"

	"github.com/FALLENEZER/Spotik-sub003/model"

	"gorm.io/gorm"
)

// RoomRepository is the room data access interface.
type RoomRepository interface {
	// room CRUD
	CreateWithAdmin(ctx context.Context, room *model.Room, admin *model.Participant) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	SavePlayback(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)

	// participants
	AddParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, roomID string, userID int64) (*model.Participant, error)
	RemoveParticipant(ctx context.Context, roomID string, userID int64) error
	ListParticipants(ctx context.Context, roomID string) ([]*model.Participant, error)
	CountParticipants(ctx context.Context, roomID string) (int64, error)
}

// gormRoomRepository is the GORM implementation.
type gormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GORM-backed room repository.
func NewGormRoomRepository(db *gorm.DB) RoomRepository {
	return &gormRoomRepository{db: db}
}

// ========== room CRUD ==========

// CreateWithAdmin inserts the room and its administrator membership in one
// transaction, so a room can never exist without its administrator row.
func (r *gormRoomRepository) CreateWithAdmin(ctx context.Context, room *model.Room, admin *model.Participant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return tx.Create(admin).Error
	})
}

// GetByID fetches a room, returning (nil, nil) when it does not exist.
func (r *gormRoomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// SavePlayback persists the playback columns of the room row. A map update
// is used so that cleared pointers write NULL.
func (r *gormRoomRepository) SavePlayback(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", room.ID).
		Updates(map[string]interface{}{
			"current_track_id":    room.CurrentTrackID,
			"is_playing":          room.IsPlaying,
			"playback_started_at": room.PlaybackStartedAt,
			"playback_paused_at":  room.PlaybackPausedAt,
		}).Error
}

// Delete removes the room and everything it owns: participants, tracks and
// the tracks' votes, in one transaction.
func (r *gormRoomRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id IN (?)",
			tx.Model(&model.Track{}).Select("id").Where("room_id = ?", id),
		).Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&model.Track{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Room{}).Error
	})
}

// ExistsByID reports whether a room id is taken.
func (r *gormRoomRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// ========== participants ==========

// AddParticipant inserts a membership record.
func (r *gormRoomRepository) AddParticipant(ctx context.Context, p *model.Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetParticipant fetches a membership record, (nil, nil) when absent.
func (r *gormRoomRepository) GetParticipant(ctx context.Context, roomID string, userID int64) (*model.Participant, error) {
	var p model.Participant
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// RemoveParticipant deletes a membership record.
func (r *gormRoomRepository) RemoveParticipant(ctx context.Context, roomID string, userID int64) error {
	return r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&model.Participant{}).Error
}

// ListParticipants returns the room's members ordered by join time.
func (r *gormRoomRepository) ListParticipants(ctx context.Context, roomID string) ([]*model.Participant, error) {
	var participants []*model.Participant
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

// CountParticipants counts the room's members.
func (r *gormRoomRepository) CountParticipants(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Participant{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}
