package repository

import (
	"context"
	"errors"

	"github.com/kereva-dev/duet/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepo is the repository for room metadata
type RoomRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewRoomRepo creates a new RoomRepo
func NewRoomRepo(db *gorm.DB, rdb *redis.Client) *RoomRepo {
	return &RoomRepo{db: db, rdb: rdb}
}

// UpsertOnSend creates or refreshes the room row after a message append.
// The recipient's unread counter is bumped with a single atomic SQL
// increment so concurrent sends from both sides never lose counts.
func (r *RoomRepo) UpsertOnSend(ctx context.Context, roomId, senderId, preview string, sentAt int64) error {
	low, high, ok := entity.ParseRoomId(roomId)
	if !ok {
		return gorm.ErrInvalidData
	}

	room := &entity.Room{
		RoomId:        roomId,
		UserLow:       low,
		UserHigh:      high,
		LastMessage:   preview,
		LastMessageAt: sentAt,
		LastSenderId:  senderId,
	}

	// Unread column of the side that did NOT send
	unreadCol := "unread_low"
	if senderId == low {
		unreadCol = "unread_high"
	}
	if senderId == low {
		room.UnreadHigh = 1
	} else {
		room.UnreadLow = 1
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_message":    preview,
			"last_message_at": sentAt,
			"last_sender_id":  senderId,
			unreadCol:         gorm.Expr(unreadCol + " + 1"),
			"updated_at":      sentAt,
		}),
	}).Create(room).Error
}

// GetByRoomId gets a room by its id. Returns nil without error when absent.
func (r *RoomRepo) GetByRoomId(ctx context.Context, roomId string) (*entity.Room, error) {
	var room entity.Room
	err := r.db.WithContext(ctx).Where("room_id = ?", roomId).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListByParticipant returns all rooms a user takes part in, most recent first
func (r *RoomRepo) ListByParticipant(ctx context.Context, userId string) ([]*entity.Room, error) {
	var rooms []*entity.Room
	err := r.db.WithContext(ctx).
		Where("user_low = ? OR user_high = ?", userId, userId).
		Order("last_message_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// ResetUnread zeroes one participant's unread counter
func (r *RoomRepo) ResetUnread(ctx context.Context, roomId, userId string) error {
	low, _, ok := entity.ParseRoomId(roomId)
	if !ok {
		return gorm.ErrInvalidData
	}

	col := "unread_high"
	if userId == low {
		col = "unread_low"
	}

	return r.db.WithContext(ctx).Model(&entity.Room{}).
		Where("room_id = ?", roomId).
		Update(col, 0).Error
}
