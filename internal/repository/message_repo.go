package repository

import (
	"context"
	"errors"

	"github.com/kereva-dev/duet/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MessageRepo is the repository for chat messages
type MessageRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, rdb *redis.Client) *MessageRepo {
	return &MessageRepo{db: db, rdb: rdb}
}

// Append inserts a message row. SentAt must already carry the server
// timestamp assigned by the caller.
func (r *MessageRepo) Append(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetByClientMsgId looks a message up by its client-generated id within a
// room. Returns nil without error when absent. Used to keep retried sends
// from producing duplicate rows.
func (r *MessageRepo) GetByClientMsgId(ctx context.Context, roomId, clientMsgId string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND client_msg_id = ?", roomId, clientMsgId).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FetchRecent returns the newest limit messages of a room in oldest-first
// order. Ties on sent_at break on the insert id so the order is total.
func (r *MessageRepo) FetchRecent(ctx context.Context, roomId string, limit int) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomId).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	// Reverse into oldest-first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListAll returns every message of a room in oldest-first order
func (r *MessageRepo) ListAll(ctx context.Context, roomId string) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomId).
		Order("sent_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flags every unread message addressed to readerId in the room.
// Returns the number of rows flipped.
func (r *MessageRepo) MarkRead(ctx context.Context, roomId, readerId string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("room_id = ? AND recipient_id = ? AND `read` = ?", roomId, readerId, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// DeleteByRoom drops every message of a room
func (r *MessageRepo) DeleteByRoom(ctx context.Context, roomId string) error {
	return r.db.WithContext(ctx).Where("room_id = ?", roomId).Delete(&entity.Message{}).Error
}
