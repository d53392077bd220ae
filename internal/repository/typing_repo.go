package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kereva-dev/duet/internal/entity"
	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// typingTTL keeps abandoned flags from living past the staleness window
// by a wide margin even if the clear write never arrives.
const typingTTL = 30 * time.Second

// TypingRepo stores ephemeral typing flags in Redis
type TypingRepo struct {
	rdb *redis.Client
}

// NewTypingRepo creates a new TypingRepo
func NewTypingRepo(rdb *redis.Client) *TypingRepo {
	return &TypingRepo{rdb: rdb}
}

func typingKey(roomId, authorId string) string {
	return fmt.Sprintf(constant.RedisKeyTyping(), roomId, authorId)
}

// Set writes one author's typing flag with a fresh timestamp
func (r *TypingRepo) Set(ctx context.Context, roomId, authorId string, isTyping bool) error {
	state := entity.TypingState{
		IsTyping: isTyping,
		At:       entity.NowUnixMilli(),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, typingKey(roomId, authorId), data, typingTTL).Err()
}

// Get reads one author's typing flag. Returns nil without error when no
// flag was ever written or it expired.
func (r *TypingRepo) Get(ctx context.Context, roomId, authorId string) (*entity.TypingState, error) {
	data, err := r.rdb.Get(ctx, typingKey(roomId, authorId)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state entity.TypingState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Clear drops one author's typing flag
func (r *TypingRepo) Clear(ctx context.Context, roomId, authorId string) error {
	return r.rdb.Del(ctx, typingKey(roomId, authorId)).Err()
}
