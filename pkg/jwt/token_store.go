package jwt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Token status constants
const (
	TokenStatusNormal = 1 // Token is valid
	TokenStatusKicked = 2 // Token was kicked by new login
	TokenStatusLogout = 3 // Token was logged out
)

// TokenStore manages token storage in Redis
type TokenStore struct {
	rdb          *redis.Client
	accessExpire time.Duration
}

// NewTokenStore creates a new TokenStore
func NewTokenStore(rdb *redis.Client, expireHours int) *TokenStore {
	return &TokenStore{
		rdb:          rdb,
		accessExpire: time.Duration(expireHours) * time.Hour,
	}
}

// tokenKey generates the Redis key for a user's tokens on a platform
func (s *TokenStore) tokenKey(userId string, platformId int) string {
	return fmt.Sprintf(constant.RedisKeyToken(), userId, platformId)
}

// StoreToken stores a token in Redis with status
func (s *TokenStore) StoreToken(ctx context.Context, userId string, platformId int, token string) error {
	key := s.tokenKey(userId, platformId)

	// Hash keyed by token so multiple tokens per user/platform can coexist
	if err := s.rdb.HSet(ctx, key, token, TokenStatusNormal).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if err := s.rdb.Expire(ctx, key, s.accessExpire).Err(); err != nil {
		return fmt.Errorf("failed to set token expiration: %w", err)
	}

	return nil
}

// IsTokenValid checks whether a token exists and carries normal status
func (s *TokenStore) IsTokenValid(ctx context.Context, userId string, platformId int, token string) (bool, error) {
	key := s.tokenKey(userId, platformId)

	statusStr, err := s.rdb.HGet(ctx, key, token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get token status: %w", err)
	}

	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return false, fmt.Errorf("invalid token status value: %w", err)
	}

	return status == TokenStatusNormal, nil
}

// KickOtherTokens marks all tokens except keepToken as kicked.
// Returns the kicked tokens.
func (s *TokenStore) KickOtherTokens(ctx context.Context, userId string, platformId int, keepToken string) ([]string, error) {
	key := s.tokenKey(userId, platformId)

	tokens, err := s.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	var kicked []string
	for _, t := range tokens {
		if t == keepToken {
			continue
		}
		if err := s.rdb.HSet(ctx, key, t, TokenStatusKicked).Err(); err != nil {
			return kicked, fmt.Errorf("failed to kick token: %w", err)
		}
		kicked = append(kicked, t)
	}

	return kicked, nil
}

// InvalidateToken marks a single token as logged out
func (s *TokenStore) InvalidateToken(ctx context.Context, userId string, platformId int, token string) error {
	key := s.tokenKey(userId, platformId)
	return s.rdb.HSet(ctx, key, token, TokenStatusLogout).Err()
}

// ForceLogoutUser drops all tokens for a user on every platform
func (s *TokenStore) ForceLogoutUser(ctx context.Context, userId string) error {
	// Platform ids are a small fixed set, so delete key by key
	for platformId := constant.PlatformIdUnknown; platformId <= constant.PlatformIdWeb; platformId++ {
		if err := s.rdb.Del(ctx, s.tokenKey(userId, platformId)).Err(); err != nil {
			return err
		}
	}
	return nil
}
