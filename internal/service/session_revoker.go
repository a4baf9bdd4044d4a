package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/pkg/database"
)

// RedisSessionRevoker keeps revoked session ids in Redis
type RedisSessionRevoker struct {
	redis *database.Redis
}

// NewRedisSessionRevoker creates a new session revoker
func NewRedisSessionRevoker(redis *database.Redis) *RedisSessionRevoker {
	return &RedisSessionRevoker{redis: redis}
}

// Revoke marks the session as revoked for ttl
func (s *RedisSessionRevoker) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	key := fmt.Sprintf("session:revoked:%s", sessionID)
	if err := s.redis.Client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsRevoked checks if the session was revoked
func (s *RedisSessionRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	key := fmt.Sprintf("session:revoked:%s", sessionID)
	exists, err := s.redis.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return exists > 0, nil
}
