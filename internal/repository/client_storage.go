package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/pkg/database"
	"github.com/redis/go-redis/v9"
)

const clientStoragePrefix = "client_storage:"

// ClientStorage is the per-browser key-value area of the login flow, kept in Redis.
// Every key lives under the browser session id and expires after ttl.
type ClientStorage struct {
	redis     *database.Redis
	sessionID string
	ttl       time.Duration
}

// NewClientStorage creates storage scoped to one browser session
func NewClientStorage(redis *database.Redis, sessionID string, ttl time.Duration) *ClientStorage {
	return &ClientStorage{
		redis:     redis,
		sessionID: sessionID,
		ttl:       ttl,
	}
}

func (s *ClientStorage) key(name string) string {
	return clientStoragePrefix + s.sessionID + ":" + name
}

// Take returns the stored value and whether it existed, deleting it atomically
func (s *ClientStorage) Take(ctx context.Context, name string) (string, bool, error) {
	value, err := s.redis.Client.GetDel(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return value, true, nil
}

// Set stores a value, refreshing its expiry
func (s *ClientStorage) Set(ctx context.Context, name, value string) error {
	if err := s.redis.Client.Set(ctx, s.key(name), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *ClientStorage) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.key(name)
	}

	if err := s.redis.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
