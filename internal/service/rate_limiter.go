package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/hh-autoapply/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow records a hit for key inside a sliding window.
// When the limit is exceeded it returns false and how long until the oldest hit leaves the window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := "ratelimit:" + key

	// sliding window log: one sorted-set member per request, scored by its time in ms
	err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixMilli(), 10)).Err()
	if err != nil {
		return false, 0, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(limit) {
		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err != nil || len(oldest) == 0 {
			return false, window, nil
		}
		oldestTime := time.UnixMilli(int64(oldest[0].Score))
		retryAfter := window - now.Sub(oldestTime)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter.Round(time.Second), nil
	}

	pipe := r.redis.Client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.New().String(),
	})
	pipe.Expire(ctx, redisKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to add entry: %w", err)
	}

	return true, 0, nil
}
