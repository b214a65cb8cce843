package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyRequestLog is the sorted set holding the shared request window.
const RedisKeyRequestLog = "oneapi:rate_limit:requests"

// RedisLog is a RequestLog shared by every process using the same Redis key,
// so several clients holding one access token share one request budget.
// Members are entry ids scored by issue time in unix milliseconds.
//
// Admission is best effort across processes: counting and appending are
// separate commands, so two processes may both take the last slot.
type RedisLog struct {
	redis *redis.Client
	key   string
}

// NewRedisLog creates a Redis-backed request log. An empty key uses RedisKeyRequestLog.
func NewRedisLog(redisClient *redis.Client, key string) *RedisLog {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = RedisKeyRequestLog
	}
	return &RedisLog{redis: redisClient, key: key}
}

// Prune removes entries issued before cutoff.
func (l *RedisLog) Prune(ctx context.Context, cutoff time.Time) error {
	upper := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	if err := l.redis.ZRemRangeByScore(ctx, l.key, "-inf", upper).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}
	return nil
}

// Count returns the number of entries in the set.
func (l *RedisLog) Count(ctx context.Context) (int, error) {
	n, err := l.redis.ZCard(ctx, l.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	return int(n), nil
}

// Oldest returns the lowest-scored entry.
func (l *RedisLog) Oldest(ctx context.Context) (Entry, bool, error) {
	members, err := l.redis.ZRangeWithScores(ctx, l.key, 0, 0).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis zrange: %w", err)
	}
	if len(members) == 0 {
		return Entry{}, false, nil
	}

	id, _ := members[0].Member.(string)
	return Entry{ID: id, At: time.UnixMilli(int64(members[0].Score))}, true, nil
}

// Append adds an entry and refreshes the key expiry so idle windows disappear.
func (l *RedisLog) Append(ctx context.Context, entry Entry) error {
	pipe := l.redis.TxPipeline()
	pipe.ZAdd(ctx, l.key, redis.Z{Score: float64(entry.At.UnixMilli()), Member: entry.ID})
	pipe.Expire(ctx, l.key, 2*Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}
	return nil
}

// Remove deletes an entry by id.
func (l *RedisLog) Remove(ctx context.Context, id string) error {
	if err := l.redis.ZRem(ctx, l.key, id).Err(); err != nil {
		return fmt.Errorf("redis zrem: %w", err)
	}
	return nil
}
