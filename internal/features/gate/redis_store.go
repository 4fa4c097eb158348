package gate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"seabot/internal/platform/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "seabot:gate:"

// RedisStore shares request history between bot replicas. Each identifier
// has a sorted set of request timestamps and an optional ban key.
type RedisStore struct {
	client redis.RedisClient
}

func NewRedisStore(client redis.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func hitsKey(key string) string { return keyPrefix + "hits:" + key }
func banKey(key string) string  { return keyPrefix + "ban:" + key }

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time) (int, int, error) {
	k := hitsKey(key)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", score(now.Add(-hourWindow)))
	pipe.ZAdd(ctx, k, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	minute := pipe.ZCount(ctx, k, "("+score(now.Add(-minuteWindow)), "+inf")
	hour := pipe.ZCount(ctx, k, "-inf", "+inf")
	pipe.Expire(ctx, k, hourWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return int(minute.Val()), int(hour.Val()), nil
}

func (s *RedisStore) BannedUntil(ctx context.Context, key string, now time.Time) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, banKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	until := time.Unix(0, nanos)
	if !until.After(now) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (s *RedisStore) Ban(ctx context.Context, key string, now time.Time, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.client.Set(ctx, banKey(key), score(now.Add(d)), d).Err()
}
