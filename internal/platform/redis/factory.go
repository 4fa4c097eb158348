package redis

import (
	"context"
	"fmt"
	"time"

	"seabot/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis the bot depends on.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd

	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd
	ZCount(ctx context.Context, key, min, max string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	TxPipeline() redis.Pipeliner

	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd

	Close() error
}

func CreateRedisClient(cfg *config.Config) (RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr(), err)
	}

	return Wrap(client), nil
}

// Wrap adapts an existing go-redis client.
func Wrap(client *redis.Client) RedisClient {
	return &redisClientWrapper{client: client}
}

type redisClientWrapper struct {
	client *redis.Client
}

func (w *redisClientWrapper) Ping(ctx context.Context) *redis.StatusCmd {
	return w.client.Ping(ctx)
}

func (w *redisClientWrapper) Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) *redis.StatusCmd {
	if len(ttl) > 0 {
		return w.client.Set(ctx, key, value, ttl[0])
	}
	return w.client.Set(ctx, key, value, 0)
}

func (w *redisClientWrapper) Get(ctx context.Context, key string) *redis.StringCmd {
	return w.client.Get(ctx, key)
}

func (w *redisClientWrapper) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return w.client.Del(ctx, keys...)
}

func (w *redisClientWrapper) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	return w.client.Exists(ctx, keys...)
}

func (w *redisClientWrapper) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	return w.client.Scan(ctx, cursor, match, count)
}

func (w *redisClientWrapper) TTL(ctx context.Context, key string) *redis.DurationCmd {
	return w.client.TTL(ctx, key)
}

func (w *redisClientWrapper) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	return w.client.ZAdd(ctx, key, members...)
}

func (w *redisClientWrapper) ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd {
	return w.client.ZRemRangeByScore(ctx, key, min, max)
}

func (w *redisClientWrapper) ZCount(ctx context.Context, key, min, max string) *redis.IntCmd {
	return w.client.ZCount(ctx, key, min, max)
}

func (w *redisClientWrapper) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	return w.client.Expire(ctx, key, ttl)
}

func (w *redisClientWrapper) TxPipeline() redis.Pipeliner {
	return w.client.TxPipeline()
}

func (w *redisClientWrapper) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	return w.client.XAdd(ctx, a)
}

func (w *redisClientWrapper) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return w.client.XGroupCreateMkStream(ctx, stream, group, start)
}

func (w *redisClientWrapper) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return w.client.XReadGroup(ctx, a)
}

func (w *redisClientWrapper) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	return w.client.XAck(ctx, stream, group, ids...)
}

func (w *redisClientWrapper) Close() error {
	return w.client.Close()
}
