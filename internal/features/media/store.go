// Package media hosts short-lived images under a public URL so external
// maker APIs can fetch them.
package media

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/platform/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "seabot:media:"

var ErrNotFound = errors.New("media not found")

// Item is a hosted image.
type Item struct {
	ID  string
	URL string
}

type Store struct {
	rdb     redis.RedisClient
	baseURL string
	ttl     time.Duration
}

func NewStore(rdb redis.RedisClient, baseURL string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{rdb: rdb, baseURL: strings.TrimRight(baseURL, "/"), ttl: ttl}
}

// Put stores data until the TTL passes and returns its public address.
func (s *Store) Put(ctx context.Context, data []byte) (Item, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return Item{}, apperrors.NewCacheError("put media", err)
	}
	return Item{ID: id, URL: s.baseURL + "/media/" + id}, nil
}

func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewCacheError("get media", err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return apperrors.NewCacheError("delete media", err)
	}
	return nil
}
