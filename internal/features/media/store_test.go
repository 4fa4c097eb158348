package media

import (
	"context"
	"testing"
	"time"

	"seabot/internal/platform/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(redis.Wrap(client), "https://bot.example.com/", time.Minute), mr
}

func TestPutGetDelete(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	item, err := s.Put(ctx, []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com/media/"+item.ID, item.URL)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+item.ID))

	data, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)

	require.NoError(t, s.Delete(ctx, item.ID))
	_, err = s.Get(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetExpiredOrMalformed(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	item, err := s.Put(ctx, []byte("x"))
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = s.Get(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}
