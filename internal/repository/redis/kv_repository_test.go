package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/repository"
)

func newTestRepository(t *testing.T, namespace string) (*KVRepository, *miniredis.Miniredis) {
	s := miniredis.RunT(t)

	repo, err := NewKVRepository(Options{
		RedisOptions: &goredis.Options{Addr: s.Addr()},
		Namespace:    namespace,
		ScanCount:    2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, s
}

func TestNewKVRepository_RequiresOptions(t *testing.T) {
	_, err := NewKVRepository(Options{})
	assert.Error(t, err)
}

func TestRedisKV_SetGetRemove(t *testing.T) {
	repo, s := newTestRepository(t, "test")
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "foo", []byte("bar")))

	value, err := repo.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", string(value))

	raw, err := s.Get("test:foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", raw)
	assert.Zero(t, s.TTL("test:foo"), "values are stored without expiry")

	require.NoError(t, repo.Remove(ctx, "foo"))
	_, err = repo.Get(ctx, "foo")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRedisKV_KeysScansAllPages(t *testing.T) {
	repo, s := newTestRepository(t, "test")
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("api_cache_/decks/%d", i), []byte("x")))
	}
	require.NoError(t, repo.Set(ctx, "review_schedule", []byte("{}")))
	require.NoError(t, s.Set("other:api_cache_/foreign", "x"))

	keys, err := repo.Keys(ctx, "api_cache_")
	require.NoError(t, err)
	assert.Len(t, keys, 7)
	assert.Equal(t, "api_cache_/decks/0", keys[0])
	assert.IsIncreasing(t, keys)
}

func TestRedisKV_KeysEscapesGlob(t *testing.T) {
	repo, _ := newTestRepository(t, "")
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "a*b", []byte("x")))
	require.NoError(t, repo.Set(ctx, "azb", []byte("x")))

	keys, err := repo.Keys(ctx, "a*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a*b"}, keys)
}

func TestRedisKV_Ping(t *testing.T) {
	repo, s := newTestRepository(t, "test")

	require.NoError(t, repo.Ping(context.Background()))

	s.Close()
	assert.Error(t, repo.Ping(context.Background()))
}
