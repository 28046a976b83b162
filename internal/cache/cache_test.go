package cache_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/cache"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/repository/memory"
	"github.com/vytor/studyflash/internal/testutil"
)

type deck struct {
	ID    string `json:"id" msgpack:"id"`
	Title string `json:"title" msgpack:"title"`
	Cards int    `json:"cards" msgpack:"cards"`
}

type fixture struct {
	cache   *cache.Cache
	clock   *testutil.Clock
	local   *memory.KVRepository
	session *memory.KVRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:   testutil.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		local:   memory.NewKVRepository(0),
		session: memory.NewKVRepository(0),
	}
	f.cache = cache.New(
		cache.WithClock(f.clock.Now),
		cache.WithLocalStore(f.local, cache.JSONCodec{}),
		cache.WithSessionStore(f.session, cache.MsgpackCodec{}),
	)
	return f
}

func TestSetGet_RoundTripEveryBackend(t *testing.T) {
	ctx := context.Background()

	for _, storage := range cache.Storages {
		t.Run(string(storage), func(t *testing.T) {
			f := newFixture(t)
			want := deck{ID: "d1", Title: "Spanish verbs", Cards: 42}

			cache.Set(ctx, f.cache, "/decks/d1", want, cache.WithStorage(storage))

			got, ok := cache.Get[deck](ctx, f.cache, "/decks/d1", cache.WithStorage(storage))
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestGet_MissingKey(t *testing.T) {
	f := newFixture(t)

	_, ok := cache.Get[string](context.Background(), f.cache, "/nothing")
	assert.False(t, ok)
}

func TestGet_ZeroTTLIsExpiredAndRemoved(t *testing.T) {
	ctx := context.Background()

	for _, storage := range cache.Storages {
		t.Run(string(storage), func(t *testing.T) {
			f := newFixture(t)

			cache.Set(ctx, f.cache, "/decks", "payload", cache.WithTTL(0), cache.WithStorage(storage))
			// Stored until the read notices it is expired.
			require.Equal(t, 1, totalItems(f.cache.Stats(ctx)))

			_, ok := cache.Get[string](ctx, f.cache, "/decks", cache.WithStorage(storage))
			assert.False(t, ok)
			assert.Zero(t, totalItems(f.cache.Stats(ctx)), "expired item is removed by the read")
		})
	}
}

func totalItems(s cache.Stats) int {
	return s.MemorySize + s.LocalStorageSize + s.SessionStorageSize
}

func TestGet_ExpiresStrictlyAfterTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/decks", "payload", cache.WithTTL(time.Second))

	f.clock.Advance(time.Second)
	v, ok := cache.Get[string](ctx, f.cache, "/decks")
	require.True(t, ok, "now - timestamp == ttl is still fresh")
	assert.Equal(t, "payload", v)

	f.clock.Advance(time.Millisecond)
	_, ok = cache.Get[string](ctx, f.cache, "/decks")
	assert.False(t, ok)
}

func TestSet_OverwriteRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/decks", "v1", cache.WithTTL(time.Minute))
	f.clock.Advance(50 * time.Second)
	cache.Set(ctx, f.cache, "/decks", "v2", cache.WithTTL(time.Minute))
	f.clock.Advance(50 * time.Second)

	v, ok := cache.Get[string](ctx, f.cache, "/decks")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestMemoryCapacity_DropsOldestInserted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const maxSize = 5

	for i := 0; i <= maxSize; i++ {
		cache.Set(ctx, f.cache, fmt.Sprintf("/decks/%d", i), i, cache.WithMaxSize(maxSize), cache.WithTTL(time.Hour))
		f.clock.Advance(time.Millisecond)
	}

	assert.Equal(t, maxSize, f.cache.Stats(ctx).MemorySize)

	_, ok := cache.Get[int](ctx, f.cache, "/decks/0", cache.WithMaxSize(maxSize))
	assert.False(t, ok, "oldest key is evicted")
	for i := 1; i <= maxSize; i++ {
		v, ok := cache.Get[int](ctx, f.cache, fmt.Sprintf("/decks/%d", i))
		require.True(t, ok, "key %d retained", i)
		assert.Equal(t, i, v)
	}
}

func TestMemoryCapacity_ExpiredGoFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/old", "fresh", cache.WithTTL(time.Hour), cache.WithMaxSize(2))
	f.clock.Advance(time.Millisecond)
	cache.Set(ctx, f.cache, "/short", "soon stale", cache.WithTTL(time.Millisecond), cache.WithMaxSize(2))
	f.clock.Advance(10 * time.Millisecond)
	cache.Set(ctx, f.cache, "/new", "fresh", cache.WithTTL(time.Hour), cache.WithMaxSize(2))

	assert.Equal(t, 2, f.cache.Stats(ctx).MemorySize)
	_, ok := cache.Get[string](ctx, f.cache, "/old")
	assert.True(t, ok, "removing the expired item was enough, the oldest survives")
	_, ok = cache.Get[string](ctx, f.cache, "/new")
	assert.True(t, ok)
}

func TestMemoryCapacity_ReadsDoNotReorder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/a", "a", cache.WithMaxSize(2))
	f.clock.Advance(time.Millisecond)
	cache.Set(ctx, f.cache, "/b", "b", cache.WithMaxSize(2))
	f.clock.Advance(time.Millisecond)

	_, ok := cache.Get[string](ctx, f.cache, "/a")
	require.True(t, ok)

	cache.Set(ctx, f.cache, "/c", "c", cache.WithMaxSize(2))
	_, ok = cache.Get[string](ctx, f.cache, "/a")
	assert.False(t, ok, "eviction follows insertion time, not access")
}

func TestPersistentBackends_NotCapacityBounded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		cache.Set(ctx, f.cache, fmt.Sprintf("/k/%d", i), i, cache.WithStorage(cache.StorageLocal), cache.WithMaxSize(2))
	}

	assert.Equal(t, 5, f.cache.Stats(ctx).LocalStorageSize)
}

func TestSet_WriteFailureFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(time.Now())
	full := memory.NewKVRepository(8)
	c := cache.New(cache.WithClock(clock.Now), cache.WithLocalStore(full, cache.JSONCodec{}))

	cache.Set(ctx, c, "/decks", "payload", cache.WithStorage(cache.StorageLocal))

	stats := c.Stats(ctx)
	assert.Equal(t, 0, stats.LocalStorageSize)
	assert.Equal(t, 1, stats.MemorySize)

	_, ok := cache.Get[string](ctx, c, "/decks", cache.WithStorage(cache.StorageLocal))
	assert.False(t, ok, "the fallback copy is only visible through the memory backend")
	v, ok := cache.Get[string](ctx, c, "/decks", cache.WithStorage(cache.StorageMemory))
	require.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestSet_MissingBackendFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	c := cache.New()

	cache.Set(ctx, c, "/decks", 7, cache.WithStorage(cache.StorageSession))

	assert.Equal(t, cache.Stats{MemorySize: 1}, c.Stats(ctx))
	_, ok := cache.Get[int](ctx, c, "/decks", cache.WithStorage(cache.StorageSession))
	assert.False(t, ok)
}

func TestGet_CorruptPersistedItemIsAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	key, err := cache.CompositeKey(f.cache.Prefix(), "/decks", nil)
	require.NoError(t, err)
	require.NoError(t, f.local.Set(ctx, key, []byte("{not json")))

	_, ok := cache.Get[string](ctx, f.cache, "/decks", cache.WithStorage(cache.StorageLocal))
	assert.False(t, ok)
}

func TestGet_WrongTypeIsAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/decks", "a string")

	_, ok := cache.Get[deck](ctx, f.cache, "/decks")
	assert.False(t, ok)
}

func TestLocalBackend_PersistedShape(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/decks", map[string]int{"count": 3}, cache.WithStorage(cache.StorageLocal), cache.WithTTL(2*time.Second))

	keys, err := f.local.Keys(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{`api_cache_/decks""`}, keys)

	raw, err := f.local.Get(ctx, keys[0])
	require.NoError(t, err)
	expected := fmt.Sprintf(`{"data":{"count":3},"timestamp":%d,"ttl":2000}`, f.clock.Now().UnixMilli())
	assert.JSONEq(t, expected, string(raw))
}

func TestDelete_OnlyTouchesSelectedBackend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/decks", "mem")
	cache.Set(ctx, f.cache, "/decks", "local", cache.WithStorage(cache.StorageLocal))

	f.cache.Delete(ctx, "/decks", cache.WithStorage(cache.StorageLocal))

	_, ok := cache.Get[string](ctx, f.cache, "/decks", cache.WithStorage(cache.StorageLocal))
	assert.False(t, ok)
	v, ok := cache.Get[string](ctx, f.cache, "/decks")
	require.True(t, ok)
	assert.Equal(t, "mem", v)

	f.cache.Delete(ctx, "/never-set")
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	seed := func(f *fixture) {
		for _, storage := range cache.Storages {
			cache.Set(ctx, f.cache, "/decks", "x", cache.WithStorage(storage))
			cache.Set(ctx, f.cache, "/notes", "x", cache.WithStorage(storage))
		}
		require.NoError(t, f.local.Set(ctx, "review_schedule", []byte("{}")))
		require.NoError(t, f.session.Set(ctx, "theme", []byte("dark")))
	}

	t.Run("all", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		f.cache.Clear(ctx)

		assert.Equal(t, cache.Stats{}, f.cache.Stats(ctx))
		_, err := f.local.Get(ctx, "review_schedule")
		assert.NoError(t, err, "non-cache keys survive")
		_, err = f.session.Get(ctx, "theme")
		assert.NoError(t, err)
	})

	t.Run("one backend", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		f.cache.Clear(ctx, cache.StorageLocal)

		assert.Equal(t, cache.Stats{MemorySize: 2, LocalStorageSize: 0, SessionStorageSize: 2}, f.cache.Stats(ctx))
	})
}

func TestCompositeKey(t *testing.T) {
	tests := []struct {
		name   string
		params any
		want   string
	}{
		{name: "no params", params: nil, want: `api_cache_/decks""`},
		{name: "typed nil map", params: map[string]int(nil), want: `api_cache_/decks""`},
		{name: "map", params: map[string]any{"page": 2, "q": "a&b"}, want: `api_cache_/decks{"page":2,"q":"a&b"}`},
		{name: "ordered", params: cache.OrderedParams{{Key: "q", Value: "x"}, {Key: "page", Value: 2}}, want: `api_cache_/decks{"q":"x","page":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cache.CompositeKey("api_cache_", "/decks", tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := cache.CompositeKey("api_cache_", "/decks", map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestParams_MapOrderIsCanonical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cache.Set(ctx, f.cache, "/cards", "first", cache.WithParams(map[string]int{"a": 1, "b": 2}))
	cache.Set(ctx, f.cache, "/cards", "second", cache.WithParams(map[string]int{"b": 2, "a": 1}))

	assert.Equal(t, 1, f.cache.Stats(ctx).MemorySize)
}

func TestParams_OrderedParamsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ab := cache.OrderedParams{{Key: "a", Value: 1}, {Key: "b", Value: 2}}
	ba := cache.OrderedParams{{Key: "b", Value: 2}, {Key: "a", Value: 1}}

	cache.Set(ctx, f.cache, "/cards", "ab", cache.WithParams(ab))
	cache.Set(ctx, f.cache, "/cards", "ba", cache.WithParams(ba))

	assert.Equal(t, 2, f.cache.Stats(ctx).MemorySize, "same members in a different order are distinct entries")
	v, ok := cache.Get[string](ctx, f.cache, "/cards", cache.WithParams(ab))
	require.True(t, ok)
	assert.Equal(t, "ab", v)
}

func TestParseStorage(t *testing.T) {
	for _, s := range []string{"memory", "local", "session"} {
		got, err := cache.ParseStorage(s)
		require.NoError(t, err)
		assert.Equal(t, cache.Storage(s), got)
	}
	_, err := cache.ParseStorage("sessionStorage")
	assert.Error(t, err)
}

func TestWithDefaults(t *testing.T) {
	ctx := context.Background()
	local := memory.NewKVRepository(0)
	c := cache.New(
		cache.WithLocalStore(local, cache.JSONCodec{}),
		cache.WithDefaults(cache.Config{TTL: time.Hour, Storage: cache.StorageLocal}),
	)

	cache.Set(ctx, c, "/decks", json.RawMessage(`[1,2]`))

	assert.Equal(t, 1, c.Stats(ctx).LocalStorageSize)
	v, ok := cache.Get[json.RawMessage](ctx, c, "/decks")
	require.True(t, ok)
	assert.JSONEq(t, `[1,2]`, string(v))
}

var _ repository.KVRepository = (*memory.KVRepository)(nil)
