// Package cache memoizes backend responses under a composite key with a
// per-item TTL. Items live in one of three backends chosen per call: an
// in-process memory store with capacity eviction, a persistent local store,
// and a session store. Failures never reach the caller; a write the chosen
// backend rejects lands in memory instead, and an unreadable item is a miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository"
)

// Storage selects a backend.
type Storage string

const (
	StorageMemory  Storage = "memory"
	StorageLocal   Storage = "local"
	StorageSession Storage = "session"
)

// Storages lists every backend in Clear order.
var Storages = []Storage{StorageMemory, StorageLocal, StorageSession}

// ParseStorage validates a backend name.
func ParseStorage(s string) (Storage, error) {
	switch st := Storage(s); st {
	case StorageMemory, StorageLocal, StorageSession:
		return st, nil
	}
	return "", fmt.Errorf("unknown cache storage %q", s)
}

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 100
	DefaultPrefix  = "api_cache_"
)

// Config is the per-call cache configuration.
type Config struct {
	TTL     time.Duration
	MaxSize int
	Storage Storage
}

// DefaultConfig returns ttl 5m, maxSize 100, memory storage.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL, MaxSize: DefaultMaxSize, Storage: StorageMemory}
}

type entryOptions struct {
	Config
	params any
}

// EntryOption overrides one field of the configuration for a single call.
type EntryOption func(*entryOptions)

func WithTTL(ttl time.Duration) EntryOption {
	return func(o *entryOptions) { o.TTL = ttl }
}

func WithMaxSize(n int) EntryOption {
	return func(o *entryOptions) { o.MaxSize = n }
}

func WithStorage(s Storage) EntryOption {
	return func(o *entryOptions) { o.Storage = s }
}

// WithParams adds request parameters to the composite key.
func WithParams(params any) EntryOption {
	return func(o *entryOptions) { o.params = params }
}

// WithConfig replaces TTL, MaxSize and Storage at once.
func WithConfig(cfg Config) EntryOption {
	return func(o *entryOptions) { o.Config = cfg }
}

type backend struct {
	repo  repository.KVRepository
	codec Codec
}

// Cache is safe for concurrent use. Construct one per process and share it.
type Cache struct {
	prefix   string
	defaults Config
	memory   *memoryStore
	backends map[Storage]backend
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures a Cache.
type Option func(*Cache)

// WithLocalStore sets the persistent backend.
func WithLocalStore(repo repository.KVRepository, codec Codec) Option {
	return func(c *Cache) { c.backends[StorageLocal] = backend{repo: repo, codec: codec} }
}

// WithSessionStore sets the session backend.
func WithSessionStore(repo repository.KVRepository, codec Codec) Option {
	return func(c *Cache) { c.backends[StorageSession] = backend{repo: repo, codec: codec} }
}

// WithPrefix sets the reserved key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithDefaults sets the configuration calls start from.
func WithDefaults(cfg Config) Option {
	return func(c *Cache) { c.defaults = cfg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTracer overrides the OpenTelemetry tracer used by CachedCall.
func WithTracer(t trace.Tracer) Option {
	return func(c *Cache) { c.tracer = t }
}

// New creates a Cache. Without WithLocalStore/WithSessionStore those backends
// behave like a disabled storage area.
func New(opts ...Option) *Cache {
	c := &Cache{
		prefix:   DefaultPrefix,
		defaults: DefaultConfig(),
		memory:   newMemoryStore(),
		backends: make(map[Storage]backend),
		now:      time.Now,
		tracer:   otel.Tracer("github.com/vytor/studyflash/internal/cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prefix returns the reserved key prefix.
func (c *Cache) Prefix() string {
	return c.prefix
}

func (c *Cache) resolve(opts []EntryOption) entryOptions {
	o := entryOptions{Config: c.defaults}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Storage == "" {
		o.Storage = StorageMemory
	}
	return o
}

func (c *Cache) key(key string, o entryOptions) (string, error) {
	return CompositeKey(c.prefix, key, o.params)
}

func ctxLog(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx).WithPrefix("cache")
}

// Set stores data under key. It never fails from the caller's point of view.
func Set[T any](ctx context.Context, c *Cache, key string, data T, opts ...EntryOption) {
	o := c.resolve(opts)
	ckey, err := c.key(key, o)
	if err != nil {
		ctxLog(ctx).Warn("not caching %s: %v", key, err)
		return
	}
	now := c.now()
	c.store(ctx, ckey, Item[any]{Data: data, Timestamp: now.UnixMilli(), TTL: o.TTL.Milliseconds()}, o.Config, now)
}

func (c *Cache) store(ctx context.Context, ckey string, item Item[any], cfg Config, now time.Time) {
	if cfg.Storage != StorageMemory {
		err := c.write(ctx, cfg.Storage, ckey, item)
		if err == nil {
			return
		}
		ctxLog(ctx).Warn("%s write failed for %s, falling back to memory: %v", cfg.Storage, ckey, err)
	}
	if n := c.memory.put(ckey, item, cfg.MaxSize, now); n > 0 {
		ctxLog(ctx).Debug("evicted %d memory items", n)
	}
}

func (c *Cache) write(ctx context.Context, storage Storage, ckey string, item Item[any]) error {
	b, ok := c.backends[storage]
	if !ok {
		return ErrNoBackend
	}
	data, err := b.codec.Marshal(item)
	if err != nil {
		return fmt.Errorf("%s encode: %w", b.codec.Name(), err)
	}
	return b.repo.Set(ctx, ckey, data)
}

// lookup reads an item without checking expiry.
func lookup[T any](ctx context.Context, c *Cache, storage Storage, ckey string) (Item[T], error) {
	var item Item[T]
	if storage == StorageMemory {
		raw, ok := c.memory.get(ckey)
		if !ok {
			return item, ErrMiss
		}
		data, ok := raw.Data.(T)
		if !ok && raw.Data != nil {
			return item, fmt.Errorf("%w: holds %T", ErrCorrupt, raw.Data)
		}
		return Item[T]{Data: data, Timestamp: raw.Timestamp, TTL: raw.TTL}, nil
	}

	b, ok := c.backends[storage]
	if !ok {
		return item, ErrNoBackend
	}
	data, err := b.repo.Get(ctx, ckey)
	if errors.Is(err, repository.ErrNotFound) {
		return item, ErrMiss
	}
	if err != nil {
		return item, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := b.codec.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return item, nil
}

// Get returns the cached value for key, or false when it is absent, expired
// or unreadable. Expired items are removed.
func Get[T any](ctx context.Context, c *Cache, key string, opts ...EntryOption) (T, bool) {
	var zero T
	o := c.resolve(opts)
	ckey, err := c.key(key, o)
	if err != nil {
		return zero, false
	}

	item, err := lookup[T](ctx, c, o.Storage, ckey)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			ctxLog(ctx).Debug("treating %s as absent: %v", ckey, err)
		}
		return zero, false
	}
	if item.Expired(c.now()) {
		ctxLog(ctx).Debug("%s: %v", ckey, ErrExpired)
		c.remove(ctx, o.Storage, ckey)
		return zero, false
	}
	return item.Data, true
}

// Delete removes key from the one backend the options select.
func (c *Cache) Delete(ctx context.Context, key string, opts ...EntryOption) {
	o := c.resolve(opts)
	ckey, err := c.key(key, o)
	if err != nil {
		return
	}
	c.remove(ctx, o.Storage, ckey)
}

func (c *Cache) remove(ctx context.Context, storage Storage, ckey string) {
	if storage == StorageMemory {
		c.memory.remove(ckey)
		return
	}
	b, ok := c.backends[storage]
	if !ok {
		return
	}
	if err := b.repo.Remove(ctx, ckey); err != nil {
		ctxLog(ctx).Warn("failed to remove %s from %s: %v", ckey, storage, err)
	}
}

// Clear empties the given backends, or all of them when none is given.
// Persistent backends only lose keys carrying the cache prefix.
func (c *Cache) Clear(ctx context.Context, storages ...Storage) {
	if len(storages) == 0 {
		storages = Storages
	}
	for _, storage := range storages {
		if storage == StorageMemory {
			c.memory.purge()
			continue
		}
		b, ok := c.backends[storage]
		if !ok {
			continue
		}
		keys, err := b.repo.Keys(ctx, c.prefix)
		if err != nil {
			ctxLog(ctx).Warn("failed to list %s keys: %v", storage, err)
			continue
		}
		for _, k := range keys {
			if err := b.repo.Remove(ctx, k); err != nil {
				ctxLog(ctx).Warn("failed to remove %s from %s: %v", k, storage, err)
			}
		}
		ctxLog(ctx).Debug("cleared %d %s keys", len(keys), storage)
	}
}

// Stats counts items per backend.
type Stats struct {
	MemorySize         int `json:"memorySize"`
	LocalStorageSize   int `json:"localStorageSize"`
	SessionStorageSize int `json:"sessionStorageSize"`
}

func (c *Cache) Stats(ctx context.Context) Stats {
	return Stats{
		MemorySize:         c.memory.len(),
		LocalStorageSize:   c.count(ctx, StorageLocal),
		SessionStorageSize: c.count(ctx, StorageSession),
	}
}

func (c *Cache) count(ctx context.Context, storage Storage) int {
	b, ok := c.backends[storage]
	if !ok {
		return 0
	}
	keys, err := b.repo.Keys(ctx, c.prefix)
	if err != nil {
		ctxLog(ctx).Warn("failed to count %s keys: %v", storage, err)
		return 0
	}
	return len(keys)
}
