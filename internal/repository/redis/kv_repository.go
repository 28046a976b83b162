package redis

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/extra/redisotel/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository"
)

// Options configures a Redis-backed KV repository.
//
// Namespace is prepended to every key as "namespace:key". ScanCount is the
// COUNT hint for SCAN; zero lets Redis choose.
type Options struct {
	RedisOptions *goredis.Options
	Namespace    string
	ScanCount    int64
}

// KVRepository stores values in Redis without expiry.
type KVRepository struct {
	client    *goredis.Client
	namespace string
	scanCount int64
}

var _ repository.KVRepository = (*KVRepository)(nil)

// NewKVRepository connects a client and instruments it with OpenTelemetry.
func NewKVRepository(options Options) (*KVRepository, error) {
	if options.RedisOptions == nil {
		return nil, errors.New("redis options are required")
	}
	client := goredis.NewClient(options.RedisOptions)

	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(client); err != nil {
		client.Close()
		return nil, err
	}

	return &KVRepository{
		client:    client,
		namespace: options.Namespace,
		scanCount: options.ScanCount,
	}, nil
}

func (r *KVRepository) storageKey(key string) string {
	if r.namespace == "" {
		return key
	}
	return r.namespace + ":" + key
}

func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.storageKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("redis_kv").Error("failed to get key %s: %v", key, err)
		return nil, err
	}
	return data, nil
}

func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.storageKey(key), value, 0).Err(); err != nil {
		logger.FromContext(ctx).WithPrefix("redis_kv").Error("failed to set key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.storageKey(key)).Err()
}

func (r *KVRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := r.storageKey(escapeGlob(prefix)) + "*"
	trim := r.storageKey("")

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, r.scanCount).Result()
		if err != nil {
			logger.FromContext(ctx).WithPrefix("redis_kv").Error("failed to scan keys with prefix %q: %v", prefix, err)
			return nil, err
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, trim))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Ping checks the connection.
func (r *KVRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *KVRepository) Close() error {
	return r.client.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
