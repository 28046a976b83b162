package cache

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fetcher loads a fresh value, typically from the study backend.
type Fetcher[T any] func(ctx context.Context) (T, error)

// CachedCall returns the cached value for key while it is fresh. Otherwise it
// calls fetch and caches the result. When fetch fails and any copy of key is
// still stored, expired or not, that copy is returned instead of the error.
//
// Concurrent calls for the same missing key each call fetch; the last write wins.
func CachedCall[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], opts ...EntryOption) (T, error) {
	o := c.resolve(opts)

	ctx, span := c.tracer.Start(ctx, "cache.CachedCall", trace.WithAttributes(
		attribute.String("cache.key", key),
		attribute.String("cache.storage", string(o.Storage)),
	))
	defer span.End()

	log := ctxLog(ctx)

	ckey, keyErr := c.key(key, o)
	if keyErr == nil {
		// Expired items are left in place here so the fallback below can use them.
		item, err := lookup[T](ctx, c, o.Storage, ckey)
		if err == nil && !item.Expired(c.now()) {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			log.Debug("cache hit: %s", ckey)
			return item.Data, nil
		}
	} else {
		log.Warn("caching disabled for %s: %v", key, keyErr)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	data, err := fetch(ctx)
	if err == nil {
		if keyErr == nil {
			now := c.now()
			c.store(ctx, ckey, Item[any]{Data: data, Timestamp: now.UnixMilli(), TTL: o.TTL.Milliseconds()}, o.Config, now)
		}
		return data, nil
	}

	if keyErr == nil {
		if stale, lerr := lookup[T](ctx, c, o.Storage, ckey); lerr == nil {
			span.SetAttributes(attribute.Bool("cache.stale", true))
			log.Warn("fetch failed for %s, serving stale copy: %v", key, err)
			return stale.Data, nil
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	var zero T
	return zero, err
}
