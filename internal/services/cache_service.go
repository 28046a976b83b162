package services

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"

	"github.com/vytor/studyflash/internal/cache"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
)

// CacheService exposes cache maintenance
type CacheService interface {
	Stats(ctx context.Context) cache.Stats
	Clear(ctx context.Context, storage string) error
	Warm(ctx context.Context, paths []string) (int, error)
}

type cacheService struct {
	cache *cache.Cache
	queue jobs.JobQueue
}

// NewCacheService creates a new CacheService
func NewCacheService(c *cache.Cache, queue jobs.JobQueue) CacheService {
	return &cacheService{cache: c, queue: queue}
}

func (s *cacheService) Stats(ctx context.Context) cache.Stats {
	return s.cache.Stats(ctx)
}

// Clear empties one backend, or all of them when storage is empty.
func (s *cacheService) Clear(ctx context.Context, storage string) error {
	if storage == "" {
		s.cache.Clear(ctx)
		logger.FromContext(ctx).Info("cleared all cache backends")
		return nil
	}
	st, err := cache.ParseStorage(storage)
	if err != nil {
		return errors.NewValidationError("storage", "must be one of memory, local, session")
	}
	s.cache.Clear(ctx, st)
	logger.FromContext(ctx).Info("cleared %s cache", st)
	return nil
}

// Warm queues a refresh for each path and returns how many were queued.
// A path may carry a query string; it is split off so the warmed entry
// shares its key with the proxied request.
func (s *cacheService) Warm(ctx context.Context, paths []string) (int, error) {
	log := logger.FromContext(ctx)

	if len(paths) == 0 {
		return 0, errors.NewValidationError("paths", "must not be empty")
	}
	queued := 0
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		path, query, err := splitWarmPath(p)
		if err != nil {
			return queued, errors.NewValidationError("paths", err.Error())
		}
		if err := s.queue.EnqueueWarm(path, query); err != nil {
			log.Warn("failed to enqueue warm job: path=%s, err=%v", p, err)
			return queued, errors.NewUnavailableError("warm queue is not accepting jobs", err)
		}
		queued++
	}
	log.Debug("queued %d warm jobs", queued)
	return queued, nil
}

func splitWarmPath(raw string) (string, url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, err
	}
	if u.Scheme != "" || u.Host != "" {
		return "", nil, stderrors.New("must be a path, not a URL: " + raw)
	}
	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if u.RawQuery == "" {
		return path, nil, nil
	}
	return path, u.Query(), nil
}
