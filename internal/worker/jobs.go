package worker

import (
	"context"
	"net/url"

	"github.com/vytor/studyflash/internal/logger"
)

// Warmer refreshes one cached upstream response. It is declared here rather
// than imported from services to avoid an import cycle.
type Warmer interface {
	Warm(ctx context.Context, path string, query url.Values) error
}

// WarmCacheJob fetches path from the backend and stores it in the cache.
type WarmCacheJob struct {
	Warmer Warmer
	Path   string
	Query  url.Values
}

func (j *WarmCacheJob) Name() string { return "warm_cache" }

func (j *WarmCacheJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("path", j.Path)
	log.Debug("warming cache")
	if err := j.Warmer.Warm(ctx, j.Path, j.Query); err != nil {
		return err
	}
	log.Debug("cache warmed")
	return nil
}
