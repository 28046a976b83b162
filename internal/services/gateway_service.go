package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"

	"github.com/vytor/studyflash/internal/cache"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/upstream"
)

// GatewayService serves backend GET responses through the response cache.
type GatewayService interface {
	Fetch(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Warm(ctx context.Context, path string, query url.Values) error
}

type gatewayService struct {
	cache    *cache.Cache
	upstream upstream.Fetcher
	cfg      cache.Config
}

// NewGatewayService creates a GatewayService caching with cfg.
func NewGatewayService(c *cache.Cache, fetcher upstream.Fetcher, cfg cache.Config) GatewayService {
	return &gatewayService{cache: c, upstream: fetcher, cfg: cfg}
}

func (s *gatewayService) Fetch(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, err := cache.CachedCall(ctx, s.cache, path, func(ctx context.Context) (json.RawMessage, error) {
		return s.upstream.FetchJSON(ctx, path, query)
	}, s.options(query)...)
	if err != nil {
		return nil, upstreamError(ctx, path, err)
	}
	return body, nil
}

// Warm fetches path and overwrites whatever the cache holds for it.
func (s *gatewayService) Warm(ctx context.Context, path string, query url.Values) error {
	body, err := s.upstream.FetchJSON(ctx, path, query)
	if err != nil {
		return upstreamError(ctx, path, err)
	}
	cache.Set(ctx, s.cache, path, body, s.options(query)...)
	return nil
}

func (s *gatewayService) options(query url.Values) []cache.EntryOption {
	opts := []cache.EntryOption{cache.WithConfig(s.cfg)}
	if len(query) > 0 {
		opts = append(opts, cache.WithParams(map[string][]string(query)))
	}
	return opts
}

func upstreamError(ctx context.Context, path string, err error) error {
	log := logger.FromContext(ctx)

	var httpErr *upstream.HTTPError
	switch {
	case stderrors.Is(err, upstream.ErrInvalidPath):
		return errors.NewBadRequestError(err.Error())
	case stderrors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound:
		return errors.NewNotFoundError("resource", path)
	case stderrors.Is(err, context.Canceled):
		return err
	}
	log.Error("upstream fetch failed: path=%s, err=%v", path, err)
	return errors.NewBadGatewayError(err)
}
