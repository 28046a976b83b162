package api

import (
	"context"
	"time"

	"github.com/vytor/studyflash/internal/services"
)

// HealthCheck reports whether one dependency can serve traffic.
type HealthCheck func(ctx context.Context) error

type Server struct {
	Reviews services.ReviewService
	Gateway services.GatewayService
	Cache   services.CacheService
	Timers  services.TimerService

	// Checks are run by /ready, keyed by dependency name.
	Checks         map[string]HealthCheck
	RequestTimeout time.Duration
}
