package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vytor/studyflash/internal/api"
	"github.com/vytor/studyflash/internal/cache"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/repository/memory"
	"github.com/vytor/studyflash/internal/repository/redis"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/review"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/timer"
	"github.com/vytor/studyflash/internal/upstream"
	"github.com/vytor/studyflash/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("redis_addr=%s", cfg.RedisAddr)
	log.Debug("upstream_base_url=%s", cfg.UpstreamBaseURL)
	log.Debug("cache_ttl=%s cache_max_size=%d cache_storage=%s", cfg.CacheTTL, cfg.CacheMaxSize, cfg.CacheStorage)
	log.Debug("warm_worker_count=%d warm_queue_size=%d", cfg.WarmWorkerCount, cfg.WarmQueueSize)

	loc, _ := cfg.Location()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	checks := map[string]api.HealthCheck{
		"db": database.PingContext,
	}

	localStore := sqlite.NewKVRepository(database.DB)

	var sessionStore repository.KVRepository
	var sessionCodec cache.Codec = cache.JSONCodec{}
	if cfg.RedisAddr != "" {
		redisRepo, err := redis.NewKVRepository(redis.Options{
			RedisOptions: &goredis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			},
			Namespace: cfg.RedisNamespace,
		})
		if err != nil {
			log.Error("failed to create redis client: %v", err)
			os.Exit(1)
		}
		defer redisRepo.Close()
		if err := redisRepo.Ping(context.Background()); err != nil {
			log.Warn("redis not reachable yet: %v", err)
		}
		sessionStore = redisRepo
		sessionCodec = cache.MsgpackCodec{}
		checks["redis"] = redisRepo.Ping
		log.Info("session cache backed by redis at %s", cfg.RedisAddr)
	} else {
		sessionStore = memory.NewKVRepository(0)
		log.Info("REDIS_ADDR not set, session cache is in-process")
	}

	storage, _ := cache.ParseStorage(cfg.CacheStorage)
	cacheCfg := cache.Config{TTL: cfg.CacheTTL, MaxSize: cfg.CacheMaxSize, Storage: storage}
	responseCache := cache.New(
		cache.WithPrefix(cfg.CachePrefix),
		cache.WithDefaults(cacheCfg),
		cache.WithLocalStore(localStore, cache.JSONCodec{}),
		cache.WithSessionStore(sessionStore, sessionCodec),
	)

	scheduler := review.NewScheduler(localStore,
		review.WithKey(cfg.ScheduleKey),
		review.WithLocation(loc),
	)

	client, err := upstream.New(upstream.Options{
		BaseURL:   cfg.UpstreamBaseURL,
		Token:     cfg.UpstreamToken,
		Timeout:   cfg.UpstreamTimeout,
		UserAgent: "studyflash",
	})
	if err != nil {
		log.Error("failed to create upstream client: %v", err)
		os.Exit(1)
	}

	timers, err := timer.NewManager(timer.DefaultConfig())
	if err != nil {
		log.Error("failed to create timer manager: %v", err)
		os.Exit(1)
	}

	gatewayService := services.NewGatewayService(responseCache, client, cacheCfg)

	warmPool := worker.NewPool(cfg.WarmWorkerCount, cfg.WarmQueueSize)
	queue := jobs.NewWorkerQueue(warmPool, gatewayService)

	cacheService := services.NewCacheService(responseCache, queue)

	srv := &api.Server{
		Reviews:        services.NewReviewService(scheduler, nil),
		Gateway:        gatewayService,
		Cache:          cacheService,
		Timers:         services.NewTimerService(timers, nil),
		Checks:         checks,
		RequestTimeout: cfg.UpstreamTimeout * 2,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	warmPool.Start(ctx)

	if len(cfg.WarmPaths) > 0 {
		if n, err := cacheService.Warm(ctx, cfg.WarmPaths); err != nil {
			log.Warn("queued %d of %d startup warm paths: %v", n, len(cfg.WarmPaths), err)
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout*2 + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping warm pool")
	warmPool.Stop()

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped")
	log.Info("===========================================")
}
