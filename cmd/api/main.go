package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dogify/api/internal/cache"
	"dogify/api/internal/config"
	"dogify/api/internal/database"
	"dogify/api/internal/handlers"
	"dogify/api/internal/jobs"
	"dogify/api/internal/log"
	"dogify/api/internal/server"
	"dogify/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, orphan queue and share cache disabled")
			redisClient = nil
		}
	}

	var objectStore storage.ObjectStore
	var scheduler *jobs.Scheduler
	if cfg.StorageConfigured() {
		minioStore, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		objectStore = minioStore

		scheduler = jobs.NewScheduler(jobs.NewOrphanQueue(redisClient), objectStore, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	} else {
		logger.Warn().Msg("no object store configured, images will be stored inline")
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, objectStore, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
