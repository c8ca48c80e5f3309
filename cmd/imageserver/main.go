package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"imageserver/internal/cache"
	"imageserver/internal/catalog"
	"imageserver/internal/codec"
	"imageserver/internal/config"
	"imageserver/internal/convert"
	"imageserver/internal/database"
	"imageserver/internal/events"
	"imageserver/internal/handlers"
	"imageserver/internal/jobs"
	"imageserver/internal/log"
	"imageserver/internal/outbox"
	"imageserver/internal/repository"
	"imageserver/internal/server"
	"imageserver/internal/service"
	"imageserver/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	txm := repository.NewManager(dbPool)

	registry := catalog.NewRegistry(txm.Store(), logger)
	if err := registry.Refresh(ctx); err != nil {
		logger.Fatal().Err(err).Msg("initial catalog load failed")
	}

	queue := convert.NewQueue(cfg.Convert, codec.NewWebpConverter(), objectStore, txm, logger)
	queue.Start(ctx)

	publisher := events.NewKafkaPublisher(cfg.Kafka, logger)

	uploadService := service.NewUploadService(txm, registry, queue, cfg.Storage, logger)
	confirmService := service.NewConfirmService(txm, logger)
	sequenceService := service.NewSequenceService(txm, logger)
	cleanupService := service.NewCleanupService(txm, objectStore, cfg.Cleanup, logger)

	dispatcher := outbox.NewDispatcher(txm, sequenceService, publisher, cfg.Outbox, logger)
	go dispatcher.Run(ctx)

	lock := jobs.NewLock(redisClient, cfg.Cleanup.LockTTL)
	scheduler := jobs.NewScheduler(cleanupService, registry, lock, *cfg, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, dbPool, redisClient, uploadService, confirmService, sequenceService, cleanupService, registry)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(ctx, logger, httpServer, scheduler, queue, publisher, dbPool, redisClient)
}

func waitForShutdown(
	ctx context.Context,
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	queue *convert.Queue,
	publisher *events.KafkaPublisher,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	stopCancel := scheduler.Stop()
	stopCancel()

	queue.Wait()

	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("publisher close error")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
