package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/internal/schedulers/unblock"
	"github.com/danmorales/channelstock-backend/pkg/config"
	"github.com/danmorales/channelstock-backend/pkg/db"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	"github.com/danmorales/channelstock-backend/pkg/metrics"
	"github.com/danmorales/channelstock-backend/pkg/migrate"
	"github.com/danmorales/channelstock-backend/pkg/redis"
)

const lockKeyFormat = "cs:unblock-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	inventoryRepo := inventory.NewRepository(conn)
	blockService, err := blocks.NewService(
		dbClient,
		blocks.NewRepository(conn),
		inventoryRepo,
		alerts.NewRepository(conn),
		integrations.NewRepository(conn),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create block service", err)
		os.Exit(1)
	}

	lock, err := unblock.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	worker, err := unblock.NewWorker(unblock.WorkerParams{
		Logger:        logg,
		InventoryRepo: inventoryRepo,
		BlockService:  blockService,
		Metrics:       metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Lock:          lock,
		Config:        cfg.Unblock,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create unblock worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting unblock worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "unblock worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "unblock worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
