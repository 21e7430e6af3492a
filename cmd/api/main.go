package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/danmorales/channelstock-backend/api/routes"
	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/internal/orders"
	"github.com/danmorales/channelstock-backend/internal/policy"
	"github.com/danmorales/channelstock-backend/pkg/config"
	"github.com/danmorales/channelstock-backend/pkg/db"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	"github.com/danmorales/channelstock-backend/pkg/migrate"
	"github.com/danmorales/channelstock-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	ledgerRepo := inventory.NewLedgerRepository(conn)
	alertRepo := alerts.NewRepository(conn)
	integrationRepo := integrations.NewRepository(conn)

	checker, err := inventory.NewChecker(inventoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability checker", err)
		os.Exit(1)
	}

	blockService, err := blocks.NewService(dbClient, blocks.NewRepository(conn), inventoryRepo, alertRepo, integrationRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create block service", err)
		os.Exit(1)
	}

	evaluator, err := policy.NewEvaluator(blockService, alertRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create policy evaluator", err)
		os.Exit(1)
	}

	processor, err := orders.NewProcessor(dbClient, orders.NewRepository(conn), inventoryRepo, ledgerRepo, integrationRepo, evaluator, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order processor", err)
		os.Exit(1)
	}

	alertService, err := alerts.NewService(alertRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Idempotency:  redisClient,
			Checker:      checker,
			Ledger:       ledgerRepo,
			Blocks:       blockService,
			Orders:       processor,
			Alerts:       alertService,
			Integrations: integrationRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
