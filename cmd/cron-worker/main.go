package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildbazaar/buildbazaar-backend/internal/cron"
	"github.com/buildbazaar/buildbazaar-backend/internal/notifications"
	"github.com/buildbazaar/buildbazaar-backend/internal/offers"
	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/config"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
	"github.com/buildbazaar/buildbazaar-backend/pkg/metrics"
	"github.com/buildbazaar/buildbazaar-backend/pkg/migrate"
	"github.com/buildbazaar/buildbazaar-backend/pkg/redis"
)

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

	cfg.Service.Kind = "cron-worker"

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

	gormDB := dbClient.DB()

	dispatcher, err := notifications.NewLogDispatcher(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewNotifier(notifications.NewRepository(gormDB), dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	settlementsRepo := settlements.NewRepository(gormDB)
	settlementsSvc, err := settlements.NewService(
		settlementsRepo,
		dbClient,
		notifier,
		cfg.Settlement.PlatformFeeRate(),
		cfg.Settlement.TDSRate(),
		nil,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlements service", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewSettlementSweepJob(cron.SettlementSweepJobParams{
		Logger:  logg,
		Builder: settlementsSvc,
		Vendors: settlementsRepo,
		Period:  cfg.Settlement.Period(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement sweep job", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewOfferExpiryJob(cron.OfferExpiryJobParams{
		Logger:   logg,
		Offers:   offers.NewRepository(gormDB),
		Notifier: notifier,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create offer expiry job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(sweepJob)
	registry.Register(expiryJob)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
