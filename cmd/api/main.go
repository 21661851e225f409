package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/buildbazaar/buildbazaar-backend/api/controllers"
	"github.com/buildbazaar/buildbazaar-backend/api/routes"
	"github.com/buildbazaar/buildbazaar-backend/internal/delivery"
	"github.com/buildbazaar/buildbazaar-backend/internal/disputes"
	"github.com/buildbazaar/buildbazaar-backend/internal/notifications"
	"github.com/buildbazaar/buildbazaar-backend/internal/offers"
	"github.com/buildbazaar/buildbazaar-backend/internal/orders"
	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/config"
	"github.com/buildbazaar/buildbazaar-backend/pkg/db"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
	"github.com/buildbazaar/buildbazaar-backend/pkg/migrate"
	"github.com/buildbazaar/buildbazaar-backend/pkg/redis"
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

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{
		"postgres": dbClient,
		"redis":    redisClient,
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, readiness, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	dispatcher, err := notifications.NewLogDispatcher(logg)
	if err != nil {
		return routes.Services{}, err
	}
	notifier, err := notifications.NewNotifier(notifications.NewRepository(gormDB), dispatcher, logg)
	if err != nil {
		return routes.Services{}, err
	}
	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(gormDB), dbClient, notifier, cfg.Settlement.PlatformFeeRate(), nil)
	if err != nil {
		return routes.Services{}, err
	}

	offersSvc, err := offers.NewService(offers.NewRepository(gormDB), dbClient, notifier, nil)
	if err != nil {
		return routes.Services{}, err
	}

	otpIssuer, err := delivery.NewOTPIssuer(redisClient, cfg.Delivery.OTPTTL)
	if err != nil {
		return routes.Services{}, err
	}
	deliverySvc, err := delivery.NewService(delivery.NewRepository(gormDB), dbClient, otpIssuer, notifier, nil)
	if err != nil {
		return routes.Services{}, err
	}

	disputesSvc, err := disputes.NewService(disputes.NewRepository(gormDB), dbClient, notifier, nil)
	if err != nil {
		return routes.Services{}, err
	}

	settlementsSvc, err := settlements.NewService(
		settlements.NewRepository(gormDB),
		dbClient,
		notifier,
		cfg.Settlement.PlatformFeeRate(),
		cfg.Settlement.TDSRate(),
		nil,
	)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Orders:        ordersSvc,
		Offers:        offersSvc,
		Delivery:      deliverySvc,
		Disputes:      disputesSvc,
		Settlements:   settlementsSvc,
		Notifications: notificationsSvc,
	}, nil
}
