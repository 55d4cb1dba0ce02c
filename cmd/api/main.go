package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/propdesk/propdesk-backend/api/routes"
	billingsvc "github.com/propdesk/propdesk-backend/internal/billing"
	"github.com/propdesk/propdesk-backend/internal/subscriptions"
	cryptopaywebhook "github.com/propdesk/propdesk-backend/internal/webhooks/cryptopay"
	"github.com/propdesk/propdesk-backend/pkg/config"
	"github.com/propdesk/propdesk-backend/pkg/cryptopay"
	"github.com/propdesk/propdesk-backend/pkg/db"
	"github.com/propdesk/propdesk-backend/pkg/logger"
	"github.com/propdesk/propdesk-backend/pkg/metrics"
	"github.com/propdesk/propdesk-backend/pkg/migrate"
	"github.com/propdesk/propdesk-backend/pkg/redis"
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

	repo := billingsvc.NewRepository(dbClient.DB())

	processor, err := cryptopay.NewClient(
		cfg.Cryptopay.APIKey,
		cryptopay.WithBaseURL(cfg.Cryptopay.BaseURL),
		cryptopay.WithTimeout(cfg.Cryptopay.RequestTimeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cryptopay client", err)
		os.Exit(1)
	}

	paymentService, err := billingsvc.NewService(billingsvc.ServiceParams{
		Repo:             repo,
		Processor:        processor,
		Logger:           logg,
		ProcessorTimeout: cfg.Cryptopay.RequestTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              repo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	webhookService, err := cryptopaywebhook.NewService(cryptopaywebhook.ServiceParams{
		Repo:      repo,
		Activator: subscriptionService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			paymentService,
			subscriptionService,
			webhookService,
			webhookMetrics,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
