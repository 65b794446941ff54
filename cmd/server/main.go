package main

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lojaviva/checkout/internal/api"
	"github.com/lojaviva/checkout/internal/api/handler"
	"github.com/lojaviva/checkout/internal/config"
	"github.com/lojaviva/checkout/internal/domain"
	"github.com/lojaviva/checkout/internal/integration/alert"
	snspub "github.com/lojaviva/checkout/internal/integration/sns"
	"github.com/lojaviva/checkout/internal/logger"
	"github.com/lojaviva/checkout/internal/repository/postgres"
	"github.com/lojaviva/checkout/internal/service"
	"github.com/lojaviva/checkout/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	shutdown, err := telemetry.InitProvider("checkout")
	if err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Event fan-out is optional; without a topic the reconciler just logs.
	var publisher domain.OrderEventPublisher
	if cfg.SNSTopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Fatal("unable to load SDK config", zap.Error(err))
		}
		publisher = snspub.NewClient(awsCfg, cfg.SNSTopicARN)
	}

	// Dependency injection
	orderRepo := postgres.NewOrderRepository(pool)
	notifier := alert.NewClient(cfg.AlertWebhookURL)
	checkoutService := service.NewCheckoutService(orderRepo, notifier, service.PixSettings{
		Key:          cfg.PixKey,
		MerchantName: cfg.MerchantName,
		MerchantCity: cfg.MerchantCity,
	}, cfg.MaxOrderAmountCents)
	reconciler := service.NewReconciler(orderRepo, publisher)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	webhookHandler := handler.NewWebhookHandler(reconciler, handler.WebhookTokens{
		Card: cfg.CardWebhookToken,
		Bank: cfg.BankWebhookToken,
	})

	// Router initialization
	r := api.SetupRouter(checkoutHandler, webhookHandler)

	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}
