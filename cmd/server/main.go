package main

import (
	"context"
	"time"

	"github.com/atelierhq/atelier/internal/api"
	v1 "github.com/atelierhq/atelier/internal/api/v1"
	"github.com/atelierhq/atelier/internal/cache"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/domain/payment"
	"github.com/atelierhq/atelier/internal/integration/stripe"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/repository"
	"github.com/atelierhq/atelier/internal/service"
	"github.com/atelierhq/atelier/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Atelier Billing API
// @version 1.0
// @description Subscription and plan management for Atelier teams
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Payment provider
			stripe.NewClient,
			provideGateway,

			// Repositories
			repository.NewPlanRepository,
			repository.NewPriceRepository,
			repository.NewSubscriptionRepository,
			repository.NewTeamRepository,
			repository.NewPaymentMethodRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewPlanService,
			service.NewPaymentMethodService,
			service.NewSubscriptionService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideGateway(client *stripe.Client, log *logger.Logger) payment.Gateway {
	return stripe.NewGateway(client, log)
}

func provideHandlers(
	logger *logger.Logger,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(),
		Plan:         v1.NewPlanHandler(planService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
