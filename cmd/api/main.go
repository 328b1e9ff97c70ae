package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopcart/shopcart-backend/api/routes"
	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
	orderssvc "github.com/shopcart/shopcart-backend/internal/orders"
	"github.com/shopcart/shopcart-backend/internal/payments"
	"github.com/shopcart/shopcart-backend/pkg/config"
	"github.com/shopcart/shopcart-backend/pkg/db"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/metrics"
	"github.com/shopcart/shopcart-backend/pkg/migrate"
	"github.com/shopcart/shopcart-backend/pkg/paypal"
	"github.com/shopcart/shopcart-backend/pkg/redis"
	"github.com/shopcart/shopcart-backend/pkg/stripe"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: "shopcart-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, database); err != nil {
		return err
	}

	cache, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer cache.Close()

	policy, err := cartstore.PolicyFromConfig(cfg.Pricing)
	if err != nil {
		return err
	}
	sessions := cartstore.NewSessions(policy, cartstore.NewRedisPersister(cache), logg)

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	providers, err := buildProviders(ctx, cfg, logg)
	if err != nil {
		return err
	}
	registry := payments.NewRegistry(providers, checkoutMetrics, logg)

	ordersService := orderssvc.NewService(
		orderssvc.NewRepository(database.DB()),
		database,
		checkoutMetrics,
		logg,
	)

	router := routes.New(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       database,
		Redis:    cache,
		Sessions: sessions,
		Registry: registry,
		Orders:   ordersService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildProviders wires every payment processor with credentials configured.
// At least one must be available.
func buildProviders(ctx context.Context, cfg *config.Config, logg *logger.Logger) ([]payments.Provider, error) {
	var providers []payments.Provider

	if cfg.Stripe.APIKey != "" {
		if _, err := stripe.NewClient(ctx, cfg.Stripe, logg); err != nil {
			return nil, fmt.Errorf("initializing stripe: %w", err)
		}
		providers = append(providers, payments.NewStripeProvider())
	}

	if cfg.PayPal.ClientID != "" && cfg.PayPal.Secret != "" {
		client, err := paypal.NewClient(cfg.PayPal, logg)
		if err != nil {
			return nil, fmt.Errorf("initializing paypal: %w", err)
		}
		providers = append(providers, payments.NewPayPalProvider(client))
	}

	if len(providers) == 0 {
		return nil, errors.New("no payment provider configured; set stripe or paypal credentials")
	}
	return providers, nil
}
