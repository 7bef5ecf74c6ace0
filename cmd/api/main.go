package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/adapter/repo"
	"github.com/Mathiasric/snaptosize-app/internal/analytics"
	"github.com/Mathiasric/snaptosize-app/internal/billing"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/http/handlers"
	httpapi "github.com/Mathiasric/snaptosize-app/internal/http/httpapi"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
	"github.com/Mathiasric/snaptosize-app/internal/infra/geoip"
	"github.com/Mathiasric/snaptosize-app/internal/middleware"
	"github.com/Mathiasric/snaptosize-app/internal/workerapi"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	if err := cfg.RequireGateway(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var worker *workerapi.Client
	if cfg.WorkerBaseURL != "" {
		worker, err = workerapi.NewClient(workerapi.Options{
			BaseURL: cfg.WorkerBaseURL,
			Timeout: cfg.WorkerTimeout,
			Logger:  &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build worker client")
		}
	} else {
		logger.Warn().Msg("WORKER_BASE_URL not set; proxy routes answer 500")
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	var plans domain.PlanRepository
	if dbpool != nil {
		defer dbpool.Close()
		pg := repo.NewPlanRepository(infra.NewSQLRunner(dbpool, logger))
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare plan table")
		}
		plans = pg
	} else {
		logger.Warn().Msg("DATABASE_URL not set; every user is on the free plan")
	}

	events := newAnalytics(cfg, &logger)
	defer events.Flush()

	processor, err := newBillingProcessor(ctx, cfg, plans, events, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up billing")
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()
	var country middleware.CountryLookup
	if resolver != nil {
		country = resolver.CountryCode
	}

	app := handlers.NewApp(handlers.App{
		Worker:        worker,
		Plans:         plans,
		Billing:       processor,
		WebhookSecret: cfg.BillingWebhookSecret,
		Events:        events,
		Logger:        &logger,
	})
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Country:         country,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newAnalytics(cfg *infra.Config, logger *infra.Logger) *analytics.PostHog {
	ph := analytics.NewPostHog(analytics.Options{
		APIKey: cfg.PostHogAPIKey,
		Host:   cfg.PostHogHost,
		Logger: logger,
	})
	if !ph.Enabled() {
		logger.Info().Msg("POSTHOG_API_KEY not set; analytics disabled")
	}
	return ph
}

// newBillingProcessor returns nil when there is no plan store to update.
// Without Redis the idempotency ledger only lives as long as the process.
func newBillingProcessor(ctx context.Context, cfg *infra.Config, plans domain.PlanRepository, events billing.EventSink, logger *infra.Logger) (*billing.Processor, error) {
	if plans == nil {
		return nil, nil
	}
	if cfg.BillingWebhookSecret == "" {
		logger.Warn().Msg("BILLING_WEBHOOK_SECRET not set; webhooks are rejected")
	}

	var ledger domain.EventLedger
	rdb, err := infra.NewRedisClient(ctx, cfg)
	switch {
	case err != nil:
		return nil, err
	case rdb != nil:
		ledger = billing.NewRedisLedger(rdb)
	default:
		logger.Warn().Msg("REDIS_URL not set; webhook idempotency is per process")
		ledger = billing.NewMemoryLedger()
	}

	return billing.NewProcessor(billing.ProcessorOptions{
		Ledger: ledger,
		Plans:  plans,
		Events: events,
		Logger: loggerWith(logger, "billing"),
	})
}

func loggerWith(logger *infra.Logger, component string) *zerolog.Logger {
	l := logger.With().Str("component", component).Logger()
	return &l
}
