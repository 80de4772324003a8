package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/bespoke/internal"
	"github.com/dukerupert/bespoke/internal/address"
	"github.com/dukerupert/bespoke/internal/auth"
	"github.com/dukerupert/bespoke/internal/cookie"
	"github.com/dukerupert/bespoke/internal/events"
	"github.com/dukerupert/bespoke/internal/handler/admin"
	"github.com/dukerupert/bespoke/internal/handler/storefront"
	"github.com/dukerupert/bespoke/internal/jobs"
	"github.com/dukerupert/bespoke/internal/middleware"
	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/router"
	"github.com/dukerupert/bespoke/internal/routes"
	"github.com/dukerupert/bespoke/internal/service"
	"github.com/dukerupert/bespoke/internal/telemetry"
	"github.com/dukerupert/bespoke/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Error tracking and tracing
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("tracing initialization failed: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// Run migrations
	if cfg.Database.AutoMigrate {
		logger.Info("Running database migrations...")
		if err := internal.RunMigrations(ctx, cfg.Database.URL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database migrations completed successfully")
	}

	// Initialize pgx connection pool for application
	logger.Info("Connecting to database...")
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connection established")

	store := postgres.NewStore(pool)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewMetrics("bespoke", registry)
	businessMetrics := telemetry.NewBusinessMetrics("bespoke", registry)

	// Order events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		conn, err := events.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer conn.Drain()
		publisher = events.NewNATSPublisher(conn, cfg.NATS.SubjectPrefix)
		logger.Info("Publishing order events to NATS", "prefix", cfg.NATS.SubjectPrefix)
	}

	// Initialize services
	var policy service.TransitionPolicy = service.PermissiveTransitions{}
	if cfg.Orders.StrictTransitions {
		policy = service.StrictTransitions()
	}
	cartService := service.NewCartService(store, service.CartConfig{ReleaseOnRemove: cfg.Cart.ReleaseOnRemove}, businessMetrics, logger)
	orderService := service.NewOrderService(store, address.NewBasicValidator(), publisher, businessMetrics, logger)
	fulfillmentService := service.NewFulfillmentService(store, policy, publisher, businessMetrics, logger)
	catalog := postgres.NewCatalog(store)

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}
	cookies := cookie.NewConfig(cfg.Auth.CookieDomain, cfg.Auth.CookieSecure)

	// Rate limiting for order placement
	var orderRateLimit router.Middleware
	if cfg.RateLimit.Enabled {
		limitCfg := middleware.StrictRateLimiterConfig()
		limitCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limitCfg.BurstSize = cfg.RateLimit.Burst

		var limiter middleware.LimiterStore
		if cfg.Redis.URL != "" {
			client, err := middleware.ConnectRedis(ctx, cfg.Redis.URL)
			if err != nil {
				return fmt.Errorf("redis connection failed: %w", err)
			}
			defer client.Close()
			limiter = middleware.NewRedisLimiterStore(client, "bespoke:ratelimit:orders", limitCfg)
			logger.Info("Using shared rate limiter", "store", "redis")
		} else {
			local := middleware.NewRateLimiter(limitCfg)
			defer local.Stop()
			limiter = local
		}
		orderRateLimit = middleware.RateLimit(limiter, limitCfg.KeyFunc, logger)
	}

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env != "prod" {
		securityConfig.HSTSMaxAge = 0
	}

	// Create router with global middleware
	r := router.New(
		middleware.RequestID,
		middleware.WithClientIP(cfg.Server.TrustProxy),
		router.Recovery(logger),
		middleware.SecurityHeaders(securityConfig),
		httpMetrics.Middleware,
		telemetry.SentryMiddleware(),
		middleware.WithIdentity(tokens, cookies),
		telemetry.SentryContextMiddleware(middleware.SentryIdentity),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		middleware.MaxBodySize(),
		middleware.Timeout(),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{Database: store, Gatherer: registry})
	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		ProductHandler: storefront.NewProductHandler(catalog),
		CartHandler:    storefront.NewCartHandler(cartService, cookies),
		OrderHandler:   storefront.NewOrderHandler(orderService, fulfillmentService),
		OrderRateLimit: orderRateLimit,
	})
	routes.RegisterAdminRoutes(r, routes.AdminDeps{
		OrderHandler: admin.NewOrderHandler(fulfillmentService),
	})

	// CORS wraps the mux so preflight requests reach it
	var h http.Handler = r
	if len(cfg.Server.AllowedOrigins) > 0 {
		h = router.CORS(cfg.Server.AllowedOrigins)(r)
	}

	// Background work
	sweeper := jobs.NewHoldSweeper(store, jobs.HoldSweeperConfig{TTL: cfg.Cart.HoldTTL}, businessMetrics, logger)
	bg := worker.NewWorker(worker.Config{}, logger, worker.Task{
		Name:     jobs.JobTypeReleaseExpiredHolds,
		Interval: sweepInterval(cfg.Cart),
		Run: func(ctx context.Context) error {
			_, err := sweeper.Run(ctx)
			return err
		},
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = bg.Start(ctx)
	}()

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-workerDone

	return nil
}

// sweepInterval disables the sweeper when no hold TTL is configured.
func sweepInterval(cfg internal.CartConfig) time.Duration {
	if cfg.HoldTTL <= 0 {
		return 0
	}
	return cfg.SweepInterval
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
