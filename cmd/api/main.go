package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/itemregistry/docs/swagger"
	itemMigrations "github.com/ghuser/itemregistry/migrations/item"
	"github.com/ghuser/itemregistry/pkg/app"
	"github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/config"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/events"
	"github.com/ghuser/itemregistry/pkg/httpx"
	"github.com/ghuser/itemregistry/pkg/logger"
	"github.com/ghuser/itemregistry/pkg/migrator"
	"github.com/ghuser/itemregistry/pkg/telemetry"
	itemApi "github.com/ghuser/itemregistry/services/item/application/api"
	itemEvents "github.com/ghuser/itemregistry/services/item/domain/events"
)

// @title			Item Registry API
// @version		1.0
// @description	Catalogue of named items, each classified into a group. A name is unique within its group.
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @host			localhost:8080
// @BasePath		/api
// @schemes		http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err, "driver", cfg.DatabaseDriver)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	defer db.Close()
	log.Info("database connected", "driver", db.Driver())

	if cfg.AutoMigrate {
		files, err := itemMigrations.FS(db.Driver())
		if err != nil {
			log.Error("failed to load migrations", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		if err := migrator.RunMigrations(ctx, db, files, log); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	appConfig := &app.Application{
		Config: cfg,
		Db:     db,
		Logger: log,
	}
	checks := httpx.HealthChecks{Database: db}

	// The outbox lives in PostgreSQL; SQLite deployments run without events.
	if db.Driver() == database.DriverPostgres {
		eventBus, err := events.NewEventBusWithForwarder(db, cfg, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer eventBus.Close() //nolint:errcheck

		if err := eventBus.InitializeTopics(itemEvents.Topics...); err != nil {
			log.Error("failed to initialize event topics", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		if err := eventBus.StartForwarder(ctx); err != nil {
			log.Error("failed to start event forwarder", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		appConfig.EventBus = eventBus
		checks.EventBus = eventBus
	} else {
		log.Info("event bus disabled", "driver", db.Driver())
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		appConfig.Redis = redisClient
		checks.Redis = redisClient
		log.Info("redis connected")
	} else {
		log.Info("item cache disabled")
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			MaxBodyBytes:       cfg.MaxBodyBytes,
			RequestTimeout:     cfg.RequestTimeout,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	r.Get("/health", httpx.HealthHandler(checks))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r, cfg.RequestTimeout)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// registerRoutes mounts all service routes under /api.
// Add each new service's route function here.
func registerRoutes(r chi.Router, a *app.Application) {
	itemApi.ItemRoutes(r, a)
}
