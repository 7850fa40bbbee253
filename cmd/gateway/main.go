package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/config"
	"github.com/suryadigit/affiliate-gateway/internal/handler"
	"github.com/suryadigit/affiliate-gateway/internal/infra/bus"
	"github.com/suryadigit/affiliate-gateway/internal/infra/cache"
	"github.com/suryadigit/affiliate-gateway/internal/infra/kvstore"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"
	"github.com/suryadigit/affiliate-gateway/internal/infra/report"
	"github.com/suryadigit/affiliate-gateway/internal/infra/resilience"
	"github.com/suryadigit/affiliate-gateway/internal/infra/token"
	"github.com/suryadigit/affiliate-gateway/internal/infra/upstream"
	"github.com/suryadigit/affiliate-gateway/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("upstream_url", cfg.UpstreamURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("dashboard_cache_ttl", cfg.DashboardCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("state_file", cfg.StateFile),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "affiliate-gateway")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Persistence and caches ---
	kv := kvstore.Open(cfg.StateFile, logger)
	tokens := token.NewStore(kv, cfg.TokenStorageKey)
	menuCache := cache.NewMenuCache()

	// --- Eventing and error reporting ---
	changeBus := bus.New()
	reporter := report.NewReporter(cfg.ErrorLogSize, logger)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("affiliate-api")

	// --- Upstream client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api := upstream.NewClient(httpClient, cfg.UpstreamURL, cb, resilienceCfg, logger)

	// --- Services ---
	menuSvc := service.NewMenuService(api, menuCache, kv, metrics, logger)
	dashboardSvc := service.NewDashboardService(api, cfg.DashboardCacheTTL, metrics, logger)
	prefs := service.NewPreferencesStore(kv, changeBus)
	controller := service.NewSessionController(
		api, tokens, kv, changeBus, prefs, metrics, logger,
		cfg.HTTPTimeout,
		menuSvc, dashboardSvc,
	)
	adminSvc := service.NewAdminService(api, dashboardSvc, logger)

	// --- Restore persisted sessions (fail-closed) ---
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	controller.RestoreAll(restoreCtx)
	cancelRestore()
	logger.Info("sessions restored", zap.Int("count", controller.Sessions()))

	// --- Handlers ---
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(controller, prefs, reporter, logger),
		Menu:      handler.NewMenuHandler(menuSvc, logger),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, controller, reporter, logger),
		Admin:     handler.NewAdminHandler(adminSvc, controller, metrics, reporter, logger),
		Events:    handler.NewEventsHandler(changeBus, metrics, logger),
	}

	// --- Router ---
	router := handler.NewRouter(cfg, handlers, handler.SessionMiddleware(controller), metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// WriteTimeout must stay generous: /v1/events holds the
		// connection open for server-sent events.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
