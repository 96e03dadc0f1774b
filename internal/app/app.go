// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmadesk/rma-qa/internal/assistant"
	"github.com/rmadesk/rma-qa/internal/buildinfo"
	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/config"
	"github.com/rmadesk/rma-qa/internal/dataset"
	"github.com/rmadesk/rma-qa/internal/engine"
	"github.com/rmadesk/rma-qa/internal/genai"
	"github.com/rmadesk/rma-qa/internal/logger"
	"github.com/rmadesk/rma-qa/internal/metrics"
	"github.com/rmadesk/rma-qa/internal/ratelimit"
	"github.com/rmadesk/rma-qa/internal/sentry"
	"github.com/rmadesk/rma-qa/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg        *config.Config
	logger     *logger.Logger
	db         *storage.DB
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	store      *dataset.Store
	processor  *assistant.Processor
	answerer   *genai.FallbackAnswerer
	llmLimiter *ratelimit.KeyedLimiter
	server     *http.Server
	wg         sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(logger.Options{
		Level:            cfg.LogLevel,
		Writer:           os.Stdout,
		BetterStackToken: cfg.BetterStackToken,
	})

	log = log.WithField("service", "rma-qa")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls pick up request_id and client_key
	// through the ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("build", buildinfo.Fields()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.Info("Better Stack logging enabled")
	}

	release := cfg.SentryRelease
	if release == "" {
		release = buildinfo.Release()
	}
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     release,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("host", cfg.SentryHost).Info("Error tracking enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	aliases, err := columns.LoadAliases(cfg.AliasFile)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("aliases: %w", err)
	}

	store := dataset.NewStore(cfg.DatasetPath, m)
	if cfg.DatasetPath != "" {
		if info, err := store.Reload(ctx); err != nil {
			// The service still starts; /api/ask answers 503 until a reload succeeds.
			log.WithError(err).WithField("path", cfg.DatasetPath).Warn("Initial dataset load failed")
		} else {
			log.WithField("rows", info.Rows).WithField("path", info.Path).Info("Dataset loaded")
		}
	} else {
		log.Warn("No dataset path configured")
	}

	if !cfg.HasLLMProvider() {
		log.Info("No LLM API key configured; unrecognized questions get the fixed reply")
	}
	answerer, err := genai.CreateAnswerer(ctx, cfg.LLMConfig(), m)
	if err != nil {
		log.WithError(err).Warn("LLM answerer initialization failed")
	}

	llmLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "llm",
		Burst:         cfg.LLMRateBurst,
		RefillRate:    cfg.LLMRefillPerSecond(),
		DailyLimit:    cfg.LLMDailyLimit,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	processor := assistant.NewProcessor(assistant.ProcessorConfig{
		Engine: engine.New(
			engine.WithTopN(cfg.TopN),
			engine.WithAliases(aliases),
		),
		Source:        store,
		Answerer:      answerer,
		Limiter:       llmLimiter,
		History:       db,
		Logger:        log.WithModule("assistant"),
		Metrics:       m,
		PromptMaxRows: cfg.PromptMaxRows,
		LLMTimeout:    cfg.LLMTimeout,
	})

	app := &Application{
		cfg:        cfg,
		logger:     log,
		db:         db,
		metrics:    m,
		registry:   registry,
		store:      store,
		processor:  processor,
		answerer:   answerer,
		llmLimiter: llmLimiter,
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.WithField("llm_fallback", processor.FallbackEnabled()).Info("Initialization complete")
	return app, nil
}

// newRouter wires middleware and routes.
func (a *Application) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)

	api := router.Group("/api")
	api.POST("/ask", timeoutMiddleware(a.cfg.RequestTimeout), a.handleAsk)
	api.GET("/history", a.handleHistory)
	api.GET("/intents", a.handleIntents)
	api.POST("/dataset/reload", a.operatorAuth("dataset"), a.handleReload)

	router.GET("/metrics", a.operatorAuth("metrics"),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

// operatorAuth guards operator routes with the metrics credentials.
func (a *Application) operatorAuth(realm string) gin.HandlerFunc {
	return basicAuthMiddleware(realm, a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword)
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT or SIGTERM. SIGHUP reloads the dataset without stopping.
//
// Shutdown order:
//  1. Cancel context so background jobs stop
//  2. Wait for background jobs
//  3. Stop the HTTP server and close resources
//
// Jobs finish before the database closes, so a prune in flight never sees
// "sql: database is closed".
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal(ctx)
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.historyPrune(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received, reloading
// the dataset on every SIGHUP in between.
func (a *Application) waitForShutdownSignal(ctx context.Context) os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(quit)

	for sig := range quit {
		if sig != syscall.SIGHUP {
			return sig
		}
		a.reloadDataset(ctx, "signal")
	}
	return nil
}

// reloadDataset re-reads the dataset and logs the outcome.
func (a *Application) reloadDataset(ctx context.Context, trigger string) (dataset.Info, error) {
	info, err := a.store.Reload(ctx)
	entry := a.logger.WithField("trigger", trigger).WithField("path", info.Path)
	if err != nil {
		entry.WithError(err).Error("Dataset reload failed")
		return info, err
	}
	entry.WithField("rows", info.Rows).Info("Dataset reloaded")
	return info, nil
}

// shutdown performs graceful shutdown of HTTP server and resources.
// It must run after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")

	if a.answerer != nil {
		if err := a.answerer.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "answerer").Error("Component close error")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if a.llmLimiter != nil {
		a.llmLimiter.Stop()
	}

	sentry.Flush(config.SentryFlush)

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return nil
}

// historyPrune deletes old question history on startup and then every
// HistoryPruneInterval. A zero retention keeps history forever.
func (a *Application) historyPrune(ctx context.Context) {
	if a.cfg.HistoryRetention <= 0 {
		a.logger.Debug("History pruning disabled")
		return
	}

	a.logger.Debug("History prune job started")
	defer a.logger.Debug("History prune job stopped")

	a.runHistoryPrune(ctx)

	ticker := time.NewTicker(config.HistoryPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("History prune received shutdown signal")
			return
		case <-ticker.C:
			a.runHistoryPrune(ctx)
		}
	}
}

// runHistoryPrune performs one prune pass.
func (a *Application) runHistoryPrune(ctx context.Context) {
	start := time.Now()
	cutoff := start.Add(-a.cfg.HistoryRetention)

	deleted, err := a.db.PruneQuestions(ctx, cutoff)
	if err != nil {
		a.logger.WithError(err).Error("Failed to prune question history")
		return
	}
	a.logger.WithField("deleted", deleted).
		WithField("cutoff", cutoff.Format(time.RFC3339)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Question history pruned")
}
