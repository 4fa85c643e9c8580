package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/build-a-merch-store/review-gateway/internal/config"
	handler "github.com/build-a-merch-store/review-gateway/internal/handler/http"
	"github.com/build-a-merch-store/review-gateway/internal/reviews"
	"github.com/build-a-merch-store/review-gateway/pkg/health"
	"github.com/build-a-merch-store/review-gateway/pkg/httpclient"
	"github.com/build-a-merch-store/review-gateway/pkg/middleware"
	"github.com/build-a-merch-store/review-gateway/pkg/tracing"
)

// App wires together all dependencies and runs the review gateway.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize tracing. A disabled config yields a no-op shutdown.
	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "review-gateway",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Build the dependency graph: pooled HTTP client, remote reviews client,
	// fallback generator, and the resilient repository on top.
	client := reviews.NewClient(
		httpclient.New(httpclient.Config{
			Timeout:         cfg.ReviewsTimeout() + 5*time.Second,
			MaxConnsPerHost: 100,
		}),
		reviews.ClientConfig{
			BaseURL:      cfg.ReviewsAPIBaseURL,
			APIKey:       cfg.ReviewsAPIKey,
			APIKeyHeader: cfg.ReviewsAPIKeyHeader,
			Timeout:      cfg.ReviewsTimeout(),
		},
		logger,
	)
	logger.Info("reviews API client initialized",
		slog.String("base_url", cfg.ReviewsAPIBaseURL),
		slog.Duration("timeout", cfg.ReviewsTimeout()),
	)

	repo := reviews.NewResilientRepository(
		client,
		reviews.NewFallbackGenerator(),
		reviews.RepositoryConfig{
			FailureThreshold: cfg.FailureThreshold,
			OpenDuration:     cfg.OpenDuration(),
		},
		logger,
	)

	// Health checks. The gateway stays ready even when the upstream reviews
	// API is down: the fallback path keeps the service answering.
	healthHandler := health.NewHandler()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(repo, repo, healthHandler, corsCfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
