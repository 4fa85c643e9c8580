package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/build-a-merch-store/review-gateway/internal/reviews"
	"github.com/build-a-merch-store/review-gateway/pkg/breaker"
	"github.com/build-a-merch-store/review-gateway/pkg/health"
	"github.com/build-a-merch-store/review-gateway/pkg/httputil"
	"github.com/build-a-merch-store/review-gateway/pkg/middleware"
)

// BreakerReporter exposes the circuit breaker state for the status endpoint.
type BreakerReporter interface {
	BreakerState() breaker.State
}

// NewRouter creates a chi router with all review gateway routes registered.
func NewRouter(
	repo reviews.Repository,
	reporter BreakerReporter,
	healthHandler *health.Handler,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("review-gateway"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Operational status: the breaker state is diagnostic, not load-bearing.
	r.Get("/internal/circuit", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{
			Data: map[string]string{"state": reporter.BreakerState().String()},
		})
	})

	// Review API endpoints
	reviewHandler := NewReviewHandler(repo, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/{productId}/reviews", reviewHandler.GetProductReviews)
	})

	return r
}
