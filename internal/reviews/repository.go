package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/build-a-merch-store/review-gateway/internal/domain"
	"github.com/build-a-merch-store/review-gateway/pkg/breaker"
)

// Source identifies where a ProductReviews result came from.
type Source string

const (
	// SourceLive marks authoritative data fetched from the remote API.
	SourceLive Source = "live"

	// SourceFallback marks synthetic data generated locally.
	SourceFallback Source = "fallback"
)

// ProductReviews is the result of a review lookup: the reviews, their
// aggregate stats, and whether the data is live or synthetic.
type ProductReviews struct {
	Reviews []domain.Review
	Stats   domain.ReviewStats
	Source  Source
}

// Repository is the public contract for review lookups. Implementations must
// always return usable data: callers never handle availability errors.
type Repository interface {
	GetProductReviews(ctx context.Context, productID uuid.UUID) ProductReviews
}

// Fetcher is the remote call wrapped by the repository's circuit breaker.
// *Client satisfies it.
type Fetcher interface {
	FetchReviews(ctx context.Context, productID uuid.UUID) ([]domain.Review, domain.ReviewStats, error)
}

var reviewFetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_fetch_total",
		Help: "Review lookups by outcome (live, fallback_open, fallback_error)",
	},
	[]string{"outcome"},
)

// RepositoryConfig holds the circuit breaker tuning for the repository.
type RepositoryConfig struct {
	// FailureThreshold is the number of consecutive availability failures
	// before the breaker opens.
	FailureThreshold int

	// OpenDuration is how long the breaker rejects calls before probing the
	// remote API again.
	OpenDuration time.Duration
}

type fetchResult struct {
	reviews []domain.Review
	stats   domain.ReviewStats
}

// ResilientRepository serves product reviews from the remote API through a
// circuit breaker, substituting deterministic fallback data whenever the
// remote call fails or the breaker is open.
type ResilientRepository struct {
	fetcher  Fetcher
	fallback *FallbackGenerator
	breaker  *breaker.Breaker[fetchResult]
	logger   *slog.Logger
}

// NewResilientRepository wires the fetcher, fallback generator, and circuit
// breaker together.
func NewResilientRepository(fetcher Fetcher, fallback *FallbackGenerator, cfg RepositoryConfig, logger *slog.Logger) *ResilientRepository {
	b := breaker.New[fetchResult](breaker.Config{
		Name:             "reviews-api",
		FailureThreshold: cfg.FailureThreshold,
		OpenDuration:     cfg.OpenDuration,
		Classify:         classifyFetchError,
	}, logger)

	return &ResilientRepository{
		fetcher:  fetcher,
		fallback: fallback,
		breaker:  b,
		logger:   logger,
	}
}

// classifyFetchError maps client errors to breaker outcomes: only
// availability failures (transport, timeout) count toward the threshold.
// Malformed payloads and caller cancellations pass through without touching
// breaker state.
func classifyFetchError(err error) breaker.Outcome {
	switch {
	case err == nil:
		return breaker.OutcomeSuccess
	case IsAvailabilityError(err):
		return breaker.OutcomeFailure
	default:
		return breaker.OutcomeIgnore
	}
}

// GetProductReviews returns reviews and stats for the product. It never
// fails: any error from the breaker or the remote call is converted into
// fallback data.
func (r *ResilientRepository) GetProductReviews(ctx context.Context, productID uuid.UUID) ProductReviews {
	res, err := r.breaker.Execute(func() (fetchResult, error) {
		reviews, stats, err := r.fetcher.FetchReviews(ctx, productID)
		return fetchResult{reviews: reviews, stats: stats}, err
	})
	if err == nil {
		reviewFetchTotal.WithLabelValues("live").Inc()
		return ProductReviews{Reviews: res.reviews, Stats: res.stats, Source: SourceLive}
	}

	// A circuit-open fast-fail means a sustained outage; an attempted call
	// that failed may be a one-off. Keep the two distinguishable in logs
	// and metrics.
	if errors.Is(err, breaker.ErrOpen) {
		reviewFetchTotal.WithLabelValues("fallback_open").Inc()
		r.logger.WarnContext(ctx, "circuit open, serving fallback reviews",
			slog.String("product_id", productID.String()),
		)
	} else {
		reviewFetchTotal.WithLabelValues("fallback_error").Inc()
		r.logger.WarnContext(ctx, "review fetch failed, serving fallback reviews",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()),
		)
	}

	reviews, stats := r.fallback.Generate(productID)
	return ProductReviews{Reviews: reviews, Stats: stats, Source: SourceFallback}
}

// BreakerState exposes the circuit breaker's current state for health
// reporting and diagnostics.
func (r *ResilientRepository) BreakerState() breaker.State {
	return r.breaker.State()
}
