package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/build-a-merch-store/review-gateway/internal/domain"
	"github.com/build-a-merch-store/review-gateway/pkg/httpclient"
	"github.com/build-a-merch-store/review-gateway/pkg/validator"
)

// ClientConfig holds configuration for the reviews API client.
type ClientConfig struct {
	// BaseURL is the root of the remote reviews API, without a trailing slash.
	BaseURL string

	// APIKey is sent on every request in the APIKeyHeader header.
	APIKey string

	// APIKeyHeader is the header name carrying the API key. Default: X-Api-Key.
	APIKeyHeader string

	// Timeout bounds each fetch; the in-flight request is cancelled when it
	// elapses. Default: 5s.
	Timeout time.Duration
}

// Client fetches product reviews from the remote reviews API. It performs a
// single attempt per call: circuit breaking and fallbacks are layered on top
// by ResilientRepository.
type Client struct {
	http   *httpclient.Client
	cfg    ClientConfig
	logger *slog.Logger
}

// NewClient creates a reviews API client on top of the shared pooled HTTP
// client.
func NewClient(httpClient *httpclient.Client, cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-Api-Key"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger,
	}
}

// Wire DTOs for the remote reviews API.

type reviewsResponse struct {
	Reviews []reviewPayload `json:"reviews"`
	Stats   *statsPayload   `json:"stats"`
}

type reviewPayload struct {
	ID           string    `json:"id" validate:"required,uuid"`
	ProductID    string    `json:"productId" validate:"required,uuid"`
	CustomerName string    `json:"customerName" validate:"required,min=1,max=100"`
	Title        string    `json:"title" validate:"required,min=1,max=200"`
	Content      string    `json:"content" validate:"required,min=1,max=2000"`
	Rating       int       `json:"rating" validate:"required,min=1,max=5"`
	CreatedAt    time.Time `json:"createdAt" validate:"required"`
	Status       string    `json:"status"`
}

type statsPayload struct {
	ProductID     string  `json:"productId" validate:"required,uuid"`
	AverageRating float64 `json:"averageRating" validate:"gte=0,lte=5"`
	ReviewCount   *int    `json:"reviewCount" validate:"required,gte=0"`
}

// FetchReviews performs one GET against {baseURL}/products/{id}/reviews and
// maps the payload into domain records. Failures are reported as
// *TransportError, *TimeoutError, or *MalformedResponseError; caller
// cancellation is passed through as a wrapped context.Canceled.
func (c *Client) FetchReviews(ctx context.Context, productID uuid.UUID) ([]domain.Review, domain.ReviewStats, error) {
	url := fmt.Sprintf("%s/products/%s/reviews", c.cfg.BaseURL, productID)

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, domain.ReviewStats{}, fmt.Errorf("create reviews request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(reqCtx, req)
	if err != nil {
		return nil, domain.ReviewStats{}, c.classifyCallError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.ReviewStats{}, &TransportError{
			Op:  "fetch reviews",
			Err: fmt.Errorf("server error %d", resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return nil, domain.ReviewStats{}, &MalformedResponseError{
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var payload reviewsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, domain.ReviewStats{}, &MalformedResponseError{
			Reason: "undecodable body",
			Err:    err,
		}
	}

	revs, stats, err := c.mapPayload(&payload)
	if err != nil {
		return nil, domain.ReviewStats{}, err
	}

	c.logger.DebugContext(ctx, "fetched reviews",
		slog.String("product_id", productID.String()),
		slog.Int("count", len(revs)),
	)

	return revs, stats, nil
}

// classifyCallError translates a failed HTTP round trip into the client's
// error taxonomy. Cancellation by the caller is deliberately left untyped so
// the circuit breaker does not count it as a service failure.
func (c *Client) classifyCallError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return fmt.Errorf("fetch reviews cancelled: %w", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: "fetch reviews", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: "fetch reviews", Err: err}
	}

	return &TransportError{Op: "fetch reviews", Err: err}
}

// mapPayload validates the wire payload and converts it into domain records.
// Any contract violation, including a single review with an out-of-range
// rating, rejects the whole payload rather than silently clamping values
// that would corrupt the statistics.
func (c *Client) mapPayload(payload *reviewsResponse) ([]domain.Review, domain.ReviewStats, error) {
	if payload.Stats == nil {
		return nil, domain.ReviewStats{}, &MalformedResponseError{Reason: "missing stats object"}
	}

	out := make([]domain.Review, 0, len(payload.Reviews))
	for i := range payload.Reviews {
		p := &payload.Reviews[i]
		p.CustomerName = strings.TrimSpace(p.CustomerName)
		p.Title = strings.TrimSpace(p.Title)
		p.Content = strings.TrimSpace(p.Content)

		if err := validator.Validate(*p); err != nil {
			return nil, domain.ReviewStats{}, &MalformedResponseError{
				Reason: fmt.Sprintf("review %d invalid", i),
				Err:    err,
			}
		}

		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, domain.ReviewStats{}, &MalformedResponseError{
				Reason: fmt.Sprintf("review %d has invalid id", i),
				Err:    err,
			}
		}
		reviewProductID, err := uuid.Parse(p.ProductID)
		if err != nil {
			return nil, domain.ReviewStats{}, &MalformedResponseError{
				Reason: fmt.Sprintf("review %d has invalid product id", i),
				Err:    err,
			}
		}

		out = append(out, domain.Review{
			ID:           id,
			ProductID:    reviewProductID,
			CustomerName: p.CustomerName,
			Title:        p.Title,
			Content:      p.Content,
			Rating:       p.Rating,
			CreatedAt:    p.CreatedAt.UTC(),
			Status:       domain.ParseReviewStatus(p.Status),
		})
	}

	if err := validator.Validate(*payload.Stats); err != nil {
		return nil, domain.ReviewStats{}, &MalformedResponseError{
			Reason: "stats invalid",
			Err:    err,
		}
	}
	statsProductID, err := uuid.Parse(payload.Stats.ProductID)
	if err != nil {
		return nil, domain.ReviewStats{}, &MalformedResponseError{
			Reason: "stats has invalid product id",
			Err:    err,
		}
	}

	stats := domain.ReviewStats{
		ProductID:     statsProductID,
		AverageRating: payload.Stats.AverageRating,
		ReviewCount:   *payload.Stats.ReviewCount,
	}

	return out, stats, nil
}
