package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/build-a-merch-store/review-gateway/internal/domain"
	"github.com/build-a-merch-store/review-gateway/internal/reviews"
	apperrors "github.com/build-a-merch-store/review-gateway/pkg/errors"
	"github.com/build-a-merch-store/review-gateway/pkg/httputil"
)

// SourceHeader is the response header carrying the data origin so callers can
// tell live data from fallback without parsing the body.
const SourceHeader = "X-Reviews-Source"

// ReviewHandler handles HTTP requests for product review endpoints.
type ReviewHandler struct {
	repo   reviews.Repository
	logger *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(repo reviews.Repository, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		repo:   repo,
		logger: logger,
	}
}

// ProductReviewsResponse is the JSON body for the product reviews endpoint.
type ProductReviewsResponse struct {
	Reviews []domain.Review    `json:"reviews"`
	Stats   domain.ReviewStats `json:"stats"`
	Source  reviews.Source     `json:"source"`
}

// GetProductReviews handles GET /api/v1/products/{productId}/reviews.
// It always answers 200 with review data; upstream failures are absorbed by
// the repository and surface only through the source marker.
func (h *ReviewHandler) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "productId")
	productID, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid product id: "+raw), h.logger)
		return
	}

	result := h.repo.GetProductReviews(r.Context(), productID)

	// A live product with no reviews yet still serializes as an empty array.
	if result.Reviews == nil {
		result.Reviews = []domain.Review{}
	}

	w.Header().Set(SourceHeader, string(result.Source))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: ProductReviewsResponse{
			Reviews: result.Reviews,
			Stats:   result.Stats,
			Source:  result.Source,
		},
	})
}
