package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// ParseReviewStatus maps a wire status value to a ReviewStatus. Unknown or
// missing values default to StatusPending so that unmoderated content is
// never shown as approved.
func ParseReviewStatus(s string) ReviewStatus {
	switch ReviewStatus(s) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Review represents a single product review.
type Review struct {
	ID           uuid.UUID    `json:"id"`
	ProductID    uuid.UUID    `json:"product_id"`
	CustomerName string       `json:"customer_name"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	Rating       int          `json:"rating"`
	CreatedAt    time.Time    `json:"created_at"`
	Status       ReviewStatus `json:"status"`
}

// ReviewStats contains aggregate review statistics for a product.
// AverageRating is 0.0 when ReviewCount is 0.
type ReviewStats struct {
	ProductID     uuid.UUID `json:"product_id"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}
