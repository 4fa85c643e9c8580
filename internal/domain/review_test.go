package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReviewStatus_KnownValues(t *testing.T) {
	assert.Equal(t, StatusApproved, ParseReviewStatus("approved"))
	assert.Equal(t, StatusRejected, ParseReviewStatus("rejected"))
	assert.Equal(t, StatusPending, ParseReviewStatus("pending"))
}

func TestParseReviewStatus_UnknownDefaultsToPending(t *testing.T) {
	assert.Equal(t, StatusPending, ParseReviewStatus(""))
	assert.Equal(t, StatusPending, ParseReviewStatus("Approved"))
	assert.Equal(t, StatusPending, ParseReviewStatus("published"))
	assert.Equal(t, StatusPending, ParseReviewStatus("garbage"))
}
