// internal/apperrors/errors_test.go
package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	assert.Equal(t,
		"supplier 11111111-2222-3333-4444-555555555555 not found",
		NewNotFound("supplier", id).Error())

	assert.Equal(t,
		"invalid line items: at least one line item is required",
		(&InvalidLineItemError{Reason: "at least one line item is required"}).Error())

	assert.Equal(t,
		"invalid line item for product 11111111-2222-3333-4444-555555555555: quantity must be positive, got 0",
		(&InvalidLineItemError{ProductID: id, Reason: "quantity must be positive, got 0"}).Error())

	assert.Equal(t,
		"order 11111111-2222-3333-4444-555555555555 is already finalized",
		(&AlreadyFinalizedError{Kind: "order", ID: id}).Error())

	assert.Equal(t,
		"insufficient stock for product 11111111-2222-3333-4444-555555555555: 7 available, 50 requested",
		(&InsufficientStockError{ProductID: id, Available: 7, Requested: 50}).Error())
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	id := uuid.New()
	wrapped := fmt.Errorf("delivering order: %w", &InsufficientStockError{ProductID: id, Available: 1, Requested: 2})

	var short *InsufficientStockError
	require.True(t, errors.As(wrapped, &short))
	assert.Equal(t, id, short.ProductID)
}
