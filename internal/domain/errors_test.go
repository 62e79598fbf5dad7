package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStockError_Unwraps(t *testing.T) {
	err := fmt.Errorf("create sale: %w", &InsufficientStockError{
		ProductName: "Wireless Mouse",
		Available:   3,
		Requested:   5,
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Contains(t, err.Error(), "Wireless Mouse")
}

func TestInvalidTransitionError_Unwraps(t *testing.T) {
	err := error(&InvalidTransitionError{SaleNumber: "SALE-000042", Current: "approved"})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsConflict(err))
	assert.Equal(t, "sale SALE-000042 is already approved", err.Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrProductNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrSaleNotFound)))
	assert.False(t, IsNotFound(ErrMissingReason))
	assert.False(t, IsNotFound(errors.New("other")))
}
