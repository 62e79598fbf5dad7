// Package domain holds the error kinds of the sale lifecycle in one place.
// Handlers map these to HTTP status codes with errors.Is / errors.As; the
// structured variants carry the context callers need to build a useful
// message without re-querying.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors — use with errors.Is().
var (
	// ErrProductNotFound is returned when a sale references a product that
	// does not exist or is inactive.
	ErrProductNotFound = errors.New("product not found")

	// ErrSaleNotFound is returned when a lifecycle operation references a
	// sale that does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrInsufficientStock is returned when a sale would drive a product's
	// stock negative. No mutation occurs.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition is returned when approve/reject is invoked on a
	// sale that is already resolved. Re-invocations never repeat side effects.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrMissingReason is returned when a rejection carries no reason.
	ErrMissingReason = errors.New("rejection reason is required")

	// ErrInvalidQuantity is returned when a sale requests a non-positive
	// quantity. The engine enforces this on every transport, not just the
	// HTTP binding layer.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrEmptyBatch is returned when a bulk operation carries no sale IDs.
	ErrEmptyBatch = errors.New("sale_ids must not be empty")
)

// InsufficientStockError reports available vs requested quantities.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidTransitionError carries the sale's current status so the caller can
// see which terminal state won the race.
type InvalidTransitionError struct {
	SaleNumber string
	Current    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("sale %s is already %s", e.SaleNumber, e.Current)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrSaleNotFound)
}

// IsConflict returns true for errors that map to a 409-class response.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
