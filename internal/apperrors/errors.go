// internal/apperrors/errors.go
package apperrors

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError reports a missing supplier, customer, product, purchase or
// order. Resource is the lowercase entity name used in client messages.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidLineItemError reports a rejected line item set: an empty set, a
// non-positive quantity or a product id that could not be resolved.
// ProductID is uuid.Nil when the whole set is invalid.
type InvalidLineItemError struct {
	ProductID uuid.UUID
	Reason    string
}

func (e *InvalidLineItemError) Error() string {
	if e.ProductID == uuid.Nil {
		return fmt.Sprintf("invalid line items: %s", e.Reason)
	}
	return fmt.Sprintf("invalid line item for product %s: %s", e.ProductID, e.Reason)
}

// AlreadyFinalizedError is returned when an update, delete or repeated
// finalize hits a purchase that has arrived or an order that has been
// delivered. Finalization is monotonic, so this is a permanent conflict.
type AlreadyFinalizedError struct {
	Kind string // "purchase" or "order"
	ID   uuid.UUID
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("%s %s is already finalized", e.Kind, e.ID)
}

// InsufficientStockError is returned when a delivery would drive a
// product's on-hand quantity below zero. The stored quantity is left
// untouched.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d available, %d requested",
		e.ProductID, e.Available, e.Requested)
}
