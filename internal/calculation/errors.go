package calculation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when a requested quantity is negative.
	ErrInvalidQuantity = errors.New("quantity must be a non-negative integer")
	// ErrInvalidStatus is returned for status values other than Planned or Shipped.
	ErrInvalidStatus = errors.New("status must be Planned or Shipped")
	// ErrRecordNotFound is returned when a calculation id is unknown to the store.
	ErrRecordNotFound = errors.New("calculation not found")
	// ErrTooManyUnits is returned when a request exceeds the configured unit ceiling.
	ErrTooManyUnits = errors.New("requested units exceed the configured limit")
)

// QuantityError names the line whose quantity was rejected.
type QuantityError struct {
	ItemID   string
	Quantity int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("item %s: quantity %d: %v", e.ItemID, e.Quantity, ErrInvalidQuantity)
}

// Is matches ErrInvalidQuantity.
func (e *QuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}
