package packing

import (
	"errors"
	"fmt"
)

var (
	// ErrOversizedItem is returned when a single unit cannot fit an empty container.
	ErrOversizedItem = errors.New("item exceeds container capacity")
	// ErrInvalidContainer is returned when a container type has non-positive dimensions or capacity.
	ErrInvalidContainer = errors.New("container type must have positive dimensions and weight capacity")
)

// OversizedItemError names the item that can never be loaded and the limit it breaks.
type OversizedItemError struct {
	ItemID   string
	ItemName string
	Reason   string
}

func (e *OversizedItemError) Error() string {
	name := e.ItemName
	if name == "" {
		name = e.ItemID
	}
	return fmt.Sprintf("item %s is too large for the container: %s", name, e.Reason)
}

// Is matches ErrOversizedItem.
func (e *OversizedItemError) Is(target error) bool {
	return target == ErrOversizedItem
}

// InvalidContainerError names the container type that failed validation.
type InvalidContainerError struct {
	ContainerID string
}

func (e *InvalidContainerError) Error() string {
	return fmt.Sprintf("container type %s: %v", e.ContainerID, ErrInvalidContainer)
}

// Is matches ErrInvalidContainer.
func (e *InvalidContainerError) Is(target error) bool {
	return target == ErrInvalidContainer
}
