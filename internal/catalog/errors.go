package catalog

import (
	"errors"
	"fmt"
)

// Kind names the type of catalog entry a lookup was for.
type Kind string

const (
	KindItem      Kind = "item type"
	KindContainer Kind = "container type"
)

var (
	// ErrNotFound is returned when a catalog id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCatalog is returned when catalog entries violate validation rules.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// NotFoundError names the missing id and what kind of entry it should have been.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
