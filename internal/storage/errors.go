package storage

import (
	"errors"
	"fmt"

	"github.com/eugenenazirov/load-planner/internal/calculation"
)

// ErrDuplicateID is returned when a record with the same id already exists.
var ErrDuplicateID = errors.New("calculation id already exists")

func notFound(id string) error {
	return fmt.Errorf("%w: %s", calculation.ErrRecordNotFound, id)
}
