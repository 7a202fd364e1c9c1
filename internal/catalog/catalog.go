package catalog

import (
	"context"

	"github.com/eugenenazirov/load-planner/internal/packing"
)

// Catalog is the read-only view of item and container types used by calculations.
// Lookups are idempotent and safe to call concurrently.
type Catalog interface {
	ItemType(ctx context.Context, id string) (packing.ItemType, error)
	ContainerType(ctx context.Context, id string) (packing.ContainerType, error)
	ItemTypes(ctx context.Context) ([]packing.ItemType, error)
	ContainerTypes(ctx context.Context) ([]packing.ContainerType, error)
}
