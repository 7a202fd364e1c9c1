package calculation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eugenenazirov/load-planner/internal/packing"
)

// LineRequest asks for Quantity units of the catalog item ItemID.
type LineRequest struct {
	ItemID   string `json:"itemId" bson:"itemId"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// Line is a LineRequest resolved against the catalog.
type Line struct {
	Item     packing.ItemType `json:"item"`
	Quantity int              `json:"quantity"`
}

// ContainerReport describes one loaded container of a calculation.
type ContainerReport struct {
	Index int `json:"index"`
	// Utilization is the binding-constraint percentage rounded to one decimal.
	Utilization       float64             `json:"utilization"`
	VolumeUtilization float64             `json:"volumeUtilization"`
	WeightUtilization float64             `json:"weightUtilization"`
	UsedVolume        float64             `json:"usedVolume"`
	UsedWeight        float64             `json:"usedWeight"`
	RemainingVolume   float64             `json:"remainingVolume"`
	RemainingWeight   float64             `json:"remainingWeight"`
	Units             int                 `json:"units"`
	Groups            []packing.ItemGroup `json:"groups"`
}

// Result is the outcome of one calculation. It is built fresh per call and
// owned by the caller.
type Result struct {
	Label                   string                   `json:"label"`
	ContainerType           packing.ContainerType    `json:"containerType"`
	Lines                   []Line                   `json:"lines"`
	TotalVolume             float64                  `json:"totalVolume"`
	TotalWeight             float64                  `json:"totalWeight"`
	ContainerCount          int                      `json:"containerCount"`
	ContainerVolume         float64                  `json:"containerVolume"`
	ContainerWeightCapacity float64                  `json:"containerWeightCapacity"`
	AverageUtilization      float64                  `json:"averageUtilization"`
	Containers              []ContainerReport        `json:"containers"`
	Recommendations         []packing.Recommendation `json:"recommendations"`
}

// Status tracks where a saved calculation is in the shipping lifecycle.
type Status string

const (
	StatusPlanned Status = "Planned"
	StatusShipped Status = "Shipped"
)

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "planned":
		return StatusPlanned, nil
	case "shipped":
		return StatusShipped, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Record is a persisted calculation.
type Record struct {
	ID              string        `json:"id"`
	Label           string        `json:"label"`
	Status          Status        `json:"status"`
	Lines           []LineRequest `json:"lines"`
	ContainerTypeID string        `json:"containerTypeId"`
	Result          *Result       `json:"result,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Patch is a partial update of a Record. Nil fields are left unchanged.
type Patch struct {
	Label           *string
	Status          *Status
	Lines           []LineRequest
	ContainerTypeID *string
}

// Resimulates reports whether applying the patch requires a new packing run.
func (p Patch) Resimulates() bool {
	return p.Lines != nil || p.ContainerTypeID != nil
}

// Store persists calculation records.
type Store interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	FindByLabel(ctx context.Context, label string, status Status) ([]Record, error)
}
