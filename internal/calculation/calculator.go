package calculation

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/load-planner/internal/catalog"
	"github.com/eugenenazirov/load-planner/internal/packing"
)

const defaultLookupConcurrency = 8

// Calculator resolves requests against a catalog and turns packing runs into results.
type Calculator struct {
	catalog           catalog.Catalog
	lookupConcurrency int
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithLookupConcurrency bounds the number of concurrent item lookups.
func WithLookupConcurrency(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.lookupConcurrency = n
		}
	}
}

// NewCalculator builds a Calculator backed by the given catalog.
func NewCalculator(cat catalog.Catalog, opts ...Option) *Calculator {
	c := &Calculator{catalog: cat, lookupConcurrency: defaultLookupConcurrency}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute packs the requested lines into containers of the given type.
// Identical inputs against an unchanged catalog always yield identical results.
func (c *Calculator) Compute(ctx context.Context, lines []LineRequest, containerTypeID, label string) (*Result, error) {
	for _, line := range lines {
		if line.Quantity < 0 {
			return nil, &QuantityError{ItemID: line.ItemID, Quantity: line.Quantity}
		}
	}

	items, err := c.resolveItems(ctx, lines)
	if err != nil {
		return nil, err
	}
	container, err := c.catalog.ContainerType(ctx, containerTypeID)
	if err != nil {
		return nil, err
	}

	requests := make([]packing.ItemRequest, len(lines))
	resolved := make([]Line, len(lines))
	var totalVolume, totalWeight float64
	for i, item := range items {
		qty := lines[i].Quantity
		requests[i] = packing.ItemRequest{Item: item, Quantity: qty}
		resolved[i] = Line{Item: item, Quantity: qty}
		totalVolume += item.Volume() * float64(qty)
		totalWeight += item.Weight * float64(qty)
	}

	loads, err := packing.SimulateContext(ctx, container, requests)
	if err != nil {
		return nil, err
	}

	var (
		catalogItems []packing.ItemType
		suggestions  [][]packing.Recommendation
		utilization  float64
	)
	reports := make([]ContainerReport, 0, len(loads))
	for _, load := range loads {
		m := packing.Measure(container, load)
		reports = append(reports, ContainerReport{
			Index:             load.Index,
			Utilization:       roundTenth(m.Utilization),
			VolumeUtilization: m.VolumeUtilization,
			WeightUtilization: m.WeightUtilization,
			UsedVolume:        load.Volume,
			UsedWeight:        load.Weight,
			RemainingVolume:   m.RemainingVolume,
			RemainingWeight:   m.RemainingWeight,
			Units:             load.Units(),
			Groups:            load.Groups,
		})
		utilization += m.Utilization

		if m.Full() {
			continue
		}
		if catalogItems == nil {
			if catalogItems, err = c.catalog.ItemTypes(ctx); err != nil {
				return nil, fmt.Errorf("list item types: %w", err)
			}
		}
		suggestions = append(suggestions, packing.Recommend(m.RemainingVolume, m.RemainingWeight, catalogItems))
	}

	result := &Result{
		Label:                   label,
		ContainerType:           container,
		Lines:                   resolved,
		TotalVolume:             totalVolume,
		TotalWeight:             totalWeight,
		ContainerCount:          len(loads),
		ContainerVolume:         container.Volume(),
		ContainerWeightCapacity: container.WeightCapacity,
		Containers:              reports,
		Recommendations:         packing.MergeRecommendations(suggestions...),
	}
	if result.Recommendations == nil {
		result.Recommendations = []packing.Recommendation{}
	}
	if len(loads) > 0 {
		result.AverageUtilization = roundTenth(utilization / float64(len(loads)))
	}
	return result, nil
}

// Update applies patch to prior. Label and status changes are applied in place;
// new lines or a new container type trigger a fresh packing run over the
// patched values merged with the prior ones. The bool reports whether packing ran.
func (c *Calculator) Update(ctx context.Context, prior Record, patch Patch) (Record, bool, error) {
	next := prior
	next.Lines = append([]LineRequest(nil), prior.Lines...)

	if patch.Status != nil {
		status, err := ParseStatus(string(*patch.Status))
		if err != nil {
			return Record{}, false, err
		}
		next.Status = status
	}
	if patch.Label != nil {
		next.Label = *patch.Label
	}

	if !patch.Resimulates() {
		if prior.Result != nil {
			result := *prior.Result
			result.Label = next.Label
			next.Result = &result
		}
		return next, false, nil
	}

	if patch.Lines != nil {
		next.Lines = append([]LineRequest(nil), patch.Lines...)
	}
	if patch.ContainerTypeID != nil {
		next.ContainerTypeID = *patch.ContainerTypeID
	}

	result, err := c.Compute(ctx, next.Lines, next.ContainerTypeID, next.Label)
	if err != nil {
		return Record{}, false, err
	}
	next.Result = result
	return next, true, nil
}

// Recommend lists catalog items that fit the given remaining capacity.
func (c *Calculator) Recommend(ctx context.Context, remainingVolume, remainingWeight float64) ([]packing.Recommendation, error) {
	items, err := c.catalog.ItemTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list item types: %w", err)
	}
	return packing.Recommend(remainingVolume, remainingWeight, items), nil
}

// resolveItems looks item ids up concurrently. When several lookups fail the
// error of the earliest line is returned.
func (c *Calculator) resolveItems(ctx context.Context, lines []LineRequest) ([]packing.ItemType, error) {
	items := make([]packing.ItemType, len(lines))
	errs := make([]error, len(lines))

	var g errgroup.Group
	g.SetLimit(c.lookupConcurrency)
	for i, line := range lines {
		g.Go(func() error {
			items[i], errs[i] = c.catalog.ItemType(ctx, line.ItemID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
