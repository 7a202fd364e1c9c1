package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/load-planner/internal/catalog"
	"github.com/eugenenazirov/load-planner/internal/packing"
)

func testCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()

	cat := catalog.NewMemoryCatalog()
	err := cat.Replace(
		[]packing.ItemType{
			{ID: "small", Name: "Small box", Length: 0.1, Width: 0.1, Height: 0.1, Weight: 0.2},
			{ID: "heavy", Name: "Heavy box", Length: 0.1, Width: 0.1, Height: 0.1, Weight: 1.5},
			{ID: "crate", Name: "Crate", Length: 4, Width: 1, Height: 1, Weight: 10},
		},
		[]packing.ContainerType{
			{ID: "van", Name: "Van", Length: 3, Width: 2, Height: 2, WeightCapacity: 500},
			{ID: "truck", Name: "Truck", Length: 6, Width: 2.2, Height: 2.5, WeightCapacity: 5000},
		},
	)
	require.NoError(t, err)
	return cat
}

func TestCompute_SmallLoad(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	result, err := calc.Compute(context.Background(), []LineRequest{{ItemID: "small", Quantity: 8}}, "van", "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Berlin", result.Label)
	assert.Equal(t, "van", result.ContainerType.ID)
	assert.Equal(t, 1, result.ContainerCount)
	assert.InDelta(t, 0.008, result.TotalVolume, 1e-9)
	assert.InDelta(t, 1.6, result.TotalWeight, 1e-9)
	assert.InDelta(t, 12, result.ContainerVolume, 1e-9)
	assert.Equal(t, 500.0, result.ContainerWeightCapacity)

	require.Len(t, result.Containers, 1)
	report := result.Containers[0]
	assert.Equal(t, 8, report.Units)
	assert.Less(t, report.VolumeUtilization, 1.0)
	assert.Less(t, report.Utilization, 1.0)
	assert.NotEmpty(t, result.Recommendations)

	require.Len(t, result.Lines, 1)
	assert.Equal(t, "Small box", result.Lines[0].Item.Name)
}

func TestCompute_TotalsIndependentOfPacking(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	result, err := calc.Compute(context.Background(), []LineRequest{{ItemID: "heavy", Quantity: 400}}, "van", "Hamburg")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ContainerCount)
	assert.InDelta(t, 600, result.TotalWeight, 1e-9)
	assert.InDelta(t, 0.4, result.TotalVolume, 1e-9)

	var weight float64
	for _, c := range result.Containers {
		weight += c.UsedWeight
		assert.LessOrEqual(t, c.UsedWeight, 500+packing.Epsilon)
	}
	assert.InDelta(t, result.TotalWeight, weight, 1e-9)

	// 499.5 kg of 500 kg
	assert.Equal(t, 99.9, result.Containers[0].Utilization)
	assert.InDelta(t, 99.9, result.Containers[0].WeightUtilization, 1e-9)
	assert.Equal(t, 20.1, result.Containers[1].Utilization)
	assert.Equal(t, 60.0, result.AverageUtilization)
}

func TestCompute_AllZeroQuantities(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	result, err := calc.Compute(context.Background(), []LineRequest{{ItemID: "small", Quantity: 0}, {ItemID: "heavy", Quantity: 0}}, "van", "Empty")
	require.NoError(t, err)

	assert.Equal(t, 1, result.ContainerCount)
	assert.Zero(t, result.TotalVolume)
	assert.Zero(t, result.TotalWeight)
	assert.Zero(t, result.AverageUtilization)
	require.Len(t, result.Containers, 1)
	assert.Zero(t, result.Containers[0].Units)
	assert.Empty(t, result.Containers[0].Groups)
}

func TestCompute_Errors(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	ctx := context.Background()

	testCases := []struct {
		name      string
		lines     []LineRequest
		container string
		check     func(t *testing.T, err error)
	}{
		{
			name:      "negative quantity",
			lines:     []LineRequest{{ItemID: "small", Quantity: 1}, {ItemID: "heavy", Quantity: -1}},
			container: "van",
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrInvalidQuantity)
				var qErr *QuantityError
				require.True(t, errors.As(err, &qErr))
				assert.Equal(t, "heavy", qErr.ItemID)
				assert.Equal(t, -1, qErr.Quantity)
			},
		},
		{
			name:      "negative quantity rejected before lookups",
			lines:     []LineRequest{{ItemID: "ghost", Quantity: -3}},
			container: "van",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidQuantity)
			},
		},
		{
			name:      "unknown item",
			lines:     []LineRequest{{ItemID: "ghost", Quantity: 1}},
			container: "van",
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, catalog.ErrNotFound)
				var nf *catalog.NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, catalog.KindItem, nf.Kind)
				assert.Equal(t, "ghost", nf.ID)
			},
		},
		{
			name:      "first unknown item wins",
			lines:     []LineRequest{{ItemID: "small", Quantity: 1}, {ItemID: "first", Quantity: 1}, {ItemID: "second", Quantity: 1}},
			container: "van",
			check: func(t *testing.T, err error) {
				var nf *catalog.NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, "first", nf.ID)
			},
		},
		{
			name:      "unknown container",
			lines:     []LineRequest{{ItemID: "small", Quantity: 1}},
			container: "zeppelin",
			check: func(t *testing.T, err error) {
				var nf *catalog.NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, catalog.KindContainer, nf.Kind)
				assert.Equal(t, "zeppelin", nf.ID)
			},
		},
		{
			name:      "oversized item",
			lines:     []LineRequest{{ItemID: "crate", Quantity: 1}},
			container: "van",
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, packing.ErrOversizedItem)
				var oErr *packing.OversizedItemError
				require.True(t, errors.As(err, &oErr))
				assert.Equal(t, "crate", oErr.ItemID)
			},
		},
		{
			name:      "oversized item with zero quantity",
			lines:     []LineRequest{{ItemID: "crate", Quantity: 0}},
			container: "van",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, packing.ErrOversizedItem)
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result, err := calc.Compute(ctx, tc.lines, tc.container, "label")
			require.Error(t, err)
			assert.Nil(t, result)
			tc.check(t, err)
		})
	}
}

func TestCompute_FullContainerHasEmptyRecommendations(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	require.NoError(t, cat.Replace(
		[]packing.ItemType{{ID: "block", Name: "Block", Length: 1, Width: 1, Height: 1, Weight: 1}},
		[]packing.ContainerType{{ID: "cube", Name: "Cube", Length: 2, Width: 2, Height: 2, WeightCapacity: 8}},
	))
	calc := NewCalculator(cat)

	result, err := calc.Compute(context.Background(), []LineRequest{{ItemID: "block", Quantity: 8}}, "cube", "Oslo")
	require.NoError(t, err)
	require.Len(t, result.Containers, 1)
	assert.Equal(t, 100.0, result.Containers[0].Utilization)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"recommendations":[]`)
}

func TestCompute_CancelledContext(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calc.Compute(ctx, []LineRequest{{ItemID: "small", Quantity: 2000}}, "truck", "Riga")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompute_Idempotent(t *testing.T) {
	calc := NewCalculator(testCatalog(t), WithLookupConcurrency(2))
	lines := []LineRequest{
		{ItemID: "heavy", Quantity: 150},
		{ItemID: "small", Quantity: 90},
		{ItemID: "crate", Quantity: 3},
	}

	first, err := calc.Compute(context.Background(), lines, "truck", "Munich")
	require.NoError(t, err)
	second, err := calc.Compute(context.Background(), lines, "truck", "Munich")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUpdate_LabelAndStatusDoNotResimulate(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	ctx := context.Background()

	result, err := calc.Compute(ctx, []LineRequest{{ItemID: "small", Quantity: 8}}, "van", "Berlin")
	require.NoError(t, err)
	prior := Record{ID: "r1", Label: "Berlin", Status: StatusPlanned, Lines: []LineRequest{{ItemID: "small", Quantity: 8}}, ContainerTypeID: "van", Result: result}

	label := "Potsdam"
	shipped := StatusShipped
	next, resimulated, err := calc.Update(ctx, prior, Patch{Label: &label, Status: &shipped})
	require.NoError(t, err)

	assert.False(t, resimulated)
	assert.Equal(t, "Potsdam", next.Label)
	assert.Equal(t, StatusShipped, next.Status)
	assert.Equal(t, "Potsdam", next.Result.Label)
	assert.Equal(t, result.Containers, next.Result.Containers)

	// the prior record is left untouched
	assert.Equal(t, "Berlin", prior.Result.Label)
	assert.Equal(t, StatusPlanned, prior.Status)
}

func TestUpdate_StatusIsCaseInsensitive(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	status := Status("shipped")
	next, _, err := calc.Update(context.Background(), Record{ID: "r1", Status: StatusPlanned}, Patch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, next.Status)
}

func TestUpdate_InvalidStatus(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	status := Status("Lost")
	_, _, err := calc.Update(context.Background(), Record{ID: "r1", Status: StatusPlanned}, Patch{Status: &status})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdate_NewLinesResimulate(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	ctx := context.Background()

	result, err := calc.Compute(ctx, []LineRequest{{ItemID: "small", Quantity: 8}}, "van", "Berlin")
	require.NoError(t, err)
	prior := Record{ID: "r1", Label: "Berlin", Status: StatusPlanned, Lines: []LineRequest{{ItemID: "small", Quantity: 8}}, ContainerTypeID: "van", Result: result}

	next, resimulated, err := calc.Update(ctx, prior, Patch{Lines: []LineRequest{{ItemID: "heavy", Quantity: 400}}})
	require.NoError(t, err)

	assert.True(t, resimulated)
	assert.Equal(t, "van", next.ContainerTypeID)
	assert.Equal(t, []LineRequest{{ItemID: "heavy", Quantity: 400}}, next.Lines)
	assert.Equal(t, 2, next.Result.ContainerCount)
	assert.Equal(t, "Berlin", next.Result.Label)
	assert.Equal(t, 1, prior.Result.ContainerCount)
}

func TestUpdate_NewContainerKeepsLines(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	ctx := context.Background()

	lines := []LineRequest{{ItemID: "heavy", Quantity: 400}}
	result, err := calc.Compute(ctx, lines, "van", "Berlin")
	require.NoError(t, err)
	prior := Record{ID: "r1", Label: "Berlin", Status: StatusPlanned, Lines: lines, ContainerTypeID: "van", Result: result}

	truck := "truck"
	next, resimulated, err := calc.Update(ctx, prior, Patch{ContainerTypeID: &truck})
	require.NoError(t, err)

	assert.True(t, resimulated)
	assert.Equal(t, lines, next.Lines)
	assert.Equal(t, "truck", next.Result.ContainerType.ID)
	assert.Equal(t, 1, next.Result.ContainerCount)
}

func TestUpdate_FailedResimulationReturnsError(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	ghost := "ghost"
	_, _, err := calc.Update(context.Background(), Record{ID: "r1", Lines: []LineRequest{{ItemID: "small", Quantity: 1}}, ContainerTypeID: "van"}, Patch{ContainerTypeID: &ghost})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCalculatorRecommend(t *testing.T) {
	calc := NewCalculator(testCatalog(t))

	recs, err := calc.Recommend(context.Background(), 0.0025, 1.1)
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, "small", recs[0].Item.ID)
	assert.Equal(t, 2, recs[0].MaxQuantity)
}
