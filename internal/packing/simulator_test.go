package packing

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallVan() ContainerType {
	return ContainerType{ID: "van", Name: "Van", Length: 3, Width: 2, Height: 2, WeightCapacity: 500}
}

func cube(id string, side, weight float64) ItemType {
	return ItemType{ID: id, Name: id, Length: side, Width: side, Height: side, Weight: weight}
}

func TestSimulate_SmallLoadSingleContainer(t *testing.T) {
	item := cube("small", 0.1, 0.2)

	loads, err := Simulate(smallVan(), []ItemRequest{{Item: item, Quantity: 8}})
	require.NoError(t, err)
	require.Len(t, loads, 1)

	load := loads[0]
	assert.InDelta(t, 0.008, load.Volume, 1e-9)
	assert.InDelta(t, 1.6, load.Weight, 1e-9)
	require.Len(t, load.Groups, 1)
	assert.Equal(t, 8, load.Groups[0].Count)
	assert.Equal(t, 8, load.Units())

	m := Measure(smallVan(), load)
	assert.Less(t, m.Utilization, 1.0)
	assert.NotEmpty(t, Recommend(m.RemainingVolume, m.RemainingWeight, []ItemType{item}))
}

func TestSimulate_WeightOverflowOpensSecondContainer(t *testing.T) {
	item := cube("heavy", 0.1, 1.5)

	loads, err := Simulate(smallVan(), []ItemRequest{{Item: item, Quantity: 400}})
	require.NoError(t, err)
	require.Len(t, loads, 2)

	assert.Equal(t, 333, loads[0].Units())
	assert.Equal(t, 67, loads[1].Units())
	for _, load := range loads {
		assert.LessOrEqual(t, load.Weight, 500+Epsilon)
	}
}

func TestSimulate_ExactCapacityItem(t *testing.T) {
	container := ContainerType{ID: "box", Length: 1, Width: 1, Height: 1, WeightCapacity: 10}
	item := ItemType{ID: "block", Length: 1, Width: 1, Height: 1, Weight: 10}

	loads, err := Simulate(container, []ItemRequest{{Item: item, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, loads, 1)

	m := Measure(container, loads[0])
	assert.InDelta(t, 100, m.Utilization, 1e-6)
	assert.Empty(t, loads[0].FreeSpaces)
}

func TestSimulate_OversizedItem(t *testing.T) {
	tests := []struct {
		name string
		item ItemType
	}{
		{name: "too long", item: ItemType{ID: "pole", Name: "Pole", Length: 4, Width: 0.1, Height: 0.1, Weight: 1}},
		{name: "too wide", item: ItemType{ID: "sheet", Length: 1, Width: 2.5, Height: 0.1, Weight: 1}},
		{name: "too tall", item: ItemType{ID: "tower", Length: 1, Width: 1, Height: 3, Weight: 1}},
		{name: "too heavy", item: ItemType{ID: "anvil", Length: 0.5, Width: 0.5, Height: 0.5, Weight: 501}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			requests := []ItemRequest{
				{Item: cube("fine", 0.1, 0.1), Quantity: 5},
				{Item: tc.item, Quantity: 1},
			}
			loads, err := Simulate(smallVan(), requests)
			require.Error(t, err)
			assert.Nil(t, loads)
			assert.True(t, errors.Is(err, ErrOversizedItem))

			var oversized *OversizedItemError
			require.True(t, errors.As(err, &oversized))
			assert.Equal(t, tc.item.ID, oversized.ItemID)
		})
	}
}

func TestSimulate_OversizedItemWithZeroQuantity(t *testing.T) {
	_, err := Simulate(smallVan(), []ItemRequest{{Item: cube("huge", 5, 1), Quantity: 0}})
	assert.ErrorIs(t, err, ErrOversizedItem)
}

func TestSimulate_AllZeroQuantities(t *testing.T) {
	loads, err := Simulate(smallVan(), []ItemRequest{
		{Item: cube("a", 0.1, 0.1), Quantity: 0},
		{Item: cube("b", 0.2, 0.1), Quantity: 0},
	})
	require.NoError(t, err)
	require.Len(t, loads, 1)

	assert.Zero(t, loads[0].Volume)
	assert.Zero(t, loads[0].Weight)
	assert.Empty(t, loads[0].Groups)
	assert.Zero(t, Measure(smallVan(), loads[0]).Utilization)
}

func TestSimulate_InvalidContainer(t *testing.T) {
	_, err := Simulate(ContainerType{ID: "flat", Length: 1, Width: 1}, nil)
	assert.ErrorIs(t, err, ErrInvalidContainer)
}

func TestSimulate_GroupsPerItemType(t *testing.T) {
	requests := []ItemRequest{
		{Item: ItemType{ID: "a", Length: 1, Width: 1, Height: 1, Weight: 1}, Quantity: 3},
		{Item: ItemType{ID: "b", Length: 0.5, Width: 0.5, Height: 0.5, Weight: 1}, Quantity: 2},
		{Item: ItemType{ID: "a", Length: 1, Width: 1, Height: 1, Weight: 1}, Quantity: 1},
	}

	loads, err := Simulate(smallVan(), requests)
	require.NoError(t, err)
	require.Len(t, loads, 1)

	groups := loads[0].Groups
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].Item.ID)
	assert.Equal(t, 4, groups[0].Count)
	assert.Equal(t, "b", groups[1].Item.ID)
	assert.Equal(t, 2, groups[1].Count)

	a := groups[0]
	assert.Equal(t, Position{}, a.Pattern.Start)
	assert.Equal(t, GridCapacity{X: 3, Y: 2, Z: 2}, a.Grid)
	assert.Equal(t, Position{X: 0, Y: 1, Z: 0}, a.Pattern.End)
	assert.Equal(t, 4, a.Pattern.Count)
}

func TestSimulate_GroupStartIsSmallestPosition(t *testing.T) {
	loads, err := Simulate(smallVan(), []ItemRequest{{Item: cube("c", 1, 1), Quantity: 5}})
	require.NoError(t, err)

	group := loads[0].Groups[0]
	for _, pos := range group.Positions {
		assert.False(t, pos.Less(group.Pattern.Start))
	}
}

func TestSimulate_CapacityInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	container := ContainerType{ID: "truck", Length: 6, Width: 2.2, Height: 2.5, WeightCapacity: 800}

	for round := 0; round < 20; round++ {
		var requests []ItemRequest
		want := make(map[string]int)
		for i := 0; i < 1+rng.Intn(4); i++ {
			item := ItemType{
				ID:     string(rune('a' + i)),
				Length: 0.2 + rng.Float64()*1.5,
				Width:  0.2 + rng.Float64()*1.5,
				Height: 0.2 + rng.Float64()*1.5,
				Weight: 1 + rng.Float64()*60,
			}
			qty := rng.Intn(40)
			requests = append(requests, ItemRequest{Item: item, Quantity: qty})
			want[item.ID] += qty
		}

		loads, err := Simulate(container, requests)
		require.NoError(t, err)
		require.NotEmpty(t, loads)

		got := make(map[string]int)
		for _, load := range loads {
			assert.LessOrEqual(t, load.Volume, container.Volume()+Epsilon)
			assert.LessOrEqual(t, load.Weight, container.WeightCapacity+Epsilon)

			m := Measure(container, load)
			assert.GreaterOrEqual(t, m.VolumeUtilization, 0.0)
			assert.LessOrEqual(t, m.VolumeUtilization, 100+1e-6)
			assert.GreaterOrEqual(t, m.WeightUtilization, 0.0)
			assert.LessOrEqual(t, m.WeightUtilization, 100+1e-6)
			assert.GreaterOrEqual(t, m.RemainingVolume, 0.0)
			assert.GreaterOrEqual(t, m.RemainingWeight, 0.0)

			for _, g := range load.Groups {
				got[g.Item.ID] += g.Count
			}
		}
		for id, qty := range want {
			assert.Equal(t, qty, got[id], "item %s", id)
		}
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	requests := []ItemRequest{
		{Item: ItemType{ID: "laptop", Length: 0.3, Width: 0.2, Height: 0.05, Weight: 2}, Quantity: 50},
		{Item: ItemType{ID: "printer", Length: 0.45, Width: 0.4, Height: 0.3, Weight: 8}, Quantity: 20},
	}

	first, err := Simulate(smallVan(), requests)
	require.NoError(t, err)
	second, err := Simulate(smallVan(), requests)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// cancelAfter reports context.Canceled once Err has been polled n times.
type cancelAfter struct {
	context.Context
	n     int
	polls int
}

func (c *cancelAfter) Err() error {
	c.polls++
	if c.polls > c.n {
		return context.Canceled
	}
	return nil
}

func TestSimulateContext_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loads, err := SimulateContext(ctx, smallVan(), []ItemRequest{{Item: cube("c", 0.1, 0.1), Quantity: 10}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, loads)
}

func TestSimulateContext_StopsMidRun(t *testing.T) {
	t.Parallel()

	ctx := &cancelAfter{Context: context.Background(), n: 2}
	requests := []ItemRequest{{Item: cube("c", 0.1, 0.01), Quantity: 5000}}

	loads, err := SimulateContext(ctx, smallVan(), requests)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, loads)
	// one check up front, then one per cancelCheckInterval units
	assert.Equal(t, 3, ctx.polls)
}

func TestPatternEnd(t *testing.T) {
	t.Parallel()

	size := Size{Width: 10, Height: 20, Depth: 30}

	tests := []struct {
		name  string
		start Position
		count int
		grid  GridCapacity
		want  Position
	}{
		{name: "single unit", count: 1, grid: GridCapacity{X: 3, Y: 3, Z: 3}, want: Position{}},
		{name: "along x", count: 3, grid: GridCapacity{X: 5, Y: 5, Z: 5}, want: Position{X: 20}},
		{name: "wraps to next row", count: 5, grid: GridCapacity{X: 3, Y: 3, Z: 3}, want: Position{X: 10, Y: 20}},
		{
			name:  "wraps to next layer",
			start: Position{X: 5, Y: 10, Z: 15},
			count: 19,
			grid:  GridCapacity{X: 3, Y: 3, Z: 3},
			want:  Position{X: 5, Y: 10, Z: 75},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, patternEnd(tc.start, tc.count, tc.grid, size))
		})
	}
}

func BenchmarkSimulate(b *testing.B) {
	requests := []ItemRequest{
		{Item: ItemType{ID: "keyboard", Length: 0.4, Width: 0.15, Height: 0.03, Weight: 0.8}, Quantity: 500},
		{Item: ItemType{ID: "monitor", Length: 0.5, Width: 0.1, Height: 0.4, Weight: 5}, Quantity: 200},
	}
	container := ContainerType{ID: "medium", Length: 6, Width: 2.2, Height: 2.5, WeightCapacity: 5000}
	for i := 0; i < b.N; i++ {
		if _, err := Simulate(container, requests); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
