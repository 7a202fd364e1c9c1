package packing

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Simulate loads every requested unit into containers of the given type,
// opening a new container whenever the current one cannot accept the next unit.
//
// Item types are checked before any container is opened; a single unit that
// could not fit an empty container fails the whole request.
func Simulate(container ContainerType, requests []ItemRequest) ([]ContainerLoad, error) {
	return SimulateContext(context.Background(), container, requests)
}

// cancelCheckInterval is how many units are placed between context checks.
const cancelCheckInterval = 256

// SimulateContext is Simulate with cancellation: ctx is checked every
// cancelCheckInterval placements and its error returned once it is done.
func SimulateContext(ctx context.Context, container ContainerType, requests []ItemRequest) ([]ContainerLoad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := container.Validate(); err != nil {
		return nil, err
	}
	for _, req := range requests {
		if err := checkFits(container, req.Item); err != nil {
			return nil, err
		}
	}

	capacityVolume := container.Volume()
	capacityWeight := container.WeightCapacity

	sim := &simulation{container: container}
	current := sim.open()
	placed := 0

	for _, req := range requests {
		item := req.Item
		size := item.Size()
		volume := item.Volume()

		for remaining := req.Quantity; remaining > 0; {
			if current.volume+volume <= capacityVolume+Epsilon &&
				current.weight+item.Weight <= capacityWeight+Epsilon {
				if idx, ok := current.allocator.Find(size); ok {
					pos := current.allocator.Place(idx, size)
					current.add(item, pos, size)
					remaining--
					if placed++; placed%cancelCheckInterval == 0 {
						if err := ctx.Err(); err != nil {
							return nil, err
						}
					}
					continue
				}
			}
			if len(current.placements) == 0 {
				// checkFits guarantees an empty container admits one unit.
				return nil, &OversizedItemError{ItemID: item.ID, ItemName: item.Name, Reason: "does not fit an empty container"}
			}
			current = sim.open()
		}
	}

	loads := make([]ContainerLoad, 0, len(sim.containers))
	for _, c := range sim.containers {
		loads = append(loads, c.finish(container))
	}
	return loads, nil
}

func checkFits(container ContainerType, item ItemType) error {
	oversized := func(format string, args ...any) error {
		return &OversizedItemError{ItemID: item.ID, ItemName: item.Name, Reason: fmt.Sprintf(format, args...)}
	}

	switch {
	case item.Volume() > container.Volume()+Epsilon:
		return oversized("volume %g exceeds container volume %g", item.Volume(), container.Volume())
	case item.Weight > container.WeightCapacity+Epsilon:
		return oversized("weight %g exceeds weight capacity %g", item.Weight, container.WeightCapacity)
	case item.Length > container.Length:
		return oversized("length %g exceeds container length %g", item.Length, container.Length)
	case item.Width > container.Width:
		return oversized("width %g exceeds container width %g", item.Width, container.Width)
	case item.Height > container.Height:
		return oversized("height %g exceeds container height %g", item.Height, container.Height)
	}
	return nil
}

type simulation struct {
	container  ContainerType
	containers []*containerState
}

func (s *simulation) open() *containerState {
	c := &containerState{
		index:     len(s.containers) + 1,
		allocator: NewAllocator(s.container.Size()),
		groups:    make(map[string]*ItemGroup),
	}
	s.containers = append(s.containers, c)
	return c
}

type containerState struct {
	index      int
	allocator  *Allocator
	placements []Placement
	groups     map[string]*ItemGroup
	order      []string
	volume     float64
	weight     float64
}

func (c *containerState) add(item ItemType, pos Position, size Size) {
	c.placements = append(c.placements, Placement{ItemID: item.ID, Position: pos, Size: size})

	group, ok := c.groups[item.ID]
	if !ok {
		group = &ItemGroup{Item: item, Size: size, Weight: item.Weight}
		c.groups[item.ID] = group
		c.order = append(c.order, item.ID)
	}
	group.Count++
	group.Positions = append(group.Positions, pos)

	c.volume += item.Volume()
	c.weight += item.Weight
}

func (c *containerState) finish(container ContainerType) ContainerLoad {
	groups := make([]ItemGroup, 0, len(c.order))
	for _, id := range c.order {
		g := *c.groups[id]
		g.Positions = append([]Position(nil), g.Positions...)
		sort.SliceStable(g.Positions, func(i, j int) bool {
			return g.Positions[i].Less(g.Positions[j])
		})
		g.Grid = gridCapacity(container, g.Item)
		g.Pattern = PositionPattern{
			Start: g.Positions[0],
			End:   patternEnd(g.Positions[0], g.Count, g.Grid, g.Size),
			Count: g.Count,
		}
		groups = append(groups, g)
	}

	return ContainerLoad{
		Index:      c.index,
		Groups:     groups,
		Placements: c.placements,
		Volume:     c.volume,
		Weight:     c.weight,
		FreeSpaces: c.allocator.Spaces(),
	}
}

// gridCapacity is the per-axis count of item units an empty container could hold.
func gridCapacity(container ContainerType, item ItemType) GridCapacity {
	return GridCapacity{
		X: axisCapacity(container.Length, item.Length),
		Y: axisCapacity(container.Height, item.Height),
		Z: axisCapacity(container.Width, item.Width),
	}
}

func axisCapacity(extent, itemExtent float64) int {
	if itemExtent <= 0 {
		return 1
	}
	n := int(math.Floor(extent/itemExtent + Epsilon))
	if n < 1 {
		return 1
	}
	return n
}

// patternEnd maps the last unit of a group onto the grid, x fastest, then y, then z.
func patternEnd(start Position, count int, grid GridCapacity, size Size) Position {
	index := count - 1
	xi := index % grid.X
	yi := (index / grid.X) % grid.Y
	zi := index / (grid.X * grid.Y)

	return Position{
		X: start.X + float64(xi)*size.Width,
		Y: start.Y + float64(yi)*size.Height,
		Z: start.Z + float64(zi)*size.Depth,
	}
}
