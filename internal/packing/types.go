package packing

// Epsilon absorbs floating-point drift in capacity and extent comparisons.
const Epsilon = 1e-9

// ItemType is an immutable catalog entry describing a box-shaped cargo unit.
type ItemType struct {
	ID     string  `json:"id" yaml:"id" toml:"id"`
	Name   string  `json:"name" yaml:"name" toml:"name"`
	Length float64 `json:"length" yaml:"length" toml:"length"`
	Width  float64 `json:"width" yaml:"width" toml:"width"`
	Height float64 `json:"height" yaml:"height" toml:"height"`
	Weight float64 `json:"weight" yaml:"weight" toml:"weight"`
}

// Volume returns length × width × height.
func (t ItemType) Volume() float64 {
	return t.Length * t.Width * t.Height
}

// Size returns the item extents in the container frame.
func (t ItemType) Size() Size {
	return Size{Width: t.Length, Height: t.Height, Depth: t.Width}
}

// ContainerType is an immutable catalog entry describing a fixed-capacity container.
type ContainerType struct {
	ID             string  `json:"id" yaml:"id" toml:"id"`
	Name           string  `json:"name" yaml:"name" toml:"name"`
	Length         float64 `json:"length" yaml:"length" toml:"length"`
	Width          float64 `json:"width" yaml:"width" toml:"width"`
	Height         float64 `json:"height" yaml:"height" toml:"height"`
	WeightCapacity float64 `json:"weightCapacity" yaml:"weight_capacity" toml:"weight_capacity"`
}

// Volume returns length × width × height.
func (c ContainerType) Volume() float64 {
	return c.Length * c.Width * c.Height
}

// Size returns the container extents in its local frame.
func (c ContainerType) Size() Size {
	return Size{Width: c.Length, Height: c.Height, Depth: c.Width}
}

// Validate reports whether the container type can hold anything at all.
func (c ContainerType) Validate() error {
	if c.Length <= 0 || c.Width <= 0 || c.Height <= 0 || c.WeightCapacity <= 0 {
		return &InvalidContainerError{ContainerID: c.ID}
	}
	return nil
}

// ItemRequest asks for Quantity units of Item.
type ItemRequest struct {
	Item     ItemType
	Quantity int
}

// Position is a point in a container's local frame.
// X runs along the container length, Y along its height and Z along its width.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Less orders positions bottom first, then back, then left.
func (p Position) Less(o Position) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	if p.Z != o.Z {
		return p.Z < o.Z
	}
	return p.X < o.X
}

// Size holds extents along the x (Width), y (Height) and z (Depth) axes.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Placement records where one unit landed.
type Placement struct {
	ItemID   string   `json:"itemId"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// GridCapacity is how many units of one item type fit along each axis of an empty container.
type GridCapacity struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// PositionPattern is a compact summary of where a group sits, for renderers.
type PositionPattern struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
	Count int      `json:"count"`
}

// ItemGroup aggregates the placements of one item type inside one container.
// It is derived after simulation and never edited by hand.
type ItemGroup struct {
	Item      ItemType        `json:"item"`
	Count     int             `json:"count"`
	Positions []Position      `json:"positions"`
	Size      Size            `json:"size"`
	Weight    float64         `json:"weight"`
	Pattern   PositionPattern `json:"pattern"`
	Grid      GridCapacity    `json:"grid"`
}

// ContainerLoad is one simulated container instance.
type ContainerLoad struct {
	Index      int         `json:"index"`
	Groups     []ItemGroup `json:"groups"`
	Placements []Placement `json:"-"`
	Volume     float64     `json:"volume"`
	Weight     float64     `json:"weight"`
	FreeSpaces []Space     `json:"-"`
}

// Units returns the number of units placed in the container.
func (l ContainerLoad) Units() int {
	return len(l.Placements)
}
