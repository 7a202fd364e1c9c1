package packing

import "sort"

// Space is an axis-aligned free region inside one container.
// Spaces are values: copying one never aliases another container's state.
type Space struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Origin returns the corner a unit placed in s would occupy.
func (s Space) Origin() Position {
	return Position{X: s.X, Y: s.Y, Z: s.Z}
}

// Volume returns the volume of the region.
func (s Space) Volume() float64 {
	return s.Width * s.Height * s.Depth
}

// Fits reports whether a unit of the given extents fits inside s.
func (s Space) Fits(size Size) bool {
	return s.Width >= size.Width && s.Height >= size.Height && s.Depth >= size.Depth
}

// Split returns the residual regions left after a unit of the given extents is
// placed at the origin of s: one per axis where s is strictly larger.
// Residuals may overlap each other.
func (s Space) Split(size Size) []Space {
	residuals := make([]Space, 0, 3)
	if s.Width > size.Width {
		residuals = append(residuals, Space{
			X: s.X + size.Width, Y: s.Y, Z: s.Z,
			Width: s.Width - size.Width, Height: s.Height, Depth: s.Depth,
		})
	}
	if s.Height > size.Height {
		residuals = append(residuals, Space{
			X: s.X, Y: s.Y + size.Height, Z: s.Z,
			Width: s.Width, Height: s.Height - size.Height, Depth: s.Depth,
		})
	}
	if s.Depth > size.Depth {
		residuals = append(residuals, Space{
			X: s.X, Y: s.Y, Z: s.Z + size.Depth,
			Width: s.Width, Height: s.Height, Depth: s.Depth - size.Depth,
		})
	}

	kept := residuals[:0]
	for _, r := range residuals {
		if r.Width > Epsilon && r.Height > Epsilon && r.Depth > Epsilon {
			kept = append(kept, r)
		}
	}
	return kept
}

// Allocator tracks the free regions of a single container, kept sorted
// bottom first, then back, then left.
type Allocator struct {
	spaces []Space
}

// NewAllocator starts with one free region spanning the whole container.
func NewAllocator(container Size) *Allocator {
	return &Allocator{
		spaces: []Space{{Width: container.Width, Height: container.Height, Depth: container.Depth}},
	}
}

// Spaces returns a copy of the current free regions in placement order.
func (a *Allocator) Spaces() []Space {
	out := make([]Space, len(a.spaces))
	copy(out, a.spaces)
	return out
}

// Find returns the index of the first free region that fits size.
func (a *Allocator) Find(size Size) (int, bool) {
	for i, s := range a.spaces {
		if s.Fits(size) {
			return i, true
		}
	}
	return -1, false
}

// Place consumes the region at index for a unit of the given extents and
// returns the unit's position. The consumed region is replaced by its
// residuals, each inserted at its sorted position. Among equal keys, regions
// that preceded the consumed one stay ahead of the residuals and regions that
// followed it stay behind.
func (a *Allocator) Place(index int, size Size) Position {
	space := a.spaces[index]
	residuals := space.Split(size)
	sortSpaces(residuals)

	rest := append(a.spaces[:index], a.spaces[index+1:]...)
	before, after := rest[:index], rest[index:]

	at := make([]int, len(residuals))
	for k, r := range residuals {
		key := r.Origin()
		// before: regions with key <= r; after: regions with key < r.
		b := sort.Search(len(before), func(i int) bool { return key.Less(before[i].Origin()) })
		c := sort.Search(len(after), func(i int) bool { return !after[i].Origin().Less(key) })
		at[k] = b + c
	}

	n := len(rest)
	out := append(rest, residuals...)
	hi := n
	for k := len(residuals) - 1; k >= 0; k-- {
		lo := at[k]
		copy(out[lo+k+1:hi+k+1], out[lo:hi])
		out[lo+k] = residuals[k]
		hi = lo
	}
	a.spaces = out

	return space.Origin()
}

func sortSpaces(spaces []Space) {
	sort.SliceStable(spaces, func(i, j int) bool {
		return spaces[i].Origin().Less(spaces[j].Origin())
	})
}
