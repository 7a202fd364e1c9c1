// Package packing implements the container-loading engine: free-space
// tracking inside a container, first-fit placement with three-way splitting,
// overflow into additional containers, utilization measurement and filler
// recommendations.
//
// The engine uses a single item orientation: item length runs along the
// container length (x), item height along the container height (y) and item
// width along the container width (z).
package packing
