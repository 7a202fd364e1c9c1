package catalog

import "github.com/eugenenazirov/load-planner/internal/packing"

// Dimensions are metres, weights kilograms.
var defaultItemTypes = []packing.ItemType{
	{ID: "laptop", Name: "Laptop", Length: 0.3, Width: 0.2, Height: 0.05, Weight: 2},
	{ID: "monitor", Name: "Monitor", Length: 0.5, Width: 0.1, Height: 0.4, Weight: 5},
	{ID: "keyboard", Name: "Keyboard", Length: 0.4, Width: 0.15, Height: 0.03, Weight: 0.8},
	{ID: "mouse", Name: "Mouse", Length: 0.1, Width: 0.07, Height: 0.04, Weight: 0.1},
	{ID: "printer", Name: "Printer", Length: 0.45, Width: 0.4, Height: 0.3, Weight: 8},
}

var defaultContainerTypes = []packing.ContainerType{
	{ID: "small-van", Name: "Small Van", Length: 3, Width: 1.5, Height: 1.8, WeightCapacity: 1000},
	{ID: "medium-truck", Name: "Medium Truck", Length: 6, Width: 2.2, Height: 2.5, WeightCapacity: 5000},
	{ID: "large-truck", Name: "Large Truck", Length: 12, Width: 2.5, Height: 2.7, WeightCapacity: 20000},
}

// DefaultItemTypes returns a copy of the built-in item types.
func DefaultItemTypes() []packing.ItemType {
	return append([]packing.ItemType(nil), defaultItemTypes...)
}

// DefaultContainerTypes returns a copy of the built-in container types.
func DefaultContainerTypes() []packing.ContainerType {
	return append([]packing.ContainerType(nil), defaultContainerTypes...)
}
