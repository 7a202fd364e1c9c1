package packing

import "math"

// Measurement describes how much of a container's capacity a load uses.
// Percentages are in the range 0–100.
type Measurement struct {
	VolumeUtilization float64 `json:"volumeUtilization"`
	WeightUtilization float64 `json:"weightUtilization"`
	// Utilization is the binding constraint: the larger of the two ratios.
	Utilization     float64 `json:"utilization"`
	RemainingVolume float64 `json:"remainingVolume"`
	RemainingWeight float64 `json:"remainingWeight"`
}

// Measure derives usage ratios and leftover capacity for one container load.
func Measure(container ContainerType, load ContainerLoad) Measurement {
	capacityVolume := container.Volume()
	capacityWeight := container.WeightCapacity

	var m Measurement
	if capacityVolume > 0 {
		m.VolumeUtilization = load.Volume / capacityVolume * 100
	}
	if capacityWeight > 0 {
		m.WeightUtilization = load.Weight / capacityWeight * 100
	}
	m.Utilization = math.Max(m.VolumeUtilization, m.WeightUtilization)
	m.RemainingVolume, m.RemainingWeight = RemainingCapacity(load.Volume, load.Weight, capacityVolume, capacityWeight)
	return m
}

// RemainingCapacity returns the unused volume and weight, never negative.
func RemainingCapacity(usedVolume, usedWeight, capacityVolume, capacityWeight float64) (float64, float64) {
	return math.Max(0, capacityVolume-usedVolume), math.Max(0, capacityWeight-usedWeight)
}

// Full reports whether the binding constraint has reached 100%.
func (m Measurement) Full() bool {
	return m.Utilization >= 100
}
