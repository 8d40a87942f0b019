// Package suitability converts raw environmental measurements into factor indices,
// the Composite Suitability Index, movement bands and path costs.
package suitability

import (
	"herdwatch/types"
)

// step is a three-band mapping: v < Low → LowIndex, v <= High → MidIndex, otherwise HighIndex.
type step struct {
	Low, High                     float64
	LowIndex, MidIndex, HighIndex float64
}

func (s step) apply(v float64) float64 {
	switch {
	case v < s.Low:
		return s.LowIndex
	case v <= s.High:
		return s.MidIndex
	default:
		return s.HighIndex
	}
}

var (
	rainfallStep    = step{Low: 5, High: 20, LowIndex: 0.2, MidIndex: 0.8, HighIndex: 0.3}
	vegetationStep  = step{Low: 0.2, High: 0.5, LowIndex: 0.2, MidIndex: 0.5, HighIndex: 0.9}
	soilStep        = step{Low: 15, High: 40, LowIndex: 0.2, MidIndex: 0.7, HighIndex: 0.5}
	waterExtentStep = step{Low: 5, High: 25, LowIndex: 0.2, MidIndex: 0.7, HighIndex: 0.9}
	etStep          = step{Low: 2, High: 6, LowIndex: 0.4, MidIndex: 0.8, HighIndex: 0.3}
	lstStep         = step{Low: 25, High: 35, LowIndex: 0.8, MidIndex: 0.6, HighIndex: 0.2}
	floodStep       = step{Low: 5, High: 10, LowIndex: 0.9, MidIndex: 0.5, HighIndex: 0.1}

	waterProximityStep = step{Low: 5, High: 15, LowIndex: 0.9, MidIndex: 0.6, HighIndex: 0.2}
	elevationStep      = step{Low: 20, High: 100, LowIndex: 0.4, MidIndex: 0.8, HighIndex: 0.5}
	conflictStep       = step{Low: 1, High: 5, LowIndex: 0.9, MidIndex: 0.5, HighIndex: 0.1}
)

// Geospatial sub-weights.
const (
	waterProximityWeight = 0.4
	elevationWeight      = 0.3
	conflictWeight       = 0.3
)

// Weight pairs a factor with its fixed rank-derived weight.
type Weight struct {
	Factor types.Factor
	Weight float64
}

// Weights is the aggregation order. Iterating this slice, never a map, keeps sums reproducible.
var Weights = []Weight{
	{types.FactorVegetation, 0.8},
	{types.FactorWaterExtent, 0.7},
	{types.FactorRainfall, 0.6},
	{types.FactorSoilMoisture, 0.5},
	{types.FactorGeospatial, 0.4},
	{types.FactorLandSurfaceTemp, 0.3},
	{types.FactorEvapotranspiration, 0.2},
	{types.FactorFlood, 0.1},
}

// Indices maps a measurement to its factor index set.
func Indices(m types.FactorMeasurement) types.FactorIndexSet {
	s := types.FactorIndexSet{
		Rainfall:           rainfallStep.apply(m.RainfallMM),
		Vegetation:         vegetationStep.apply(m.NDVI),
		SoilMoisture:       soilStep.apply(m.SoilMoisturePct),
		WaterExtent:        waterExtentStep.apply(m.WaterExtentPct),
		Evapotranspiration: etStep.apply(m.EvapotranspirationMM),
		LandSurfaceTemp:    lstStep.apply(m.LandSurfaceTempC),
		Flood:              floodStep.apply(m.FloodExtentPct),
		WaterProximity:     waterProximityStep.apply(m.DistanceToWaterKM),
		Elevation:          elevationStep.apply(m.RelativeElevationM),
		Conflict:           conflictStep.apply(m.ConflictIncidents),
	}
	s.Geospatial = Clamp01(s.WaterProximity*waterProximityWeight +
		s.Elevation*elevationWeight +
		s.Conflict*conflictWeight)
	return s
}

// Composite is the CSI over all eight weighted factors.
func Composite(s types.FactorIndexSet) float64 {
	return CompositeFrom(s, Weights)
}

// CompositeFrom is the weighted mean over the given factors only.
// Dividing by the weight sum keeps the result in [0,1] when factors are omitted.
func CompositeFrom(s types.FactorIndexSet, weights []Weight) float64 {
	var sum, total float64
	for _, w := range weights {
		if w.Weight <= 0 {
			continue
		}
		sum += Clamp01(s.Index(w.Factor)) * w.Weight
		total += w.Weight
	}
	if total == 0 {
		return 0
	}
	return Clamp01(sum / total)
}

// CSI is shorthand for Composite(Indices(m)).
func CSI(m types.FactorMeasurement) float64 {
	return Composite(Indices(m))
}

// DominantFactor returns the factor with the lowest index, first in weight order on ties.
func DominantFactor(s types.FactorIndexSet) types.Factor {
	dominant := Weights[0].Factor
	lowest := s.Index(dominant)
	for _, w := range Weights[1:] {
		if v := s.Index(w.Factor); v < lowest {
			lowest = v
			dominant = w.Factor
		}
	}
	return dominant
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
