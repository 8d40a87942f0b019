// Package environment is the Environmental Signal Provider: it answers "what do the ten raw
// factor measurements look like at this coordinate on this day".
//
// Providers are total. A provider that cannot resolve observed data falls back to the
// synthetic generator rather than returning an error.
package environment

import (
	"herdwatch/types"
)

// Provider resolves raw factor measurements for a coordinate-day.
type Provider interface {
	Measure(p types.Point, s types.DayScenario) types.FactorMeasurement
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(p types.Point, s types.DayScenario) types.FactorMeasurement

func (f ProviderFunc) Measure(p types.Point, s types.DayScenario) types.FactorMeasurement {
	return f(p, s)
}

// Static returns the same measurement everywhere. Useful for tests and demos.
func Static(m types.FactorMeasurement) Provider {
	return ProviderFunc(func(types.Point, types.DayScenario) types.FactorMeasurement { return m })
}

// clampMeasurement forces every field into its declared range.
func clampMeasurement(m types.FactorMeasurement) types.FactorMeasurement {
	m.RainfallMM = clamp(m.RainfallMM, 0, 200)
	m.NDVI = clamp(m.NDVI, 0, 1)
	m.SoilMoisturePct = clamp(m.SoilMoisturePct, 0, 100)
	m.WaterExtentPct = clamp(m.WaterExtentPct, 0, 100)
	m.EvapotranspirationMM = clamp(m.EvapotranspirationMM, 0, 15)
	m.LandSurfaceTempC = clamp(m.LandSurfaceTempC, -10, 60)
	m.FloodExtentPct = clamp(m.FloodExtentPct, 0, 100)
	m.DistanceToWaterKM = clamp(m.DistanceToWaterKM, 0, 300)
	m.RelativeElevationM = clamp(m.RelativeElevationM, -200, 1000)
	m.ConflictIncidents = clamp(m.ConflictIncidents, 0, 100)
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
