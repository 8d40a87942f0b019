package suitability

import (
	"math"

	"herdwatch/types"
)

// Band boundaries.
const (
	HighBandCSI = 0.7
	LowBandCSI  = 0.4
)

// Path cost penalties saturate to a flat value above these measurements.
const (
	conflictSaturation = 5.0  // incidents/month
	floodSaturation    = 10.0 // % extent
	saturatedPenalty   = 1.5
	conflictPenaltyPer = 0.2
	floodPenaltyPer    = 0.1
	minCSIForCost      = 0.01
)

// Band classifies a CSI: high (> 0.7), moderate (0.4 to 0.7 inclusive), low (< 0.4).
func Band(csi float64) types.MovementBand {
	switch {
	case csi > HighBandCSI:
		return types.BandHigh
	case csi >= LowBandCSI:
		return types.BandModerate
	default:
		return types.BandLow
	}
}

// MovementLikelihood returns the band with its likelihood and distance ranges.
// Within a band probability grows linearly as CSI falls.
func MovementLikelihood(csi float64) types.MovementLikelihood {
	csi = Clamp01(csi)
	switch Band(csi) {
	case types.BandHigh:
		return types.MovementLikelihood{
			Band:        types.BandHigh,
			Probability: interpolate(csi, HighBandCSI, 1, 0.40, 0.20),
			MinProb:     0.20, MaxProb: 0.40,
			MinKM: 0, MaxKM: 5,
			Description: "Favorable conditions, herd likely to stay within 0-5 km",
		}
	case types.BandModerate:
		return types.MovementLikelihood{
			Band:        types.BandModerate,
			Probability: interpolate(csi, LowBandCSI, HighBandCSI, 0.70, 0.50),
			MinProb:     0.50, MaxProb: 0.70,
			MinKM: 5, MaxKM: 20,
			Description: "Mixed conditions, local movement of 5-20 km expected",
		}
	default:
		return types.MovementLikelihood{
			Band:        types.BandLow,
			Probability: interpolate(csi, 0, LowBandCSI, 0.95, 0.80),
			MinProb:     0.80, MaxProb: 0.95,
			MinKM: 50, MaxKM: 400,
			Description: "Poor conditions, long-range movement of 50-400 km toward better suitability",
		}
	}
}

// interpolate maps x in [x0,x1] linearly onto [y0,y1].
func interpolate(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return Clamp01(y0)
	}
	t := (x - x0) / (x1 - x0)
	t = math.Max(0, math.Min(1, t))
	return Clamp01(y0 + t*(y1-y0))
}

// PathCost scores a candidate location; lower is better.
func PathCost(m types.FactorMeasurement) float64 {
	return PathCostFor(CSI(m), m)
}

// PathCostFor is PathCost with a precomputed CSI.
func PathCostFor(csi float64, m types.FactorMeasurement) float64 {
	return 1/math.Max(csi, minCSIForCost) + ConflictPenalty(m.ConflictIncidents) + FloodPenalty(m.FloodExtentPct)
}

// ConflictPenalty is the path-cost surcharge for monthly conflict incidents.
func ConflictPenalty(incidents float64) float64 {
	if incidents > conflictSaturation {
		return saturatedPenalty
	}
	return math.Max(0, incidents) * conflictPenaltyPer
}

// FloodPenalty is the path-cost surcharge for flooded area percentage.
func FloodPenalty(floodPct float64) float64 {
	if floodPct > floodSaturation {
		return saturatedPenalty
	}
	return math.Max(0, floodPct) * floodPenaltyPer
}
