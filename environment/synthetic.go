package environment

import (
	"math"

	"herdwatch/noise"
	"herdwatch/types"
)

// Synthetic generates plausible measurements from smooth spatial fields, the day's
// scenario modifiers and a small seeded noise term. Output depends only on its inputs.
type Synthetic struct {
	Noise  noise.Source
	Bounds types.BoundingBox
}

func NewSynthetic(src noise.Source, bounds types.BoundingBox) *Synthetic {
	if src == nil {
		src = noise.Hash{}
	}
	return &Synthetic{Noise: src, Bounds: bounds}
}

// field salts keep the noise draw for each measurement independent.
const (
	saltRain = iota + 1
	saltNDVI
	saltSoil
	saltWater
	saltET
	saltLST
	saltFlood
	saltDistance
	saltElevation
	saltConflict
)

func (g *Synthetic) Measure(p types.Point, s types.DayScenario) types.FactorMeasurement {
	s = s.Clamp()
	north := g.northness(p)
	south := 1 - north
	seasonal := math.Sin(2 * math.Pi * float64(s.Day+s.SeasonalShift) / 365)
	wet := wetland(p)
	hot := conflictHotspot(p)
	n := func(salt int) float64 {
		return noise.Signed(g.Noise.Float(p.Lat, p.Lng, float64(s.Day), float64(salt)))
	}

	m := types.FactorMeasurement{
		RainfallMM: (4+18*south)*(1+0.6*seasonal)*(1+s.RainfallAnomaly)*
			(1-0.8*s.DroughtSeverity) + 2*n(saltRain),
		NDVI: 0.15 + 0.5*south + 0.1*seasonal + 0.1*math.Sin(p.Lng*1.3) -
			0.3*s.DroughtSeverity + 0.1*s.RainfallAnomaly + 0.05*n(saltNDVI),
		SoilMoisturePct: 10 + 35*south + 10*seasonal - 20*s.DroughtSeverity +
			15*s.RainfallAnomaly + 5*n(saltSoil),
		WaterExtentPct: 3 + 30*wet + 20*s.FloodExtent + 4*seasonal*wet -
			5*s.DroughtSeverity + 2*n(saltWater),
		EvapotranspirationMM: 2 + 5*north + 1.5*s.DroughtSeverity + 0.5*n(saltET),
		LandSurfaceTempC:     26 + 10*north + 4*s.DroughtSeverity - 3*seasonal + 2*n(saltLST),
		FloodExtentPct: 100*s.FloodExtent*wet + 4*wet*math.Max(0, seasonal) +
			math.Max(0, n(saltFlood)),
		DistanceToWaterKM:  2 + 40*(1-wet)*(0.5+0.5*north) + 3*n(saltDistance),
		RelativeElevationM: 20 + 150*math.Abs(math.Sin(p.Lat*0.9+p.Lng*0.4)) + 10*n(saltElevation),
		ConflictIncidents:  8*hot + 1.5*n(saltConflict) - 0.5,
	}
	return clampMeasurement(m)
}

// northness is the relative latitude inside the corridor, 0 at the south edge.
func (g *Synthetic) northness(p types.Point) float64 {
	span := g.Bounds.MaxLat - g.Bounds.MinLat
	if span <= 0 {
		return clamp((p.Lat-3)/9, 0, 1)
	}
	return clamp((p.Lat-g.Bounds.MinLat)/span, 0, 1)
}

// wetland peaks over the central floodplain.
func wetland(p types.Point) float64 {
	dLat := p.Lat - 7.5
	dLng := p.Lng - 31
	return math.Exp(-(dLat*dLat/2 + dLng*dLng/1.5))
}

// conflictHotspot peaks over the contested northern border pastures.
func conflictHotspot(p types.Point) float64 {
	dLat := p.Lat - 9.5
	dLng := p.Lng - 28.5
	return math.Exp(-(dLat*dLat + dLng*dLng) / 0.8)
}
