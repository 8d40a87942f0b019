package types

// FactorMeasurement holds the raw environmental readings for one coordinate-day.
type FactorMeasurement struct {
	RainfallMM           float64 `firestore:"rainfallMm" json:"rainfallMm"`                     // mm/day
	NDVI                 float64 `firestore:"ndvi" json:"ndvi"`                                 // 0-1
	SoilMoisturePct      float64 `firestore:"soilMoisturePct" json:"soilMoisturePct"`           // %
	WaterExtentPct       float64 `firestore:"waterExtentPct" json:"waterExtentPct"`             // %
	EvapotranspirationMM float64 `firestore:"evapotranspirationMm" json:"evapotranspirationMm"` // mm/day
	LandSurfaceTempC     float64 `firestore:"landSurfaceTempC" json:"landSurfaceTempC"`         // °C
	FloodExtentPct       float64 `firestore:"floodExtentPct" json:"floodExtentPct"`             // %
	DistanceToWaterKM    float64 `firestore:"distanceToWaterKm" json:"distanceToWaterKm"`       // km
	RelativeElevationM   float64 `firestore:"relativeElevationM" json:"relativeElevationM"`     // m
	ConflictIncidents    float64 `firestore:"conflictIncidents" json:"conflictIncidents"`       // incidents/month
}

// Factor names one of the eight weighted suitability factors.
type Factor string

const (
	FactorVegetation         Factor = "vegetation"
	FactorWaterExtent        Factor = "water_extent"
	FactorRainfall           Factor = "rainfall"
	FactorSoilMoisture       Factor = "soil_moisture"
	FactorGeospatial         Factor = "geospatial"
	FactorLandSurfaceTemp    Factor = "land_surface_temperature"
	FactorEvapotranspiration Factor = "evapotranspiration"
	FactorFlood              Factor = "flood"
)

// FactorIndexSet is the normalized [0,1] score per factor.
// The geospatial index is a blend of the three sub-indices kept alongside it.
type FactorIndexSet struct {
	Rainfall           float64 `json:"rainfall"`
	Vegetation         float64 `json:"vegetation"`
	SoilMoisture       float64 `json:"soilMoisture"`
	WaterExtent        float64 `json:"waterExtent"`
	Evapotranspiration float64 `json:"evapotranspiration"`
	LandSurfaceTemp    float64 `json:"landSurfaceTemp"`
	Flood              float64 `json:"flood"`
	Geospatial         float64 `json:"geospatial"`

	WaterProximity float64 `json:"waterProximity"`
	Elevation      float64 `json:"elevation"`
	Conflict       float64 `json:"conflict"`
}

// Index returns the score for f, or 0 for an unknown factor.
func (s FactorIndexSet) Index(f Factor) float64 {
	switch f {
	case FactorVegetation:
		return s.Vegetation
	case FactorWaterExtent:
		return s.WaterExtent
	case FactorRainfall:
		return s.Rainfall
	case FactorSoilMoisture:
		return s.SoilMoisture
	case FactorGeospatial:
		return s.Geospatial
	case FactorLandSurfaceTemp:
		return s.LandSurfaceTemp
	case FactorEvapotranspiration:
		return s.Evapotranspiration
	case FactorFlood:
		return s.Flood
	default:
		return 0
	}
}

// DayScenario carries the caller-supplied modifiers for one simulated day.
type DayScenario struct {
	Day             int     `json:"day" yaml:"day"`
	RainfallAnomaly float64 `json:"rainfallAnomaly" yaml:"rainfall_anomaly"` // -1..1
	DroughtSeverity float64 `json:"droughtSeverity" yaml:"drought_severity"` // 0..1
	FloodExtent     float64 `json:"floodExtent" yaml:"flood_extent"`         // 0..1
	SeasonalShift   int     `json:"seasonalShift" yaml:"seasonal_shift"`     // days
}

// Clamp returns a copy with every modifier forced into its declared range.
func (s DayScenario) Clamp() DayScenario {
	s.RainfallAnomaly = clampRange(s.RainfallAnomaly, -1, 1)
	s.DroughtSeverity = clampRange(s.DroughtSeverity, 0, 1)
	s.FloodExtent = clampRange(s.FloodExtent, 0, 1)
	if s.Day < 0 {
		s.Day = 0
	}
	return s
}

// WithDay returns a copy of s for another simulated day.
func (s DayScenario) WithDay(day int) DayScenario {
	s.Day = day
	return s
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
