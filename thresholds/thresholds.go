// Package thresholds resolves the region and season adjusted risk cutoffs at a coordinate.
package thresholds

import (
	"herdwatch/types"
)

const Other types.Region = "other"

// Base threshold constants before region/season scaling.
const (
	BaseConvergenceKM = 25.0
	BaseVillageKM     = 5.0
	BaseFarmKM        = 3.0
	BaseScarcityCSI   = 0.45
	BaseConflictScore = 0.5
)

// Multipliers scale each of the five base thresholds.
type Multipliers struct {
	Convergence float64 `yaml:"convergence" json:"convergence"`
	Village     float64 `yaml:"village" json:"village"`
	Farm        float64 `yaml:"farm" json:"farm"`
	Scarcity    float64 `yaml:"scarcity" json:"scarcity"`
	Conflict    float64 `yaml:"conflict" json:"conflict"`
}

var unit = Multipliers{Convergence: 1, Village: 1, Farm: 1, Scarcity: 1, Conflict: 1}

// RegionBox names a bounding box. Boxes are half-open and must not overlap.
type RegionBox struct {
	Name types.Region      `yaml:"name" json:"name"`
	Box  types.BoundingBox `yaml:"box" json:"box"`
}

// Resolver holds the declarative tables. The zero value is not usable; call NewResolver.
type Resolver struct {
	Regions           []RegionBox                  `yaml:"regions"`
	RegionMultipliers map[types.Region]Multipliers `yaml:"region_multipliers"`
	SeasonMultipliers map[types.Season]Multipliers `yaml:"season_multipliers"`
}

// DefaultRegions covers the corridor.
var DefaultRegions = []RegionBox{
	{Name: "upper_nile", Box: types.BoundingBox{MinLat: 8.5, MaxLat: 12, MinLon: 30, MaxLon: 36}},
	{Name: "bahr_el_ghazal", Box: types.BoundingBox{MinLat: 7, MaxLat: 10, MinLon: 24, MaxLon: 30}},
	{Name: "jonglei", Box: types.BoundingBox{MinLat: 6, MaxLat: 8.5, MinLon: 30, MaxLon: 34}},
	{Name: "equatoria", Box: types.BoundingBox{MinLat: 3, MaxLat: 6, MinLon: 24, MaxLon: 36}},
}

// DefaultRegionMultipliers: lower conflict multipliers make the history trigger fire sooner.
var DefaultRegionMultipliers = map[types.Region]Multipliers{
	"upper_nile":     {Convergence: 1.2, Village: 1.0, Farm: 1.2, Scarcity: 1.1, Conflict: 0.9},
	"bahr_el_ghazal": {Convergence: 1.0, Village: 1.1, Farm: 1.0, Scarcity: 1.0, Conflict: 0.8},
	"jonglei":        {Convergence: 1.3, Village: 1.2, Farm: 1.0, Scarcity: 1.05, Conflict: 0.85},
	"equatoria":      {Convergence: 0.8, Village: 1.0, Farm: 1.3, Scarcity: 0.9, Conflict: 1.0},
	Other:            unit,
}

var DefaultSeasonMultipliers = map[types.Season]Multipliers{
	types.SeasonDry:        {Convergence: 1.3, Village: 1.2, Farm: 1.0, Scarcity: 1.15, Conflict: 0.9},
	types.SeasonWet:        {Convergence: 0.8, Village: 1.0, Farm: 1.3, Scarcity: 0.85, Conflict: 1.05},
	types.SeasonTransition: unit,
}

func NewResolver() *Resolver {
	return &Resolver{
		Regions:           DefaultRegions,
		RegionMultipliers: DefaultRegionMultipliers,
		SeasonMultipliers: DefaultSeasonMultipliers,
	}
}

// Region returns the first region box containing p, or "other".
func (r *Resolver) Region(p types.Point) types.Region {
	for _, rb := range r.Regions {
		if rb.Box.Contains(p) {
			return rb.Name
		}
	}
	return Other
}

// Season classifies a day of year (1-366).
func Season(dayOfYear int) types.Season {
	switch {
	case dayOfYear <= 90 || dayOfYear >= 335:
		return types.SeasonDry
	case dayOfYear >= 121 && dayOfYear <= 304:
		return types.SeasonWet
	default:
		return types.SeasonTransition
	}
}

// DayOfYear maps a simulation day onto the calendar, starting from startDOY and shifted by shift days.
func DayOfYear(startDOY, day, shift int) int {
	if startDOY < 1 {
		startDOY = 1
	}
	d := (startDOY - 1 + day + shift) % 365
	if d < 0 {
		d += 365
	}
	return d + 1
}

// Resolve returns the scaled profile at p on the given day of year.
func (r *Resolver) Resolve(p types.Point, dayOfYear int) types.RiskThresholdProfile {
	region := r.Region(p)
	season := Season(dayOfYear)
	rm := lookup(r.RegionMultipliers, region)
	sm := lookup(r.SeasonMultipliers, season)

	return types.RiskThresholdProfile{
		Region:        region,
		Season:        season,
		DayOfYear:     dayOfYear,
		ConvergenceKM: BaseConvergenceKM * rm.Convergence * sm.Convergence,
		VillageKM:     BaseVillageKM * rm.Village * sm.Village,
		FarmKM:        BaseFarmKM * rm.Farm * sm.Farm,
		ScarcityCSI:   clamp01(BaseScarcityCSI * rm.Scarcity * sm.Scarcity),
		ConflictScore: clamp01(BaseConflictScore * rm.Conflict * sm.Conflict),
	}
}

func lookup[K comparable](table map[K]Multipliers, key K) Multipliers {
	if m, ok := table[key]; ok {
		return m
	}
	return unit
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
