package environment

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"herdwatch/types"
)

// Observation holds whatever observed values are known for one grid cell.
// Nil fields are left to the fallback provider.
type Observation struct {
	Lat                  float64  `yaml:"lat" json:"lat"`
	Lng                  float64  `yaml:"lng" json:"lng"`
	RainfallMM           *float64 `yaml:"rainfall_mm,omitempty" json:"rainfallMm,omitempty"`
	NDVI                 *float64 `yaml:"ndvi,omitempty" json:"ndvi,omitempty"`
	SoilMoisturePct      *float64 `yaml:"soil_moisture_pct,omitempty" json:"soilMoisturePct,omitempty"`
	WaterExtentPct       *float64 `yaml:"water_extent_pct,omitempty" json:"waterExtentPct,omitempty"`
	EvapotranspirationMM *float64 `yaml:"evapotranspiration_mm,omitempty" json:"evapotranspirationMm,omitempty"`
	LandSurfaceTempC     *float64 `yaml:"land_surface_temp_c,omitempty" json:"landSurfaceTempC,omitempty"`
	FloodExtentPct       *float64 `yaml:"flood_extent_pct,omitempty" json:"floodExtentPct,omitempty"`
	ConflictIncidents    *float64 `yaml:"conflict_incidents,omitempty" json:"conflictIncidents,omitempty"`
}

type cellKey struct {
	i, j int
}

// Snapshot is an immutable grid of observed values. It is built once by whatever
// fetched the data and handed to a SnapshotProvider; reads are safe from any goroutine.
type Snapshot struct {
	cellDeg float64
	cells   map[cellKey]Observation
}

// NewSnapshot indexes observations into cells of cellDeg degrees.
// Later observations for the same cell replace earlier ones.
func NewSnapshot(cellDeg float64, observations []Observation) *Snapshot {
	if cellDeg <= 0 {
		cellDeg = 0.25
	}
	s := &Snapshot{cellDeg: cellDeg, cells: make(map[cellKey]Observation, len(observations))}
	for _, o := range observations {
		s.cells[s.key(types.Point{Lat: o.Lat, Lng: o.Lng})] = o
	}
	return s
}

func (s *Snapshot) key(p types.Point) cellKey {
	return cellKey{i: int(math.Floor(p.Lat / s.cellDeg)), j: int(math.Floor(p.Lng / s.cellDeg))}
}

// Lookup returns the observation covering p, if any.
func (s *Snapshot) Lookup(p types.Point) (Observation, bool) {
	if s == nil {
		return Observation{}, false
	}
	o, ok := s.cells[s.key(p)]
	return o, ok
}

// Len is the number of populated cells.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cells)
}

type snapshotFile struct {
	CellDeg      float64       `yaml:"cell_deg"`
	Observations []Observation `yaml:"observations"`
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f snapshotFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return NewSnapshot(f.CellDeg, f.Observations), nil
}

// SnapshotProvider overlays observed values on top of a fallback provider.
type SnapshotProvider struct {
	Snapshot *Snapshot
	Fallback Provider
}

func NewSnapshotProvider(snapshot *Snapshot, fallback Provider) *SnapshotProvider {
	return &SnapshotProvider{Snapshot: snapshot, Fallback: fallback}
}

func (sp *SnapshotProvider) Measure(p types.Point, s types.DayScenario) types.FactorMeasurement {
	m := sp.Fallback.Measure(p, s)
	o, ok := sp.Snapshot.Lookup(p)
	if !ok {
		return m
	}
	overlay(&m.RainfallMM, o.RainfallMM)
	overlay(&m.NDVI, o.NDVI)
	overlay(&m.SoilMoisturePct, o.SoilMoisturePct)
	overlay(&m.WaterExtentPct, o.WaterExtentPct)
	overlay(&m.EvapotranspirationMM, o.EvapotranspirationMM)
	overlay(&m.LandSurfaceTempC, o.LandSurfaceTempC)
	overlay(&m.FloodExtentPct, o.FloodExtentPct)
	overlay(&m.ConflictIncidents, o.ConflictIncidents)
	return clampMeasurement(m)
}

func overlay(dst *float64, v *float64) {
	if v != nil && !math.IsNaN(*v) {
		*dst = *v
	}
}
