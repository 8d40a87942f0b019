package environment

import (
	"os"
	"path/filepath"
	"testing"

	"herdwatch/noise"
	"herdwatch/types"
)

var corridor = types.BoundingBox{MinLat: 3, MaxLat: 12, MinLon: 24, MaxLon: 36}

func inRange(t *testing.T, m types.FactorMeasurement) {
	t.Helper()
	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"rainfall", m.RainfallMM, 0, 200},
		{"ndvi", m.NDVI, 0, 1},
		{"soil", m.SoilMoisturePct, 0, 100},
		{"water", m.WaterExtentPct, 0, 100},
		{"et", m.EvapotranspirationMM, 0, 15},
		{"lst", m.LandSurfaceTempC, -10, 60},
		{"flood", m.FloodExtentPct, 0, 100},
		{"distance", m.DistanceToWaterKM, 0, 300},
		{"elevation", m.RelativeElevationM, -200, 1000},
		{"conflict", m.ConflictIncidents, 0, 100},
	}
	for _, c := range checks {
		if c.v < c.lo || c.v > c.hi {
			t.Errorf("%s = %v outside [%v,%v]", c.name, c.v, c.lo, c.hi)
		}
	}
}

// ---------------------------------------------------------------------------
// Synthetic
// ---------------------------------------------------------------------------

func TestSyntheticDeterministic(t *testing.T) {
	g := NewSynthetic(noise.Hash{}, corridor)
	p := types.Point{Lat: 8.1, Lng: 30.4}
	s := types.DayScenario{Day: 12, RainfallAnomaly: -0.3, DroughtSeverity: 0.4}
	if a, b := g.Measure(p, s), g.Measure(p, s); a != b {
		t.Fatalf("synthetic measurement not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestSyntheticRanges(t *testing.T) {
	g := NewSynthetic(nil, corridor)
	scenarios := []types.DayScenario{
		{},
		{Day: 200, RainfallAnomaly: 1, FloodExtent: 1},
		{Day: 40, RainfallAnomaly: -1, DroughtSeverity: 1},
		{Day: 5, RainfallAnomaly: 7, DroughtSeverity: -3, FloodExtent: 9},
	}
	for lat := corridor.MinLat; lat <= corridor.MaxLat; lat += 1.5 {
		for lng := corridor.MinLon; lng <= corridor.MaxLon; lng += 2 {
			for _, s := range scenarios {
				inRange(t, g.Measure(types.Point{Lat: lat, Lng: lng}, s))
			}
		}
	}
}

func TestSyntheticDroughtDriesOut(t *testing.T) {
	g := NewSynthetic(noise.Constant(0.5), corridor)
	p := types.Point{Lat: 5, Lng: 28}
	wet := g.Measure(p, types.DayScenario{Day: 100})
	dry := g.Measure(p, types.DayScenario{Day: 100, DroughtSeverity: 1})
	if dry.NDVI >= wet.NDVI {
		t.Errorf("drought NDVI %.3f should be below baseline %.3f", dry.NDVI, wet.NDVI)
	}
	if dry.RainfallMM >= wet.RainfallMM {
		t.Errorf("drought rainfall %.3f should be below baseline %.3f", dry.RainfallMM, wet.RainfallMM)
	}
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func ptr(v float64) *float64 { return &v }

func TestSnapshotProviderOverlay(t *testing.T) {
	base := types.FactorMeasurement{NDVI: 0.3, RainfallMM: 10, ConflictIncidents: 0}
	snap := NewSnapshot(0.5, []Observation{
		{Lat: 8.1, Lng: 30.1, NDVI: ptr(0.75), ConflictIncidents: ptr(7)},
	})
	sp := NewSnapshotProvider(snap, Static(base))

	covered := sp.Measure(types.Point{Lat: 8.3, Lng: 30.4}, types.DayScenario{})
	if covered.NDVI != 0.75 || covered.ConflictIncidents != 7 {
		t.Errorf("covered cell = %+v, want overlay NDVI 0.75 conflict 7", covered)
	}
	if covered.RainfallMM != 10 {
		t.Errorf("unobserved field should come from fallback, got rainfall %v", covered.RainfallMM)
	}

	outside := sp.Measure(types.Point{Lat: 5, Lng: 26}, types.DayScenario{})
	if outside != base {
		t.Errorf("uncovered cell = %+v, want fallback %+v", outside, base)
	}
}

func TestSnapshotNilIsEmpty(t *testing.T) {
	var s *Snapshot
	if _, ok := s.Lookup(types.Point{}); ok {
		t.Error("nil snapshot should not resolve cells")
	}
	if s.Len() != 0 {
		t.Error("nil snapshot Len should be 0")
	}
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	content := `cell_deg: 0.25
observations:
  - lat: 7.1
    lng: 31.2
    ndvi: 0.62
    flood_extent_pct: 14
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	o, ok := snap.Lookup(types.Point{Lat: 7.2, Lng: 31.22})
	if !ok {
		t.Fatal("expected covered cell")
	}
	if o.NDVI == nil || *o.NDVI != 0.62 || o.FloodExtentPct == nil || *o.FloodExtentPct != 14 {
		t.Errorf("observation = %+v", o)
	}
	if o.RainfallMM != nil {
		t.Errorf("rainfall should be unset")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
