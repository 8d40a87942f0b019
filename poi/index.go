// Package poi is the static Points-of-Interest collaborator: settlements, farm polygons,
// peacekeeping stations and historical conflict zones, with nearest-distance lookups.
package poi

import (
	"context"
	"math"

	"herdwatch/geo"
	"herdwatch/types"
)

// Source loads the points of interest covering a bounding box.
type Source interface {
	Load(ctx context.Context, bbox types.BoundingBox) (*Index, error)
}

// Index is read-only after construction and safe for concurrent lookups.
type Index struct {
	Settlements   []types.Settlement          `json:"settlements" yaml:"settlements"`
	Farms         []types.Farm                `json:"farms" yaml:"farms"`
	Stations      []types.PeacekeepingStation `json:"stations" yaml:"stations"`
	ConflictZones []types.ConflictZone        `json:"conflictZones" yaml:"conflict_zones"`

	farmCentroids []types.Point
}

func NewIndex(settlements []types.Settlement, farms []types.Farm, stations []types.PeacekeepingStation, zones []types.ConflictZone) *Index {
	idx := &Index{
		Settlements:   settlements,
		Farms:         farms,
		Stations:      stations,
		ConflictZones: zones,
	}
	idx.build()
	return idx
}

func (idx *Index) build() {
	idx.farmCentroids = make([]types.Point, len(idx.Farms))
	for i, f := range idx.Farms {
		idx.farmCentroids[i] = geo.Centroid(f.Polygon)
	}
}

// Merge combines several indexes into a new one.
func Merge(parts ...*Index) *Index {
	out := &Index{}
	for _, p := range parts {
		if p == nil {
			continue
		}
		out.Settlements = append(out.Settlements, p.Settlements...)
		out.Farms = append(out.Farms, p.Farms...)
		out.Stations = append(out.Stations, p.Stations...)
		out.ConflictZones = append(out.ConflictZones, p.ConflictZones...)
	}
	out.build()
	return out
}

// NearestSettlement returns the closest settlement and its distance in km.
func (idx *Index) NearestSettlement(p types.Point) (types.Settlement, float64, bool) {
	if idx == nil || len(idx.Settlements) == 0 {
		return types.Settlement{}, math.Inf(1), false
	}
	best, bestKM := 0, geo.HaversineKM(p, idx.Settlements[0].Location)
	for i, s := range idx.Settlements[1:] {
		if d := geo.HaversineKM(p, s.Location); d < bestKM {
			best, bestKM = i+1, d
		}
	}
	return idx.Settlements[best], bestKM, true
}

// NearestFarm returns the farm whose centroid is closest and the centroid distance in km.
func (idx *Index) NearestFarm(p types.Point) (types.Farm, float64, bool) {
	if idx == nil || len(idx.Farms) == 0 {
		return types.Farm{}, math.Inf(1), false
	}
	best, bestKM := 0, geo.HaversineKM(p, idx.farmCentroid(0))
	for i := 1; i < len(idx.Farms); i++ {
		if d := geo.HaversineKM(p, idx.farmCentroid(i)); d < bestKM {
			best, bestKM = i, d
		}
	}
	return idx.Farms[best], bestKM, true
}

// farmCentroid reads the cache filled by NewIndex or Merge and falls back to
// computing the centroid for literal-built indexes. It never writes.
func (idx *Index) farmCentroid(i int) types.Point {
	if len(idx.farmCentroids) == len(idx.Farms) {
		return idx.farmCentroids[i]
	}
	return geo.Centroid(idx.Farms[i].Polygon)
}

// NearestStation returns the closest peacekeeping station.
func (idx *Index) NearestStation(p types.Point) (types.PeacekeepingStation, float64, bool) {
	if idx == nil || len(idx.Stations) == 0 {
		return types.PeacekeepingStation{}, math.Inf(1), false
	}
	best, bestKM := 0, geo.HaversineKM(p, idx.Stations[0].Location)
	for i, s := range idx.Stations[1:] {
		if d := geo.HaversineKM(p, s.Location); d < bestKM {
			best, bestKM = i+1, d
		}
	}
	return idx.Stations[best], bestKM, true
}

// ConflictScore is the strongest historical-zone signal at p in [0,1]:
// intensity at the centre falling linearly to zero at the radius.
func (idx *Index) ConflictScore(p types.Point) float64 {
	if idx == nil {
		return 0
	}
	score := 0.0
	for _, z := range idx.ConflictZones {
		if z.RadiusKM <= 0 {
			continue
		}
		d := geo.HaversineKM(p, z.Center)
		if d >= z.RadiusKM {
			continue
		}
		if s := z.Intensity * (1 - d/z.RadiusKM); s > score {
			score = s
		}
	}
	return math.Max(0, math.Min(1, score))
}
