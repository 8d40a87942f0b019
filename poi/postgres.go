package poi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"herdwatch/types"
)

// PostGISSource reads curated points of interest from a PostGIS database.
//
// Expected tables, all in SRID 4326:
//
//	settlements(name text, population int, geom geometry(Point))
//	farms(name text, geom geometry(Polygon))
//	peacekeeping_stations(name text, contact text, geom geometry(Point))
//	conflict_zones(name text, radius_km float8, intensity float8, geom geometry(Point))
type PostGISSource struct {
	db *sqlx.DB
}

func NewPostGISSource(connStr string) (*PostGISSource, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostGISSource{db: db}, nil
}

func (r *PostGISSource) Close() error {
	return r.db.Close()
}

type pointRow struct {
	Name       string  `db:"name"`
	Population int     `db:"population"`
	Contact    string  `db:"contact"`
	RadiusKM   float64 `db:"radius_km"`
	Intensity  float64 `db:"intensity"`
	Lat        float64 `db:"lat"`
	Lng        float64 `db:"lng"`
}

type polygonRow struct {
	Name    string `db:"name"`
	GeoJSON string `db:"geojson"`
}

const (
	settlementQuery = `
		SELECT name, COALESCE(population, 0) AS population, ST_Y(geom) AS lat, ST_X(geom) AS lng
		FROM settlements
		WHERE ST_Intersects(geom, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY name`

	farmQuery = `
		SELECT name, ST_AsGeoJSON(geom) AS geojson
		FROM farms
		WHERE ST_Intersects(geom, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY name`

	stationQuery = `
		SELECT name, COALESCE(contact, '') AS contact, ST_Y(geom) AS lat, ST_X(geom) AS lng
		FROM peacekeeping_stations
		ORDER BY name`

	conflictZoneQuery = `
		SELECT name, radius_km, intensity, ST_Y(geom) AS lat, ST_X(geom) AS lng
		FROM conflict_zones
		WHERE ST_DWithin(geom::geography, ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography, radius_km * 1000)
		ORDER BY name`
)

// Load returns everything intersecting bbox. Stations are not filtered, an alert
// near the corridor edge may be closest to a post outside it.
func (r *PostGISSource) Load(ctx context.Context, bbox types.BoundingBox) (*Index, error) {
	args := []interface{}{bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat}

	var settlementRows []pointRow
	if err := r.db.SelectContext(ctx, &settlementRows, settlementQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}

	var farmRows []polygonRow
	if err := r.db.SelectContext(ctx, &farmRows, farmQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to query farms: %w", err)
	}

	var stationRows []pointRow
	if err := r.db.SelectContext(ctx, &stationRows, stationQuery); err != nil {
		return nil, fmt.Errorf("failed to query peacekeeping stations: %w", err)
	}

	var zoneRows []pointRow
	if err := r.db.SelectContext(ctx, &zoneRows, conflictZoneQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to query conflict zones: %w", err)
	}

	settlements := make([]types.Settlement, 0, len(settlementRows))
	for _, row := range settlementRows {
		settlements = append(settlements, types.Settlement{
			Name:       row.Name,
			Location:   types.Point{Lat: row.Lat, Lng: row.Lng},
			Population: row.Population,
		})
	}

	farms := make([]types.Farm, 0, len(farmRows))
	for _, row := range farmRows {
		polygon, err := parsePolygon(row.GeoJSON)
		if err != nil {
			return nil, fmt.Errorf("farm %q: %w", row.Name, err)
		}
		farms = append(farms, types.Farm{Name: row.Name, Polygon: polygon})
	}

	stations := make([]types.PeacekeepingStation, 0, len(stationRows))
	for _, row := range stationRows {
		stations = append(stations, types.PeacekeepingStation{
			Name:     row.Name,
			Location: types.Point{Lat: row.Lat, Lng: row.Lng},
			Contact:  row.Contact,
		})
	}

	zones := make([]types.ConflictZone, 0, len(zoneRows))
	for _, row := range zoneRows {
		zones = append(zones, types.ConflictZone{
			Name:      row.Name,
			Center:    types.Point{Lat: row.Lat, Lng: row.Lng},
			RadiusKM:  row.RadiusKM,
			Intensity: row.Intensity,
		})
	}

	return NewIndex(settlements, farms, stations, zones), nil
}

// parsePolygon reads the outer ring of a GeoJSON Polygon. Coordinates are [lng, lat].
func parsePolygon(raw string) ([]types.Point, error) {
	var g struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("invalid geojson: %w", err)
	}
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("expected Polygon, got %q", g.Type)
	}
	if len(g.Coordinates) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}
	ring := g.Coordinates[0]
	out := make([]types.Point, 0, len(ring))
	for _, c := range ring {
		if len(c) < 2 {
			return nil, fmt.Errorf("coordinate has %d components", len(c))
		}
		out = append(out, types.Point{Lat: c[1], Lng: c[0]})
	}
	return out, nil
}
