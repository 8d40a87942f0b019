package poi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/serjvanilla/go-overpass"

	"herdwatch/types"
)

// OverpassSource pulls settlements and farmland from OpenStreetMap.
// Stations and conflict zones are not mapped in OSM and come from another source.
type OverpassSource struct {
	client  *overpass.Client
	timeout time.Duration
}

func NewOverpassSource(endpoint string, timeout time.Duration) *OverpassSource {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassSource{
		client:  &client,
		timeout: timeout,
	}
}

// overpass wants (south,west,north,east)
func overpassBBox(b types.BoundingBox) string {
	return fmt.Sprintf("%f,%f,%f,%f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

func (s *OverpassSource) Load(ctx context.Context, bbox types.BoundingBox) (*Index, error) {
	area := overpassBBox(bbox)
	query := fmt.Sprintf(`
		[out:json][timeout:%d];
		(
			node["place"~"village|town|hamlet"](%s);
			way["landuse"="farmland"](%s);
		);
		out body;
		>;
		out skel qt;
	`, int(s.timeout.Seconds()), area, area)

	result, err := s.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute settlement query: %w", err)
	}

	settlements, farms := convertResult(result)
	return NewIndex(settlements, farms, nil, nil), nil
}

func (s *OverpassSource) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	type response struct {
		result overpass.Result
		err    error
	}
	done := make(chan response, 1)
	go func() {
		result, err := s.client.Query(query)
		done <- response{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", r.err)
		}
		return &r.result, nil
	}
}

// convertResult maps tagged place nodes to settlements and farmland ways to polygons.
// Output is ordered by OSM id so repeated loads give identical indexes.
func convertResult(result *overpass.Result) ([]types.Settlement, []types.Farm) {
	var settlements []types.Settlement
	var farms []types.Farm

	nodeIDs := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	for _, id := range nodeIDs {
		node := result.Nodes[id]
		if node == nil || node.Tags["place"] == "" {
			continue // skeleton node of a way
		}
		name := node.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("osm-node-%d", node.ID)
		}
		population, _ := strconv.Atoi(node.Tags["population"])
		settlements = append(settlements, types.Settlement{
			Name:       name,
			Location:   types.Point{Lat: node.Lat, Lng: node.Lon},
			Population: population,
		})
	}

	wayIDs := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		wayIDs = append(wayIDs, id)
	}
	sort.Slice(wayIDs, func(i, j int) bool { return wayIDs[i] < wayIDs[j] })

	for _, id := range wayIDs {
		way := result.Ways[id]
		if way == nil || way.Tags["landuse"] != "farmland" {
			continue
		}
		polygon := make([]types.Point, 0, len(way.Nodes))
		for _, n := range way.Nodes {
			if n == nil {
				continue
			}
			polygon = append(polygon, types.Point{Lat: n.Lat, Lng: n.Lon})
		}
		if len(polygon) == 0 {
			continue
		}
		name := way.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("osm-way-%d", way.ID)
		}
		farms = append(farms, types.Farm{Name: name, Polygon: polygon})
	}

	return settlements, farms
}
