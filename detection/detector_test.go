package detection

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"herdwatch/environment"
	"herdwatch/geo"
	"herdwatch/poi"
	"herdwatch/types"
)

// origin sits in the "other" region; StartDayOfYear 100 keeps every test day in the
// transition season, so the profile is the unscaled base: convergence 25 km,
// village 5 km, farm 3 km, scarcity 0.45, conflict 0.5.
var origin = types.Point{Lat: 5, Lng: 20}

// scarce scores a CSI of about 0.26.
func scarce() types.FactorMeasurement {
	return types.FactorMeasurement{
		RainfallMM:           2,
		NDVI:                 0.1,
		SoilMoisturePct:      10,
		WaterExtentPct:       2,
		EvapotranspirationMM: 1,
		LandSurfaceTempC:     40,
		FloodExtentPct:       0,
		DistanceToWaterKM:    20,
		RelativeElevationM:   10,
		ConflictIncidents:    0,
	}
}

// herd builds a herd whose current position is positions[0] and whose forecast
// offsets 1..n follow.
func herd(id string, positions ...types.Point) types.Herd {
	h := types.Herd{ID: id, Name: strings.ToUpper(id), Position: positions[0]}
	for k, p := range positions[1:] {
		h.Forecast = append(h.Forecast, types.ForecastPoint{DayOffset: k + 1, Day: k + 1, Position: p})
	}
	return h
}

func village(p types.Point) types.Settlement {
	return types.Settlement{Name: "Village", Location: p}
}

func farmAround(p types.Point) types.Farm {
	d := 0.005
	return types.Farm{Name: "Farm", Polygon: []types.Point{
		{Lat: p.Lat - d, Lng: p.Lng - d}, {Lat: p.Lat - d, Lng: p.Lng + d},
		{Lat: p.Lat + d, Lng: p.Lng + d}, {Lat: p.Lat + d, Lng: p.Lng - d},
	}}
}

func newTestEngine(t *testing.T, m types.FactorMeasurement, index *poi.Index) *Engine {
	t.Helper()
	e := NewEngine(environment.Static(m), nil, index, types.BoundingBox{})
	e.StartDayOfYear = 100
	return e
}

func detect(t *testing.T, e *Engine, herds ...types.Herd) types.RiskReport {
	t.Helper()
	report, err := e.DetectRisks(context.Background(), herds, 0, types.DayScenario{})
	if err != nil {
		t.Fatalf("DetectRisks: %v", err)
	}
	return report
}

// ---- alert emission ----

func TestSameCoordinateScarcityAndSettlement(t *testing.T) {
	e := newTestEngine(t, scarce(), poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil))
	report := detect(t, e, herd("a", origin, origin, origin), herd("b", origin, origin, origin))

	if len(report.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1 after dedup", len(report.Alerts))
	}
	a := report.Alerts[0]
	if a.Severity == types.Low {
		t.Errorf("severity = %s, want medium or high", a.Severity)
	}
	if a.DaysAway != 1 {
		t.Errorf("DaysAway = %d, want the soonest day 1", a.DaysAway)
	}
	if !a.Triggers.ResourceScarcity || !a.Triggers.Settlement || a.Triggers.Farmland || a.Triggers.ConflictHistory {
		t.Errorf("triggers = %+v", a.Triggers)
	}
	if a.Category != types.CommunityProtection {
		t.Errorf("category = %s", a.Category)
	}
	if a.Triggers.NearestSettlement != "Village" {
		t.Errorf("nearest settlement = %q", a.Triggers.NearestSettlement)
	}
}

func TestActionsPerAlert(t *testing.T) {
	e := newTestEngine(t, scarce(), poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil))
	report := detect(t, e, herd("b", origin, origin, origin), herd("a", origin, origin, origin))

	a := report.Alerts[0]
	if a.HerdA != "a" || a.HerdB != "b" {
		t.Fatalf("pair = %s,%s, want sorted a,b", a.HerdA, a.HerdB)
	}
	if len(a.Actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(a.Actions))
	}
	redirect, hold := a.Actions[0], a.Actions[1]
	if redirect.Kind != types.ActionRedirect || redirect.HerdID != "a" || redirect.Target == nil {
		t.Errorf("redirect = %+v", redirect)
	}
	if redirect.Impact != RedirectImpact {
		t.Errorf("redirect impact = %q", redirect.Impact)
	}
	if hold.Kind != types.ActionDelay || hold.HerdID != "b" || hold.DelayDays != 1 {
		t.Errorf("delay = %+v", hold)
	}
	if hold.Impact != DelayImpact {
		t.Errorf("delay impact = %q", hold.Impact)
	}
	for _, action := range a.Actions {
		if action.AlertID != a.ID {
			t.Errorf("action alert id = %q, want %q", action.AlertID, a.ID)
		}
	}
}

func TestDelayCappedAtTwoDays(t *testing.T) {
	far := types.Point{Lat: origin.Lat + 1, Lng: origin.Lng}
	e := newTestEngine(t, scarce(), poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil))
	report := detect(t, e,
		herd("a", far, far, far, far, origin),
		herd("b", origin, origin, origin, origin, origin),
	)
	if len(report.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(report.Alerts))
	}
	if got := report.Alerts[0].DaysAway; got != 4 {
		t.Fatalf("DaysAway = %d, want 4", got)
	}
	if got := report.Alerts[0].Actions[1].DelayDays; got != 2 {
		t.Errorf("DelayDays = %d, want 2", got)
	}
}

func TestBeyondThresholdNoAlert(t *testing.T) {
	// ~33 km apart, over the 25 km convergence threshold
	apart := types.Point{Lat: origin.Lat + 0.3, Lng: origin.Lng}
	index := poi.NewIndex(
		[]types.Settlement{village(origin), village(apart)},
		[]types.Farm{farmAround(origin), farmAround(apart)},
		nil, nil,
	)
	e := newTestEngine(t, scarce(), index)
	report := detect(t, e, herd("a", origin, origin, origin), herd("b", apart, apart, apart))

	if len(report.Alerts) != 0 {
		t.Fatalf("got %d alerts, want none", len(report.Alerts))
	}
	if report.Alerts == nil || report.RiskZones == nil || report.AlternativeRoutes == nil || report.SuggestedActions == nil {
		t.Error("empty report must carry non-nil slices")
	}
}

func TestEmptyHerds(t *testing.T) {
	e := newTestEngine(t, scarce(), nil)
	for _, herds := range [][]types.Herd{nil, {herd("solo", origin, origin)}} {
		report := detect(t, e, herds...)
		if len(report.Alerts) != 0 || report.Alerts == nil {
			t.Errorf("herds=%d: alerts = %v", len(herds), report.Alerts)
		}
	}
}

func TestMinTriggers(t *testing.T) {
	// scarcity only, no POIs nearby
	e := newTestEngine(t, scarce(), nil)
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))
	if len(report.Alerts) != 0 {
		t.Fatalf("one trigger produced %d alerts", len(report.Alerts))
	}

	e.MinTriggers = 1
	report = detect(t, e, herd("a", origin, origin), herd("b", origin, origin))
	if len(report.Alerts) != 1 {
		t.Fatalf("MinTriggers=1: got %d alerts, want 1", len(report.Alerts))
	}
	a := report.Alerts[0]
	if a.Severity != types.Low {
		t.Errorf("severity = %s, want low with one trigger", a.Severity)
	}
	if a.Category != types.ResourceTension {
		t.Errorf("category = %s, want resource_tension", a.Category)
	}
}

func TestHighSeverityWithThreeTriggers(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, []types.Farm{farmAround(origin)}, nil, nil)
	e := newTestEngine(t, scarce(), index)
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))
	if len(report.Alerts) != 1 || report.Alerts[0].Severity != types.High {
		t.Fatalf("alerts = %+v, want one high", report.Alerts)
	}
}

func TestConflictHistoryTrigger(t *testing.T) {
	index := poi.NewIndex(nil, nil, nil, []types.ConflictZone{
		{Name: "hotspot", Center: origin, RadiusKM: 30, Intensity: 0.9},
	})
	e := newTestEngine(t, scarce(), index)
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))
	if len(report.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(report.Alerts))
	}
	tr := report.Alerts[0].Triggers
	if !tr.ConflictHistory || math.Abs(tr.ConflictScore-0.9) > 1e-9 {
		t.Errorf("triggers = %+v", tr)
	}
}

func TestNearestPostAttached(t *testing.T) {
	post := types.Point{Lat: origin.Lat + 0.1, Lng: origin.Lng}
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil,
		[]types.PeacekeepingStation{{Name: "Post 1", Location: post}}, nil)
	e := newTestEngine(t, scarce(), index)
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))
	a := report.Alerts[0]
	if a.NearestPost != "Post 1" || a.NearestPostKM < 10 || a.NearestPostKM > 12 {
		t.Errorf("nearest post = %q at %.2f km", a.NearestPost, a.NearestPostKM)
	}
}

// ---- classification ----

func TestClassify(t *testing.T) {
	tests := []struct {
		distance float64
		fired    int
		want     types.Severity
	}{
		{0, 3, types.High},
		{7.4, 3, types.High},
		{7.5, 3, types.Medium},
		{0, 2, types.Medium},
		{12.4, 2, types.Medium},
		{12.5, 2, types.Low},
		{0, 1, types.Low},
		{20, 4, types.Low},
	}
	for _, tc := range tests {
		if got := Classify(tc.distance, 25, tc.fired); got != tc.want {
			t.Errorf("Classify(%v km, %d) = %s, want %s", tc.distance, tc.fired, got, tc.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	if got := Categorize(types.Triggers{ResourceScarcity: true}); got != types.ResourceTension {
		t.Errorf("scarcity only = %s", got)
	}
	for _, tr := range []types.Triggers{{Settlement: true}, {Farmland: true}, {ConflictHistory: true}} {
		if got := Categorize(tr); got != types.CommunityProtection {
			t.Errorf("Categorize(%+v) = %s", tr, got)
		}
	}
}

func TestConflictScore(t *testing.T) {
	tests := []struct {
		zone, incidents, want float64
	}{
		{0, 0, 0},
		{0.3, 6, 0.6},
		{0.8, 2, 0.8},
		{0, 25, 1},
	}
	for _, tc := range tests {
		if got := ConflictScore(tc.zone, tc.incidents); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ConflictScore(%v, %v) = %v, want %v", tc.zone, tc.incidents, got, tc.want)
		}
	}
}

func TestAlertID(t *testing.T) {
	if AlertID("a", "b", 3) != AlertID("b", "a", 3) {
		t.Error("alert id depends on herd order")
	}
	if AlertID("a", "b", 3) == AlertID("a", "b", 4) {
		t.Error("alert id ignores the day")
	}
}

// ---- post-processing ----

func TestDedupKeepsHighestSeverity(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, []types.Farm{farmAround(origin)}, nil, nil)
	e := newTestEngine(t, scarce(), index)
	// ~10 km apart on day 1 (medium), together on day 2 (high)
	north := types.Point{Lat: origin.Lat + 0.045, Lng: origin.Lng}
	south := types.Point{Lat: origin.Lat - 0.045, Lng: origin.Lng}
	report := detect(t, e, herd("a", north, north, origin), herd("b", south, south, origin))

	if len(report.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(report.Alerts))
	}
	a := report.Alerts[0]
	if a.Severity != types.High || a.DaysAway != 2 {
		t.Errorf("kept %s on day %d, want high on day 2", a.Severity, a.DaysAway)
	}
	if len(report.RiskZones) != 1 || report.RiskZones[0].AlertID != a.ID {
		t.Errorf("risk zones = %+v", report.RiskZones)
	}
	if len(report.AlternativeRoutes) != 1 || report.AlternativeRoutes[0].AlertID != a.ID {
		t.Errorf("routes = %+v", report.AlternativeRoutes)
	}
}

func TestCapSortAndFilter(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil)
	e := newTestEngine(t, scarce(), index)
	var herds []types.Herd
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		herds = append(herds, herd(id, origin, origin, origin))
	}
	report := detect(t, e, herds...)

	if len(report.Alerts) != DefaultMaxAlerts {
		t.Fatalf("got %d alerts, want %d of the 10 pairs", len(report.Alerts), DefaultMaxAlerts)
	}

	ids := make(map[string]bool)
	pairs := make(map[string]bool)
	for i, a := range report.Alerts {
		ids[a.ID] = true
		if pairs[a.PairKey()] {
			t.Errorf("pair %s reported twice", a.PairKey())
		}
		pairs[a.PairKey()] = true
		if i > 0 {
			prev := report.Alerts[i-1]
			if prev.Severity.Rank() > a.Severity.Rank() ||
				(prev.Severity == a.Severity && prev.DaysAway > a.DaysAway) {
				t.Errorf("alerts out of order at %d", i)
			}
		}
	}

	for _, z := range report.RiskZones {
		if !ids[z.AlertID] {
			t.Errorf("risk zone for dropped alert %s", z.AlertID)
		}
	}
	routeHerds := make(map[string]bool)
	for _, r := range report.AlternativeRoutes {
		if !ids[r.AlertID] {
			t.Errorf("route for dropped alert %s", r.AlertID)
		}
		if routeHerds[r.HerdID] {
			t.Errorf("duplicate route for herd %s", r.HerdID)
		}
		routeHerds[r.HerdID] = true
	}
	seen := make(map[string]bool)
	for _, a := range report.SuggestedActions {
		key := a.HerdID + "|" + string(a.Kind)
		if seen[key] {
			t.Errorf("duplicate action %s", key)
		}
		seen[key] = true
	}
}

func TestDetectRisksDeterministic(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil)
	e := newTestEngine(t, scarce(), index)
	herds := []types.Herd{herd("a", origin, origin, origin), herd("b", origin, origin, origin), herd("c", origin, origin, origin)}
	first := detect(t, e, herds...)
	second := detect(t, e, herds[2], herds[0], herds[1])
	if !reflect.DeepEqual(first, second) {
		t.Error("reports differ between identical runs")
	}
}

func TestDetectRisksCancelled(t *testing.T) {
	e := newTestEngine(t, scarce(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.DetectRisks(ctx, []types.Herd{herd("a", origin, origin), herd("b", origin, origin)}, 0, types.DayScenario{}); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestDetectRisksLiteralIndexConcurrent(t *testing.T) {
	// built without NewIndex, so no centroid cache; run with -race
	index := &poi.Index{Farms: []types.Farm{farmAround(origin)}}
	e := newTestEngine(t, scarce(), index)
	var herds []types.Herd
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		herds = append(herds, herd(id, origin, origin, origin))
	}
	report := detect(t, e, herds...)
	if len(report.Alerts) == 0 {
		t.Fatal("expected alerts for co-located herds")
	}
	for _, a := range report.Alerts {
		if !a.Triggers.Farmland {
			t.Errorf("alert %s: farmland trigger not fired", types.PairKey(a.HerdA, a.HerdB))
		}
	}
}

// ---- redirect ----

func TestRedirectAvoidsConflictZone(t *testing.T) {
	// uniform environment ties every direction, so without the zone the redirect goes N
	north := geo.Destination(origin, geo.BearingOf(0), redirectDistanceKM)
	zone := types.ConflictZone{Name: "cattle camp", Center: north, RadiusKM: 10, Intensity: 1}
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, []types.ConflictZone{zone})
	e := newTestEngine(t, scarce(), index)
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))

	redirect := report.Alerts[0].Actions[0]
	if !strings.Contains(redirect.Rationale, " km NE ") {
		t.Errorf("rationale = %q, want a move NE around the zone", redirect.Rationale)
	}
	if redirect.Target == nil || geo.HaversineKM(*redirect.Target, north) < zone.RadiusKM {
		t.Errorf("redirect target %+v inside the conflict zone", redirect.Target)
	}
}

func TestRedirectStaysInBounds(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil)
	e := newTestEngine(t, scarce(), index)
	// origin is on the northern margin, so N, NE and NW are out
	e.Bounds = types.BoundingBox{MinLat: 4, MaxLat: 5.3, MinLon: 19, MaxLon: 21}
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))

	target := report.Alerts[0].Actions[0].Target
	if target == nil || !e.Bounds.ContainsWithMargin(*target, e.Margin) {
		t.Fatalf("redirect target %+v outside bounds", target)
	}
	if *target == origin {
		t.Error("redirect did not move although in-bounds candidates exist")
	}
}

func TestRedirectNoCandidate(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil)
	e := newTestEngine(t, scarce(), index)
	e.Bounds = types.BoundingBox{MinLat: 4.7, MaxLat: 5.3, MinLon: 19.7, MaxLon: 20.3}
	report := detect(t, e, herd("a", origin, origin), herd("b", origin, origin))

	redirect := report.Alerts[0].Actions[0]
	if redirect.Target == nil || *redirect.Target != origin {
		t.Errorf("target = %+v, want the predicted position", redirect.Target)
	}
	if !strings.Contains(redirect.Rationale, "No in-bounds alternative") {
		t.Errorf("rationale = %q", redirect.Rationale)
	}
}

func TestRouteFollowsForecastThenDiverts(t *testing.T) {
	index := poi.NewIndex([]types.Settlement{village(origin)}, nil, nil, nil)
	e := newTestEngine(t, scarce(), index)
	start := types.Point{Lat: origin.Lat + 0.1, Lng: origin.Lng}
	step := types.Point{Lat: origin.Lat + 0.05, Lng: origin.Lng}
	far := types.Point{Lat: origin.Lat - 1, Lng: origin.Lng}
	report := detect(t, e, herd("a", start, step, origin), herd("b", far, far, origin))

	if len(report.AlternativeRoutes) != 1 {
		t.Fatalf("routes = %+v", report.AlternativeRoutes)
	}
	r := report.AlternativeRoutes[0]
	if r.HerdID != "a" || len(r.Waypoints) != 3 {
		t.Fatalf("route = %+v", r)
	}
	if r.Waypoints[0] != start || r.Waypoints[1] != step {
		t.Errorf("route does not follow the forecast: %+v", r.Waypoints)
	}
	if r.DistanceKM <= 0 {
		t.Errorf("route distance = %v", r.DistanceKM)
	}
}
