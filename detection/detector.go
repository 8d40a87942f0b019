// Package detection finds predicted herd convergences that carry resource or social
// conflict risk, and proposes a redirect and a delay for each one.
package detection

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"herdwatch/environment"
	"herdwatch/geo"
	"herdwatch/poi"
	"herdwatch/suitability"
	"herdwatch/thresholds"
	"herdwatch/types"
)

const (
	DefaultMinTriggers = 2 // of the four binary triggers, on top of convergence
	DefaultMaxAlerts   = 6
	DefaultMarginDeg   = 0.25

	// --- Severity Thresholds ---
	highDistanceFraction   = 0.3
	highMinTriggers        = 3
	mediumDistanceFraction = 0.5
	mediumMinTriggers      = 2

	// incidents/month that count as a full conflict signal
	incidentScale = 10.0

	// --- Redirect scoring ---
	redirectDistanceKM = 15.0
	redirectVegetation = 0.4
	redirectWater      = 0.3
	redirectClearance  = 0.3
	maxDelayDays       = 2

	riskZoneFraction = 0.5 // of the convergence threshold
)

const (
	RedirectImpact = "Reduces convergence probability by an estimated 60-70%"
	DelayImpact    = "Staggers arrival to avoid simultaneous resource use"
)

// alert ids are UUIDv5 of pair key and absolute day, stable across runs
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("herdwatch/alerts"))

// Engine holds only read-only collaborators; DetectRisks may be called concurrently.
type Engine struct {
	Resolver       *thresholds.Resolver
	Provider       environment.Provider
	POI            *poi.Index
	Bounds         types.BoundingBox
	Margin         float64
	StartDayOfYear int
	MinTriggers    int
	MaxAlerts      int
	Workers        int // max pairs evaluated concurrently per day, 0 = unbounded
}

func NewEngine(provider environment.Provider, resolver *thresholds.Resolver, index *poi.Index, bounds types.BoundingBox) *Engine {
	if resolver == nil {
		resolver = thresholds.NewResolver()
	}
	if index == nil {
		index = poi.NewIndex(nil, nil, nil, nil)
	}
	return &Engine{
		Resolver:       resolver,
		Provider:       provider,
		POI:            index,
		Bounds:         bounds,
		Margin:         DefaultMarginDeg,
		StartDayOfYear: 1,
		MinTriggers:    DefaultMinTriggers,
		MaxAlerts:      DefaultMaxAlerts,
	}
}

// candidate is one alert before deduplication, with the zone and route derived from it.
type candidate struct {
	alert types.Alert
	zone  types.RiskZone
	route types.AlternativeRoute
}

type pair struct {
	a, b   types.Herd
	pa, pb types.Point
}

// DetectRisks evaluates every unordered herd pair on every forecast day offset.
// The only error is context cancellation.
func (e *Engine) DetectRisks(ctx context.Context, herds []types.Herd, day int, scenario types.DayScenario) (types.RiskReport, error) {
	sorted := make([]types.Herd, len(herds))
	copy(sorted, herds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	horizon := 0
	for _, h := range sorted {
		if n := len(h.Forecast); n > horizon {
			horizon = n
		}
	}

	var candidates []candidate
	for offset := 1; offset <= horizon; offset++ {
		pairs := pairsAt(sorted, offset)
		if len(pairs) == 0 {
			continue
		}

		results := make([]*candidate, len(pairs))
		g, gctx := errgroup.WithContext(ctx)
		if e.Workers > 0 {
			g.SetLimit(e.Workers)
		}
		for i, p := range pairs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = e.evaluatePair(p, day, offset, scenario)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return types.RiskReport{}, fmt.Errorf("detect risks at day offset %d: %w", offset, err)
		}

		for _, c := range results {
			if c != nil {
				candidates = append(candidates, *c)
			}
		}
	}

	return e.finalize(candidates), nil
}

// pairsAt lists the pairs whose predicted positions are both known at offset.
func pairsAt(herds []types.Herd, offset int) []pair {
	var pairs []pair
	for i := 0; i < len(herds); i++ {
		pa, ok := herds[i].PositionAt(offset)
		if !ok {
			continue
		}
		for j := i + 1; j < len(herds); j++ {
			if herds[j].ID == herds[i].ID {
				continue
			}
			pb, ok := herds[j].PositionAt(offset)
			if !ok {
				continue
			}
			pairs = append(pairs, pair{a: herds[i], b: herds[j], pa: pa, pb: pb})
		}
	}
	return pairs
}

func (e *Engine) evaluatePair(p pair, day, offset int, scenario types.DayScenario) *candidate {
	distance := geo.HaversineKM(p.pa, p.pb)
	mid := geo.Midpoint(p.pa, p.pb)
	at := day + offset
	s := scenario.WithDay(at)
	profile := e.Resolver.Resolve(mid, thresholds.DayOfYear(e.StartDayOfYear, at, scenario.SeasonalShift))

	if distance > profile.ConvergenceKM {
		return nil
	}

	triggers := e.Triggers(mid, s, profile)
	fired := triggers.Count()
	if fired < e.minTriggers() {
		return nil
	}

	alert := types.Alert{
		ID:         AlertID(p.a.ID, p.b.ID, at),
		HerdA:      p.a.ID,
		HerdB:      p.b.ID,
		Location:   mid,
		Day:        at,
		DaysAway:   offset,
		DistanceKM: distance,
		Severity:   Classify(distance, profile.ConvergenceKM, fired),
		Category:   Categorize(triggers),
		Triggers:   triggers,
		Profile:    profile,
	}
	if station, km, ok := e.POI.NearestStation(mid); ok {
		alert.NearestPost = station.Name
		alert.NearestPostKM = km
	}

	redirect, route := e.redirect(alert, p.a, p.pa, mid, profile, s)
	alert.Actions = []types.SuggestedAction{redirect, delay(alert, p.b)}

	return &candidate{
		alert: alert,
		zone: types.RiskZone{
			AlertID:  alert.ID,
			Center:   mid,
			RadiusKM: profile.ConvergenceKM * riskZoneFraction,
			Severity: alert.Severity,
			Category: alert.Category,
		},
		route: route,
	}
}

// Triggers evaluates the four binary risk conditions at p.
func (e *Engine) Triggers(p types.Point, s types.DayScenario, profile types.RiskThresholdProfile) types.Triggers {
	m := e.Provider.Measure(p, s)
	csi := suitability.CSI(m)

	t := types.Triggers{
		CSI:              csi,
		ResourceScarcity: csi < profile.ScarcityCSI,
		ConflictScore:    ConflictScore(e.POI.ConflictScore(p), m.ConflictIncidents),
	}
	t.ConflictHistory = t.ConflictScore >= profile.ConflictScore

	if settlement, km, ok := e.POI.NearestSettlement(p); ok {
		t.NearestSettlement = settlement.Name
		t.SettlementKM = km
		t.Settlement = km <= profile.VillageKM
	}
	if farm, km, ok := e.POI.NearestFarm(p); ok {
		t.NearestFarm = farm.Name
		t.FarmKM = km
		t.Farmland = km <= profile.FarmKM
	}
	return t
}

// ConflictScore combines the historical zone score with recent incident counts.
func ConflictScore(zoneScore, incidentsPerMonth float64) float64 {
	return suitability.Clamp01(math.Max(zoneScore, incidentsPerMonth/incidentScale))
}

// Classify assigns severity from convergence distance and the number of triggers fired.
func Classify(distanceKM, thresholdKM float64, fired int) types.Severity {
	switch {
	case distanceKM < highDistanceFraction*thresholdKM && fired >= highMinTriggers:
		return types.High
	case distanceKM < mediumDistanceFraction*thresholdKM && fired >= mediumMinTriggers:
		return types.Medium
	default:
		return types.Low
	}
}

func Categorize(t types.Triggers) types.Category {
	if t.Settlement || t.Farmland || t.ConflictHistory {
		return types.CommunityProtection
	}
	return types.ResourceTension
}

func AlertID(herdA, herdB string, day int) string {
	key := fmt.Sprintf("%s@%d", types.PairKey(herdA, herdB), day)
	return uuid.NewSHA1(alertNamespace, []byte(key)).String()
}

func (e *Engine) minTriggers() int {
	if e.MinTriggers <= 0 {
		return DefaultMinTriggers
	}
	return e.MinTriggers
}

func (e *Engine) maxAlerts() int {
	if e.MaxAlerts <= 0 {
		return DefaultMaxAlerts
	}
	return e.MaxAlerts
}

func (e *Engine) inBounds(p types.Point) bool {
	return e.Bounds.Allows(p, e.Margin)
}

// redirect scores the eight compass points around the herd's predicted position
// and builds the matching alternative route.
func (e *Engine) redirect(alert types.Alert, herd types.Herd, from, convergence types.Point, profile types.RiskThresholdProfile, s types.DayScenario) (types.SuggestedAction, types.AlternativeRoute) {
	bestScore := math.Inf(-1)
	bestDir := -1
	var target types.Point

	for i := range geo.Compass {
		c := geo.Destination(from, geo.BearingOf(i), redirectDistanceKM)
		if !e.inBounds(c) {
			continue
		}
		idx := suitability.Indices(e.Provider.Measure(c, s))
		clearance := e.clearance(c, convergence, profile)
		score := redirectVegetation*idx.Vegetation + redirectWater*idx.WaterExtent + redirectClearance*clearance
		if score > bestScore {
			bestScore, bestDir, target = score, i, c
		}
	}

	action := types.SuggestedAction{
		AlertID: alert.ID,
		HerdID:  herd.ID,
		Kind:    types.ActionRedirect,
		Impact:  RedirectImpact,
	}
	if bestDir < 0 {
		target = from
		action.Rationale = fmt.Sprintf("No in-bounds alternative for %s; hold at predicted position and monitor contact with %s", herdLabel(herd), alert.HerdB)
	} else {
		action.Rationale = fmt.Sprintf("Redirect %s %.0f km %s toward better grazing and water, away from the convergence with %s (score %.2f)",
			herdLabel(herd), redirectDistanceKM, geo.Compass[bestDir], alert.HerdB, bestScore)
	}
	action.Target = &types.Point{Lat: target.Lat, Lng: target.Lng}

	waypoints := []types.Point{herd.Position}
	for k := 1; k < alert.DaysAway; k++ {
		if p, ok := herd.PositionAt(k); ok {
			waypoints = append(waypoints, p)
		}
	}
	waypoints = append(waypoints, target)

	route := types.AlternativeRoute{
		AlertID:    alert.ID,
		HerdID:     herd.ID,
		Waypoints:  waypoints,
		DistanceKM: pathKM(waypoints),
		Reason:     fmt.Sprintf("Avoid convergence with %s in %d day(s)", alert.HerdB, alert.DaysAway),
	}
	return action, route
}

// clearance blends distance from the convergence point with distance from
// historical conflict zones, each in [0,1].
func (e *Engine) clearance(c, convergence types.Point, profile types.RiskThresholdProfile) float64 {
	apart := 1.0
	if profile.ConvergenceKM > 0 {
		apart = math.Min(geo.HaversineKM(c, convergence)/(2*profile.ConvergenceKM), 1)
	}
	return 0.5*apart + 0.5*(1-e.POI.ConflictScore(c))
}

func delay(alert types.Alert, herd types.Herd) types.SuggestedAction {
	days := alert.DaysAway
	if days > maxDelayDays {
		days = maxDelayDays
	}
	if days < 1 {
		days = 1
	}
	return types.SuggestedAction{
		AlertID:   alert.ID,
		HerdID:    herd.ID,
		Kind:      types.ActionDelay,
		DelayDays: days,
		Rationale: fmt.Sprintf("Delay %s by %d day(s) so it reaches the area after %s has moved on", herdLabel(herd), days, alert.HerdA),
		Impact:    DelayImpact,
	}
}

func herdLabel(h types.Herd) string {
	if h.Name != "" {
		return h.Name
	}
	return h.ID
}

func pathKM(points []types.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += geo.HaversineKM(points[i-1], points[i])
	}
	return total
}

// finalize deduplicates by herd pair, ranks, caps, and filters the derived outputs.
func (e *Engine) finalize(candidates []candidate) types.RiskReport {
	report := types.RiskReport{
		Alerts:            []types.Alert{},
		RiskZones:         []types.RiskZone{},
		AlternativeRoutes: []types.AlternativeRoute{},
		SuggestedActions:  []types.SuggestedAction{},
	}

	best := make(map[string]int)
	var keys []string
	for i, c := range candidates {
		key := c.alert.PairKey()
		j, seen := best[key]
		if !seen {
			best[key] = i
			keys = append(keys, key)
			continue
		}
		if outranks(c.alert, candidates[j].alert) {
			best[key] = i
		}
	}

	for _, key := range keys {
		report.Alerts = append(report.Alerts, candidates[best[key]].alert)
	}
	sort.SliceStable(report.Alerts, func(i, j int) bool {
		a, b := report.Alerts[i], report.Alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.DaysAway != b.DaysAway {
			return a.DaysAway < b.DaysAway
		}
		return a.PairKey() < b.PairKey()
	})
	if limit := e.maxAlerts(); len(report.Alerts) > limit {
		report.Alerts = report.Alerts[:limit]
	}

	// zones, routes and actions only come from surviving alerts, in alert priority
	// order, so the first route or action per (herd, kind) wins
	routeSeen := make(map[string]bool)
	actionSeen := make(map[string]bool)
	for _, a := range report.Alerts {
		c := candidates[best[a.PairKey()]]
		report.RiskZones = append(report.RiskZones, c.zone)
		routeKey := c.route.HerdID + "|" + string(types.ActionRedirect)
		if !routeSeen[routeKey] {
			routeSeen[routeKey] = true
			report.AlternativeRoutes = append(report.AlternativeRoutes, c.route)
		}
		for _, action := range a.Actions {
			key := action.HerdID + "|" + string(action.Kind)
			if actionSeen[key] {
				continue
			}
			actionSeen[key] = true
			report.SuggestedActions = append(report.SuggestedActions, action)
		}
	}

	return report
}

// outranks prefers higher severity, then the sooner day.
func outranks(a, b types.Alert) bool {
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() < b.Severity.Rank()
	}
	return a.DaysAway < b.DaysAway
}
