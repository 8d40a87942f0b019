// Package simulation advances herds one simulated day at a time by greedy lowest-cost moves.
package simulation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"herdwatch/environment"
	"herdwatch/geo"
	"herdwatch/noise"
	"herdwatch/suitability"
	"herdwatch/types"
)

const (
	MaxHistoryDays     = 7
	MinForecastDays    = 2
	MaxForecastDays    = 7
	DefaultMarginDeg   = 0.25
	ConfidenceDecay    = 0.9
	candidateJitter    = 0.2 // fraction of step
	lowBandSpeedFactor = 1.2
	lowBandMaxKM       = 80.0
	defaultSpeedKM     = 25.0
)

// Simulator is stateless between calls: every run re-derives trails and forecasts from the seeds.
// A zero Bounds leaves movement unbounded.
type Simulator struct {
	Provider environment.Provider
	Noise    noise.Source
	Bounds   types.BoundingBox
	Margin   float64
	Seeds    []types.HerdSeed
	Workers  int // max herds simulated concurrently, 0 = unbounded
}

func NewSimulator(provider environment.Provider, src noise.Source, bounds types.BoundingBox, seeds []types.HerdSeed) *Simulator {
	if src == nil {
		src = noise.Hash{}
	}
	if provider == nil {
		provider = environment.NewSynthetic(src, bounds)
	}
	return &Simulator{
		Provider: provider,
		Noise:    src,
		Bounds:   bounds,
		Margin:   DefaultMarginDeg,
		Seeds:    seeds,
	}
}

// StepResult is the outcome of one simulated day for one herd.
type StepResult struct {
	From       types.Point
	Position   types.Point
	CSI        float64
	Band       types.MovementBand
	Likelihood types.MovementLikelihood
	Dominant   types.Factor
	BudgetKM   float64
	DistanceKM float64
	Direction  string // compass name, empty when holding position
	Moved      bool
	Rationale  string
}

// Step evaluates the eight compass candidates from pos and picks the cheapest in-bounds one.
func (s *Simulator) Step(pos types.Point, speedKM float64, scenario types.DayScenario) StepResult {
	m := s.Provider.Measure(pos, scenario)
	idx := suitability.Indices(m)
	csi := suitability.Composite(idx)
	band := suitability.Band(csi)

	res := StepResult{
		From:       pos,
		Position:   pos,
		CSI:        csi,
		Band:       band,
		Likelihood: suitability.MovementLikelihood(csi),
		Dominant:   suitability.DominantFactor(idx),
		BudgetKM:   s.travelBudget(band, speedKM, scenario.Day, pos),
	}

	best := -1
	bestCost := math.Inf(1)
	var bestPos types.Point
	var bestDist float64
	for i := range geo.Compass {
		r := s.Noise.Float(float64(scenario.Day), float64(i), pos.Lat, pos.Lng)
		dist := res.BudgetKM * (1 + candidateJitter*noise.Signed(r))
		cand := geo.Destination(pos, geo.BearingOf(i), dist)
		if !s.Bounds.Allows(cand, s.Margin) {
			continue
		}
		cost := suitability.PathCost(s.Provider.Measure(cand, scenario))
		// strict < keeps the first direction on ties
		if cost < bestCost {
			best, bestCost, bestPos, bestDist = i, cost, cand, dist
		}
	}

	if best < 0 {
		res.Rationale = fmt.Sprintf("%s suitability (CSI %.2f), limiting factor %s: no viable move, holding position",
			title(band), csi, res.Dominant)
		return res
	}

	res.Position = bestPos
	res.DistanceKM = bestDist
	res.Direction = geo.Compass[best]
	res.Moved = true
	res.Rationale = fmt.Sprintf("%s suitability (CSI %.2f), limiting factor %s: moving %.1f km %s",
		title(band), csi, res.Dominant, bestDist, res.Direction)
	return res
}

// travelBudget is today's step length in km for the band.
func (s *Simulator) travelBudget(band types.MovementBand, speedKM float64, day int, pos types.Point) float64 {
	if speedKM <= 0 {
		speedKM = defaultSpeedKM
	}
	r := s.Noise.Float(float64(day), -1, pos.Lat, pos.Lng)
	switch band {
	case types.BandHigh:
		return 2 + 3*r
	case types.BandModerate:
		return math.Min(speedKM, 15+5*r)
	default:
		return math.Min(speedKM*lowBandSpeedFactor, lowBandMaxKM)
	}
}

// Simulate builds every herd's trail (up to seven days ending at day) and forecast
// (forecastDays clamped to [2,7]). Herds are independent and run concurrently;
// output order matches the seed order.
func (s *Simulator) Simulate(ctx context.Context, day, forecastDays int, scenario types.DayScenario) ([]types.Herd, error) {
	forecastDays = ClampForecastDays(forecastDays)
	if day < 0 {
		day = 0
	}
	scenario = scenario.Clamp()

	herds := make([]types.Herd, len(s.Seeds))
	g, ctx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for i, seed := range s.Seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			herds[i] = s.SimulateHerd(seed, day, forecastDays, scenario)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulate herds: %w", err)
	}
	return herds, nil
}

// SimulateHerd replays one herd from its seed.
func (s *Simulator) SimulateHerd(seed types.HerdSeed, day, forecastDays int, scenario types.DayScenario) types.Herd {
	start := day - MaxHistoryDays
	if start < 0 {
		start = 0
	}

	pos := seed.Position
	trail := make([]types.TrailPoint, 0, day-start)
	for d := start; d < day; d++ {
		trail = append(trail, types.TrailPoint{Day: d, Position: pos})
		pos = s.Step(pos, seed.SpeedKM, scenario.WithDay(d)).Position
	}

	today := s.Step(pos, seed.SpeedKM, scenario.WithDay(day))
	herd := types.Herd{
		ID:        seed.ID,
		Name:      seed.Name,
		Position:  pos,
		Size:      seed.Size,
		SpeedKM:   seed.SpeedKM,
		CSI:       today.CSI,
		Band:      today.Band,
		Trail:     trail,
		Forecast:  make([]types.ForecastPoint, 0, forecastDays),
		Rationale: today.Rationale,
	}

	step := today
	for k := 1; k <= forecastDays; k++ {
		if k > 1 {
			step = s.Step(step.Position, seed.SpeedKM, scenario.WithDay(day+k-1))
		}
		at := step.Position
		csi := suitability.CSI(s.Provider.Measure(at, scenario.WithDay(day+k)))
		herd.Forecast = append(herd.Forecast, types.ForecastPoint{
			DayOffset:  k,
			Day:        day + k,
			Position:   at,
			CSI:        csi,
			Band:       suitability.Band(csi),
			Likelihood: suitability.MovementLikelihood(csi),
			Confidence: suitability.Clamp01(math.Pow(ConfidenceDecay, float64(k))),
			Rationale:  step.Rationale,
		})
	}
	return herd
}

func ClampForecastDays(n int) int {
	if n < MinForecastDays {
		return MinForecastDays
	}
	if n > MaxForecastDays {
		return MaxForecastDays
	}
	return n
}

func title(b types.MovementBand) string {
	s := string(b)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
