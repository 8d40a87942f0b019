// Package processor runs the forecast pipeline: simulate, detect, label, brief, persist.
package processor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"herdwatch/db"
	"herdwatch/detection"
	"herdwatch/geocode"
	"herdwatch/simulation"
	"herdwatch/summarization"
	"herdwatch/types"
)

// Request is one forecast invocation.
type Request struct {
	Day          int               `json:"day"`
	ForecastDays int               `json:"forecastDays"`
	Scenario     types.DayScenario `json:"scenario"`
}

// Forecaster ties the core engines to the optional collaborators. Store, Geocoder
// and Briefer may be nil; the matching step is skipped.
type Forecaster struct {
	Simulator *simulation.Simulator
	Engine    *detection.Engine
	Store     db.RunStore
	Geocoder  geocode.ReverseGeocoder
	Briefer   summarization.ChatCompleter
	Now       func() time.Time
}

func (f *Forecaster) normalize(req Request) Request {
	req.ForecastDays = simulation.ClampForecastDays(req.ForecastDays)
	if req.Day < 0 {
		req.Day = 0
	}
	req.Scenario = req.Scenario.Clamp()
	req.Scenario.Day = req.Day
	return req
}

// Simulate returns herd trails and forecasts for the request.
func (f *Forecaster) Simulate(ctx context.Context, req Request) ([]types.Herd, error) {
	req = f.normalize(req)
	return f.Simulator.Simulate(ctx, req.Day, req.ForecastDays, req.Scenario)
}

// Detect simulates and then runs risk detection, without labelling or persistence.
func (f *Forecaster) Detect(ctx context.Context, req Request) ([]types.Herd, types.RiskReport, error) {
	req = f.normalize(req)
	herds, err := f.Simulator.Simulate(ctx, req.Day, req.ForecastDays, req.Scenario)
	if err != nil {
		return nil, types.RiskReport{}, err
	}
	report, err := f.Engine.DetectRisks(ctx, herds, req.Day, req.Scenario)
	if err != nil {
		return nil, types.RiskReport{}, err
	}
	return herds, report, nil
}

// Run executes the full pipeline and persists the result when a store is set.
func (f *Forecaster) Run(ctx context.Context, req Request) (types.ForecastRun, error) {
	// Helper function to append a formatted log message.
	var logBuilder strings.Builder
	addLog := func(format string, args ...interface{}) {
		logBuilder.WriteString(fmt.Sprintf(format, args...))
		logBuilder.WriteString("\n")
	}
	defer func() { log.Println(logBuilder.String()) }()

	req = f.normalize(req)
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	run := types.ForecastRun{
		ID:           uuid.NewString(),
		Day:          req.Day,
		ForecastDays: req.ForecastDays,
		Scenario:     req.Scenario,
		Status:       types.Pending,
		CreatedAt:    now().UTC().Format(time.RFC3339),
	}
	addLog("Forecast run %s: day %d, %d forecast days", run.ID, run.Day, run.ForecastDays)

	herds, report, err := f.Detect(ctx, req)
	if err != nil {
		addLog("Forecast failed: %v", err)
		run.Status = types.Failed
		f.save(ctx, run, addLog)
		return run, fmt.Errorf("forecast run %s: %w", run.ID, err)
	}
	run.Herds = herds
	run.Report = report
	addLog("Simulated %d herds, %d alerts", len(herds), len(report.Alerts))

	if len(run.Report.Alerts) > 0 {
		if f.Geocoder == nil {
			addLog("Geocoder not configured, naming alerts by nearest settlement")
		}
		geocode.LabelAlerts(ctx, f.Geocoder, run.Report.Alerts)
	}

	if f.Briefer != nil {
		briefing, err := summarization.Brief(ctx, f.Briefer, run)
		if err != nil {
			addLog("Briefing skipped: %v", err)
		} else {
			run.Briefing = briefing
		}
	} else {
		addLog("OpenAI not configured, no briefing")
	}

	run.Status = types.Complete
	if err := f.save(ctx, run, addLog); err != nil {
		return run, err
	}
	return run, nil
}

func (f *Forecaster) save(ctx context.Context, run types.ForecastRun, addLog func(string, ...interface{})) error {
	if f.Store == nil {
		addLog("No run store configured, run %s not persisted", run.ID)
		return nil
	}
	if err := f.Store.SaveRun(ctx, run); err != nil {
		addLog("Error saving run %s: %v", run.ID, err)
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	addLog("Saved run %s (%s)", run.ID, run.Status)
	return nil
}

// DayFor maps a calendar date onto the simulation day counted from startDOY.
func DayFor(t time.Time, startDOY int) int {
	if startDOY < 1 {
		startDOY = 1
	}
	return ((t.YearDay()-startDOY)%365 + 365) % 365
}
