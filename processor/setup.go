package processor

import (
	"context"
	"log"
	"time"

	"herdwatch/config"
	"herdwatch/detection"
	"herdwatch/environment"
	"herdwatch/noise"
	"herdwatch/poi"
	"herdwatch/simulation"
)

const overpassTimeout = 60 * time.Second

// LoadProvider returns the snapshot-backed provider when a snapshot file is set,
// otherwise the synthetic generator alone.
func LoadProvider(settings *config.Settings) (environment.Provider, error) {
	src := noise.Hash{Salt: settings.Engine.NoiseSalt}
	synthetic := environment.NewSynthetic(src, settings.Corridor)
	if settings.SnapshotFile == "" {
		return synthetic, nil
	}
	snapshot, err := environment.LoadSnapshot(settings.SnapshotFile)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded environment snapshot with %d cells from %s", snapshot.Len(), settings.SnapshotFile)
	return environment.NewSnapshotProvider(snapshot, synthetic), nil
}

// POISources lists the configured sources in merge order: file, PostGIS, Overpass.
func POISources(settings *config.Settings, env config.Env) []poi.Source {
	var sources []poi.Source
	if settings.POIFile != "" {
		sources = append(sources, poi.FileSource{Path: settings.POIFile})
	}
	if env.PostgresURL != "" {
		pg, err := poi.NewPostGISSource(env.PostgresURL)
		if err != nil {
			log.Printf("Skipping PostGIS POI source: %v", err)
		} else {
			sources = append(sources, pg)
		}
	}
	if env.OverpassURL != "" {
		sources = append(sources, poi.NewOverpassSource(env.OverpassURL, overpassTimeout))
	}
	return sources
}

// LoadPOI merges every source that loads. A failing source is logged and skipped.
func LoadPOI(ctx context.Context, settings *config.Settings, sources []poi.Source) *poi.Index {
	var parts []*poi.Index
	for _, src := range sources {
		idx, err := src.Load(ctx, settings.Corridor)
		if err != nil {
			log.Printf("Failed to load POIs from %T: %v", src, err)
			continue
		}
		log.Printf("Loaded %d settlements, %d farms, %d stations, %d conflict zones from %T",
			len(idx.Settlements), len(idx.Farms), len(idx.Stations), len(idx.ConflictZones), src)
		parts = append(parts, idx)
	}
	return poi.Merge(parts...)
}

// NewForecaster builds the simulator and engine from settings.
func NewForecaster(settings *config.Settings, provider environment.Provider, index *poi.Index) *Forecaster {
	src := noise.Hash{Salt: settings.Engine.NoiseSalt}

	sim := simulation.NewSimulator(provider, src, settings.Corridor, settings.Herds)
	sim.Workers = settings.Engine.Workers

	engine := detection.NewEngine(provider, settings.Resolver(), index, settings.Corridor)
	engine.StartDayOfYear = settings.StartDayOfYear
	engine.Workers = settings.Engine.Workers
	if settings.Engine.MinTriggers > 0 {
		engine.MinTriggers = settings.Engine.MinTriggers
	}
	if settings.Engine.MaxAlerts > 0 {
		engine.MaxAlerts = settings.Engine.MaxAlerts
	}
	if settings.Engine.MarginDeg > 0 {
		sim.Margin = settings.Engine.MarginDeg
		engine.Margin = settings.Engine.MarginDeg
	}

	return &Forecaster{Simulator: sim, Engine: engine}
}
