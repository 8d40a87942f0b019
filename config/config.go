// Package config loads process environment (.env) and the YAML run settings.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"herdwatch/thresholds"
	"herdwatch/types"
)

const (
	DefaultPort             = "8080"
	DefaultSettingsPath     = "herdwatch.yaml"
	DefaultForecastSchedule = "0 */6 * * *"
	DefaultForecastDays     = 5
)

// Env holds secrets and service addresses. Empty values disable the matching collaborator.
type Env struct {
	Port                string
	FirebaseCredentials string // base64 service account JSON
	MapsCredentials     string // Google Maps API key
	OpenAIKey           string
	PostgresURL         string
	OverpassURL         string
	SettingsPath        string
	ForecastSchedule    string
}

// LoadEnv reads .env if present and then the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	return Env{
		Port:                getenv("PORT", DefaultPort),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),
		MapsCredentials:     os.Getenv("MAPS_CREDENTIALS"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		PostgresURL:         os.Getenv("POSTGRES_URL"),
		OverpassURL:         os.Getenv("OVERPASS_URL"),
		SettingsPath:        getenv("HERDWATCH_SETTINGS", DefaultSettingsPath),
		ForecastSchedule:    getenv("FORECAST_SCHEDULE", DefaultForecastSchedule),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Settings is the corridor, herd and engine configuration for forecast runs.
type Settings struct {
	Corridor       types.BoundingBox `yaml:"corridor"`
	StartDayOfYear int               `yaml:"start_day_of_year"`
	ForecastDays   int               `yaml:"forecast_days"`
	Scenario       types.DayScenario `yaml:"scenario"`
	Herds          []types.HerdSeed  `yaml:"herds"`

	// Paths are relative to the settings file.
	POIFile      string `yaml:"poi_file"`
	SnapshotFile string `yaml:"snapshot_file"`

	Engine     EngineSettings     `yaml:"engine"`
	Thresholds ThresholdOverrides `yaml:"thresholds"`
}

type EngineSettings struct {
	MinTriggers int     `yaml:"min_triggers"`
	MaxAlerts   int     `yaml:"max_alerts"`
	MarginDeg   float64 `yaml:"margin_deg"`
	Workers     int     `yaml:"workers"`
	NoiseSalt   uint64  `yaml:"noise_salt"`
}

// ThresholdOverrides replaces region boxes and individual multiplier rows.
type ThresholdOverrides struct {
	Regions           []thresholds.RegionBox                  `yaml:"regions"`
	RegionMultipliers map[types.Region]thresholds.Multipliers `yaml:"region_multipliers"`
	SeasonMultipliers map[types.Season]thresholds.Multipliers `yaml:"season_multipliers"`
}

// Default is the settings used when no file exists: the South Sudan corridor with four herds.
func Default() *Settings {
	return &Settings{
		Corridor:       types.BoundingBox{MinLat: 3.5, MaxLat: 12, MinLon: 24, MaxLon: 35.5},
		StartDayOfYear: 1,
		ForecastDays:   DefaultForecastDays,
		Herds: []types.HerdSeed{
			{ID: "herd-bor", Name: "Bor Dinka", Position: types.Point{Lat: 6.9, Lng: 31.4}, Size: 1200, SpeedKM: 25},
			{ID: "herd-rumbek", Name: "Rumbek Agar", Position: types.Point{Lat: 6.8, Lng: 29.7}, Size: 900, SpeedKM: 20},
			{ID: "herd-nasir", Name: "Nasir Nuer", Position: types.Point{Lat: 8.6, Lng: 33.1}, Size: 1500, SpeedKM: 30},
			{ID: "herd-pibor", Name: "Pibor Murle", Position: types.Point{Lat: 6.8, Lng: 33.0}, Size: 700, SpeedKM: 22},
		},
	}
}

// LoadSettings reads the YAML settings at path over Default().
// A missing file is not an error; the defaults are returned.
func LoadSettings(path string) (*Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	s.POIFile = resolve(dir, s.POIFile)
	s.SnapshotFile = resolve(dir, s.SnapshotFile)
	return s, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (s *Settings) Validate() error {
	if s.Corridor.MinLat >= s.Corridor.MaxLat || s.Corridor.MinLon >= s.Corridor.MaxLon {
		return fmt.Errorf("corridor is empty: %+v", s.Corridor)
	}
	seen := make(map[string]bool, len(s.Herds))
	for i, h := range s.Herds {
		if h.ID == "" {
			return fmt.Errorf("herd %d has no id", i)
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate herd id %q", h.ID)
		}
		seen[h.ID] = true
		if !s.Corridor.Contains(h.Position) {
			return fmt.Errorf("herd %q starts outside the corridor", h.ID)
		}
	}
	if s.StartDayOfYear < 1 || s.StartDayOfYear > 366 {
		return fmt.Errorf("start_day_of_year %d out of range", s.StartDayOfYear)
	}
	return nil
}

// Resolver returns the default threshold tables with any overrides applied.
func (s *Settings) Resolver() *thresholds.Resolver {
	r := thresholds.NewResolver()
	if len(s.Thresholds.Regions) > 0 {
		r.Regions = s.Thresholds.Regions
	}
	r.RegionMultipliers = mergeRows(r.RegionMultipliers, s.Thresholds.RegionMultipliers)
	r.SeasonMultipliers = mergeRows(r.SeasonMultipliers, s.Thresholds.SeasonMultipliers)
	return r
}

func mergeRows[K comparable](base, over map[K]thresholds.Multipliers) map[K]thresholds.Multipliers {
	out := make(map[K]thresholds.Multipliers, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
