package main

import (
	"context"
	"log"

	"github.com/sashabaranov/go-openai"

	"herdwatch/config"
	"herdwatch/cronjobs"
	"herdwatch/db"
	"herdwatch/geocode"
	"herdwatch/processor"
	"herdwatch/routes"
)

func main() {
	ctx := context.Background()

	// Load .env and settings
	env := config.LoadEnv()
	settings, err := config.LoadSettings(env.SettingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	log.Printf("Loaded settings: %d herds, corridor %+v", len(settings.Herds), settings.Corridor)

	provider, err := processor.LoadProvider(settings)
	if err != nil {
		log.Fatalf("Failed to load environment snapshot: %v", err)
	}
	index := processor.LoadPOI(ctx, settings, processor.POISources(settings, env))

	forecaster := processor.NewForecaster(settings, provider, index)

	// Init firestore, falling back to memory
	var store db.RunStore
	firestoreClient, err := db.InitFirestore(ctx, env.FirebaseCredentials)
	if err != nil {
		log.Printf("Firestore unavailable (%v), keeping runs in memory", err)
		store = db.NewMemoryRuns()
	} else {
		defer db.CloseFirestore() // Firestore client is closed on exit
		store = db.NewFirestoreRuns(firestoreClient)
	}
	forecaster.Store = store

	if mapsClient, err := geocode.InitMapsClient(env.MapsCredentials); err != nil {
		log.Printf("Geocoding disabled: %v", err)
	} else {
		forecaster.Geocoder = mapsClient
	}

	if env.OpenAIKey != "" {
		log.Println("OPENAI_API_KEY loaded")
		forecaster.Briefer = openai.NewClient(env.OpenAIKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY environment variable not set. Skipping briefings.")
	}

	defaults := processor.Request{
		ForecastDays: settings.ForecastDays,
		Scenario:     settings.Scenario,
	}

	// Initialize cron jobs
	scheduler, err := cronjobs.InitCronJobs(env.ForecastSchedule, cronjobs.Job{
		Forecaster:     forecaster,
		StartDayOfYear: settings.StartDayOfYear,
		ForecastDays:   settings.ForecastDays,
		Scenario:       settings.Scenario,
	})
	if err != nil {
		log.Printf("Scheduled forecasts disabled: %v", err)
	} else {
		defer scheduler.Stop()
	}

	r := routes.SetupRouter(forecaster, store, defaults)
	if err := r.Run(":" + env.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
