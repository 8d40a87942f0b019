package cronjobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"herdwatch/processor"
	"herdwatch/types"
)

const runTimeout = 5 * time.Minute

// Job is the scheduled forecast: today's day index, default horizon and scenario.
type Job struct {
	Forecaster     *processor.Forecaster
	StartDayOfYear int
	ForecastDays   int
	Scenario       types.DayScenario
	Now            func() time.Time
}

// Run executes one forecast for the current date.
func (j Job) Run() {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	req := processor.Request{
		Day:          processor.DayFor(now(), j.StartDayOfYear),
		ForecastDays: j.ForecastDays,
		Scenario:     j.Scenario,
	}
	log.Printf("\nCronJob: Forecast Running for day %d", req.Day)
	run, err := j.Forecaster.Run(ctx, req)
	if err != nil {
		log.Printf("CronJob: Forecast failed: %v", err)
		return
	}
	log.Printf("CronJob: Forecast %s finished with %d alerts", run.ID, len(run.Report.Alerts))
}

// InitCronJobs schedules the forecast job and starts the scheduler. The caller stops it.
func InitCronJobs(schedule string, job Job) (*cron.Cron, error) {
	log.Println("\nStarting Cron Jobs -------------------------------------------------------")
	c := cron.New()

	if _, err := c.AddFunc(schedule, job.Run); err != nil {
		log.Println("Error scheduling Forecast:", err)
		return nil, err
	}

	c.Start()
	return c, nil
}
