package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"herdwatch/processor"
	"herdwatch/simulation"
)

// parseRequest reads day, forecastDays and the scenario modifiers from the query string.
// Missing parameters keep the defaults.
func parseRequest(c *gin.Context, defaults processor.Request) (processor.Request, error) {
	req := defaults
	ints := []struct {
		name string
		dst  *int
	}{
		{"day", &req.Day},
		{"forecastDays", &req.ForecastDays},
		{"seasonalShift", &req.Scenario.SeasonalShift},
	}
	for _, p := range ints {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("invalid %s %q", p.name, raw)
		}
		*p.dst = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"rainfallAnomaly", &req.Scenario.RainfallAnomaly},
		{"droughtSeverity", &req.Scenario.DroughtSeverity},
		{"floodExtent", &req.Scenario.FloodExtent},
	}
	for _, p := range floats {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("invalid %s %q", p.name, raw)
		}
		*p.dst = v
	}

	if req.Day < 0 {
		return req, fmt.Errorf("day must not be negative")
	}
	return req, nil
}

// Simulate returns herd trails and forecasts.
func Simulate(c *gin.Context, f *processor.Forecaster, defaults processor.Request) {
	req, err := parseRequest(c, defaults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	herds, err := f.Simulate(c.Request.Context(), req)
	if err != nil {
		log.Printf("ERROR simulating herds: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to simulate herd movement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":          req.Day,
		"forecastDays": simulation.ClampForecastDays(req.ForecastDays),
		"herds":        herds,
	})
}

// Risks simulates and returns the risk report without persisting it.
func Risks(c *gin.Context, f *processor.Forecaster, defaults processor.Request) {
	req, err := parseRequest(c, defaults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	herds, report, err := f.Detect(c.Request.Context(), req)
	if err != nil {
		log.Printf("ERROR detecting risks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detect risks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":               req.Day,
		"herds":             herds,
		"alerts":            report.Alerts,
		"riskZones":         report.RiskZones,
		"alternativeRoutes": report.AlternativeRoutes,
		"suggestedActions":  report.SuggestedActions,
	})
}

// Forecast runs the full pipeline and persists the run. The JSON body is optional.
func Forecast(c *gin.Context, f *processor.Forecaster, defaults processor.Request) {
	req := defaults
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if req.Day < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must not be negative"})
		return
	}

	log.Printf("Handler: Starting forecast run for day %d...", req.Day)
	run, err := f.Run(c.Request.Context(), req)
	if err != nil {
		log.Printf("ERROR running forecast: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Forecast run failed", "run": run})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"run": run})
}
