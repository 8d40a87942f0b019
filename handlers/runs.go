package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"herdwatch/db"
)

const defaultRunLimit = 20

// GetRun returns one stored forecast run.
func GetRun(c *gin.Context, store db.RunStore) {
	id := c.Param("id")
	run, err := store.GetRun(c.Request.Context(), id)
	if errors.Is(err, db.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		log.Printf("ERROR fetching run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(c *gin.Context, store db.RunStore) {
	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = v
	}

	runs, err := store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		log.Printf("ERROR listing runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
