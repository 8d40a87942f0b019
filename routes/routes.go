package routes

import (
	"github.com/gin-gonic/gin"

	"herdwatch/db"
	"herdwatch/handlers"
	"herdwatch/processor"
)

func SetupRouter(f *processor.Forecaster, store db.RunStore, defaults processor.Request) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hello, welcome to Herdwatch!",
		})
	})

	// api routes
	api := r.Group("/api/herdwatch")
	{
		api.GET("/simulate", func(c *gin.Context) { handlers.Simulate(c, f, defaults) })
		api.GET("/risks", func(c *gin.Context) { handlers.Risks(c, f, defaults) })
		api.POST("/forecast", func(c *gin.Context) { handlers.Forecast(c, f, defaults) })
		api.GET("/runs", func(c *gin.Context) { handlers.ListRuns(c, store) })
		api.GET("/runs/:id", func(c *gin.Context) { handlers.GetRun(c, store) })
	}

	return r
}
