package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the readiness check and the /api/v1 routes.
// Health and metrics are registered by the server builder.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/ready", handler.ReadyCheck)

	v1 := router.Group("/api/v1")

	s := v1.Group("/sentiment")
	s.POST("/label", handler.Label)                // POST /api/v1/sentiment/label
	s.POST("/predict", handler.Predict)            // POST /api/v1/sentiment/predict
	s.POST("/predict/batch", handler.PredictBatch) // POST /api/v1/sentiment/predict/batch
	s.GET("/functions", handler.Functions)         // GET /api/v1/sentiment/functions
	s.GET("/analyzers", handler.Analyzers)         // GET /api/v1/sentiment/analyzers
	s.GET("/model", handler.Model)                 // GET /api/v1/sentiment/model

	bots := v1.Group("/bots")
	bots.POST("/analyze", handler.AnalyzeBots) // POST /api/v1/bots/analyze
}
