package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/service"
)

// ServiceName and ServiceVersion identify the API on the root endpoint.
const (
	ServiceName    = "Delivery Time Estimation API"
	ServiceVersion = "1.0.0"
)

// HealthHandler handles the root and health endpoints
type HealthHandler struct {
	prediction *service.PredictionService
	pipeline   *service.PipelineService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(prediction *service.PredictionService, pipeline *service.PipelineService) *HealthHandler {
	return &HealthHandler{prediction: prediction, pipeline: pipeline}
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": ServiceVersion,
		"status":  h.status(),
		"endpoints": gin.H{
			"predict":    "POST /api/v1/predict",
			"metrics":    "GET /api/v1/model/metrics",
			"importance": "GET /api/v1/model/importance",
			"anomalies":  "GET /api/v1/records/anomalies",
			"records":    "GET /api/v1/records",
			"runs":       "GET /api/v1/runs",
			"health":     "GET /health",
		},
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	metrics, err := h.prediction.Metrics()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": h.status(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"records":  metrics.Records,
		"r2_score": metrics.R2Score,
		"mae":      metrics.MAE,
	})
}

func (h *HealthHandler) status() string {
	if h.prediction.Ready() {
		return "ready"
	}
	if h.pipeline.Running() {
		return "training"
	}
	return "starting"
}
