package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/service"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/pkg/response"
)

// ModelHandler handles HTTP requests for served-model quality and history
type ModelHandler struct {
	prediction *service.PredictionService
	records    *service.RecordService
}

// NewModelHandler creates a new model handler
func NewModelHandler(prediction *service.PredictionService, records *service.RecordService) *ModelHandler {
	return &ModelHandler{prediction: prediction, records: records}
}

// GetMetrics handles GET /api/v1/model/metrics
func (h *ModelHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.prediction.Metrics()
	if err != nil {
		if errors.Is(err, service.ErrModelNotReady) {
			response.ServiceUnavailable(c, "Model is not ready yet")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, metrics)
}

// GetImportance handles GET /api/v1/model/importance
func (h *ModelHandler) GetImportance(c *gin.Context) {
	importance, err := h.prediction.Importance()
	if err != nil {
		if errors.Is(err, service.ErrModelNotReady) {
			response.ServiceUnavailable(c, "Model is not ready yet")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"features": importance,
		"count":    len(importance),
	})
}

// ListVersions handles GET /api/v1/model/versions
func (h *ModelHandler) ListVersions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	versions, err := h.records.ListModelVersions(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"versions": versions,
		"count":    len(versions),
	})
}
