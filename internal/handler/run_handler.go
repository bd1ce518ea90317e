package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/service"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/pkg/response"
)

// RunHandler handles HTTP requests for pipeline run history and retraining
type RunHandler struct {
	records  *service.RecordService
	pipeline *service.PipelineService
}

// NewRunHandler creates a new run handler
func NewRunHandler(records *service.RecordService, pipeline *service.PipelineService) *RunHandler {
	return &RunHandler{records: records, pipeline: pipeline}
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	runs, err := h.records.ListRuns(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.records.GetRun(c.Param("id"))
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	if run == nil {
		response.NotFound(c, "Run not found")
		return
	}

	response.Success(c, run)
}

// Retrain handles POST /api/v1/admin/retrain
func (h *RunHandler) Retrain(c *gin.Context) {
	run, err := h.pipeline.StartAsync(models.RunTriggerAdmin)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			response.Conflict(c, "A pipeline run is already in progress")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Accepted(c, gin.H{
		"run_id": run.ID,
		"status": run.Status,
	})
}
