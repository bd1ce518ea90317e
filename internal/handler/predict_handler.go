package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/service"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/pkg/response"
)

// PredictHandler handles HTTP requests for single-record inference
type PredictHandler struct {
	prediction *service.PredictionService
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(prediction *service.PredictionService) *PredictHandler {
	return &PredictHandler{prediction: prediction}
}

// Predict handles POST /api/v1/predict
func (h *PredictHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: all eleven feature fields are required")
		return
	}

	result, err := h.prediction.Predict(&req)
	if err != nil {
		if errors.Is(err, service.ErrModelNotReady) {
			response.ServiceUnavailable(c, "Model is not ready yet")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, result)
}
