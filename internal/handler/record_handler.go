package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/service"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/pkg/response"
)

// maxPageSize caps one page of scored records.
const maxPageSize = 1000

// defaultAnomalyLimit matches the map display's point budget.
const defaultAnomalyLimit = 2000

// RecordHandler handles HTTP requests for scored feature records
type RecordHandler struct {
	records *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(records *service.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// ListRecords handles GET /api/v1/records
func (h *RecordHandler) ListRecords(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		limit = 100
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	records, total, err := h.records.ListRecords(limit, offset)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ListAnomalies handles GET /api/v1/records/anomalies
func (h *RecordHandler) ListAnomalies(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAnomalyLimit)))
	if err != nil || limit < 1 {
		limit = defaultAnomalyLimit
	}

	anomalies, err := h.records.ListAnomalies(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}
