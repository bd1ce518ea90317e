package service

import (
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/repository"
)

// RecordService serves stored pipeline results: scored records, anomalies,
// run history and model versions.
type RecordService struct {
	records   *repository.FeatureRecordRepository
	runs      *repository.PipelineRunRepository
	snapshots *repository.ModelSnapshotRepository
}

// NewRecordService creates a new record service
func NewRecordService(
	records *repository.FeatureRecordRepository,
	runs *repository.PipelineRunRepository,
	snapshots *repository.ModelSnapshotRepository,
) *RecordService {
	return &RecordService{records: records, runs: runs, snapshots: snapshots}
}

// ListRecords returns one page of scored records plus the total count.
func (s *RecordService) ListRecords(limit, offset int) ([]models.FeatureRecord, int, error) {
	total, err := s.records.Count()
	if err != nil {
		return nil, 0, err
	}
	records, err := s.records.ListPage(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListAnomalies returns up to limit anomalous records for map display.
func (s *RecordService) ListAnomalies(limit int) ([]models.FeatureRecord, error) {
	return s.records.ListAnomalies(limit)
}

// ListRuns returns the most recent pipeline runs.
func (s *RecordService) ListRuns(limit int) ([]models.PipelineRun, error) {
	return s.runs.List(limit)
}

// GetRun returns one run, or nil when it does not exist.
func (s *RecordService) GetRun(id string) (*models.PipelineRun, error) {
	return s.runs.GetByID(id)
}

// ListModelVersions returns snapshot history for the delivery model.
func (s *RecordService) ListModelVersions(limit int) ([]models.ModelSnapshot, error) {
	return s.snapshots.ListVersions(models.ModelKeyDeliveryGBT, limit)
}
