package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/config"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/dataset"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/pipeline"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/regression"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/repository"
)

// ErrRunInProgress means a pipeline run is already executing.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// PipelineService orchestrates full pipeline runs and persists their
// results: the run record, the scored feature table, and a versioned model
// snapshot. At most one run executes at a time.
type PipelineService struct {
	cfg        *config.Config
	runs       *repository.PipelineRunRepository
	records    *repository.FeatureRecordRepository
	snapshots  *repository.ModelSnapshotRepository
	prediction *PredictionService

	mu      sync.Mutex
	running bool
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	cfg *config.Config,
	runs *repository.PipelineRunRepository,
	records *repository.FeatureRecordRepository,
	snapshots *repository.ModelSnapshotRepository,
	prediction *PredictionService,
) *PipelineService {
	return &PipelineService{
		cfg:        cfg,
		runs:       runs,
		records:    records,
		snapshots:  snapshots,
		prediction: prediction,
	}
}

// RunOnce executes one full run synchronously. Used at startup.
func (s *PipelineService) RunOnce(trigger string) (*models.PipelineRun, error) {
	if !s.tryAcquire() {
		return nil, ErrRunInProgress
	}
	defer s.release()

	run, err := s.newRun(trigger)
	if err != nil {
		return nil, err
	}
	return run, s.execute(run)
}

// StartAsync launches a run in the background and returns its pending run
// record. Used by the admin retrain endpoint.
func (s *PipelineService) StartAsync(trigger string) (*models.PipelineRun, error) {
	if !s.tryAcquire() {
		return nil, ErrRunInProgress
	}

	run, err := s.newRun(trigger)
	if err != nil {
		s.release()
		return nil, err
	}

	go func() {
		defer s.release()
		if err := s.execute(run); err != nil {
			log.Printf("[PipelineService] background run %s failed: %v", run.ID, err)
		}
	}()

	return run, nil
}

// Running reports whether a run is currently executing.
func (s *PipelineService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LoadActiveModel restores the persisted active snapshot into the
// prediction service without running the pipeline.
func (s *PipelineService) LoadActiveModel() error {
	snap, err := s.snapshots.GetActive(models.ModelKeyDeliveryGBT)
	if err != nil {
		return err
	}
	if err := s.prediction.PublishSnapshot(snap); err != nil {
		return err
	}
	log.Printf("[PipelineService] serving model snapshot v%d from %s",
		snap.Version, snap.CreatedAt.Format(time.RFC3339))
	return nil
}

func (s *PipelineService) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *PipelineService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *PipelineService) newRun(trigger string) (*models.PipelineRun, error) {
	run := &models.PipelineRun{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Status:    models.RunStatusPending,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runs.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// execute performs the run: load, core pipeline, persist, publish. Any
// stage error marks the run failed and leaves the previous model serving.
func (s *PipelineService) execute(run *models.PipelineRun) error {
	log.Printf("[PipelineService] run %s started (%s)", run.ID, run.Trigger)
	if err := s.runs.MarkRunning(run.ID); err != nil {
		return s.fail(run, err)
	}
	run.Status = models.RunStatusRunning

	raw, err := dataset.NewLoader(s.cfg.DataDir).Load()
	if err != nil {
		return s.fail(run, err)
	}
	run.RawOrders = len(raw.Orders)

	result, err := pipeline.Run(raw, pipeline.Config{
		Seed:          s.cfg.Seed,
		Contamination: s.cfg.Contamination,
		TestFraction:  s.cfg.TestFraction,
		LearningRate:  s.cfg.LearningRate,
		MaxDepth:      s.cfg.MaxDepth,
		MaxRounds:     s.cfg.MaxRounds,
		EarlyStop:     s.cfg.EarlyStop,
	})
	if err != nil {
		return s.fail(run, err)
	}

	tr := result.Training
	metrics := models.ModelMetrics{
		R2Score:          tr.HeldoutR2,
		MAE:              tr.HeldoutMAE,
		BusinessAccuracy: businessAccuracy(result.Records),
		RoundsUsed:       tr.RoundsUsed,
		TrainRows:        tr.TrainRows,
		HeldoutRows:      tr.HeldoutRows,
		FinalRows:        tr.FinalRows,
		Records:          len(result.Records),
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return s.fail(run, fmt.Errorf("failed to serialize metrics: %w", err))
	}

	snap, err := s.saveSnapshot(result, string(metricsJSON))
	if err != nil {
		return s.fail(run, err)
	}

	if err := s.records.ReplaceForRun(run.ID, result.Records); err != nil {
		return s.fail(run, err)
	}

	run.JoinedRows = result.JoinedRows
	run.FeatureRows = len(result.Records)
	run.AnomalyRows = result.AnomalyCount
	run.TrainingRows = tr.FinalRows
	run.RoundsUsed = tr.RoundsUsed
	run.MetricsJSON = string(metricsJSON)
	run.CompletedAt = time.Now().UTC()
	run.Status = models.RunStatusCompleted
	if err := s.runs.Complete(run); err != nil {
		return s.fail(run, err)
	}

	s.prediction.Publish(tr, metrics.BusinessAccuracy, len(result.Records), snap.Version)
	log.Printf("[PipelineService] run %s completed: %d records, %d anomalies, r2=%.4f mae=%.2f",
		run.ID, len(result.Records), result.AnomalyCount, tr.HeldoutR2, tr.HeldoutMAE)
	return nil
}

func (s *PipelineService) saveSnapshot(result *pipeline.Result, metricsJSON string) (*models.ModelSnapshot, error) {
	tr := result.Training

	modelJSON, err := tr.Model.ToJSON()
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"seed":          s.cfg.Seed,
		"contamination": s.cfg.Contamination,
		"test_fraction": s.cfg.TestFraction,
		"learning_rate": s.cfg.LearningRate,
		"max_depth":     s.cfg.MaxDepth,
		"max_rounds":    s.cfg.MaxRounds,
		"early_stop":    s.cfg.EarlyStop,
		"rounds_used":   tr.RoundsUsed,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize params: %w", err)
	}

	importanceJSON, err := json.Marshal(rankImportance(tr.FeatureNames, tr.Importances))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize importance: %w", err)
	}

	snap := &models.ModelSnapshot{
		ID:             uuid.New().String(),
		ModelKey:       models.ModelKeyDeliveryGBT,
		ParamsJSON:     string(paramsJSON),
		MetricsJSON:    metricsJSON,
		ImportanceJSON: string(importanceJSON),
		ModelJSON:      modelJSON,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.snapshots.Save(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *PipelineService) fail(run *models.PipelineRun, err error) error {
	run.Status = models.RunStatusFailed
	run.ErrorMessage = err.Error()
	if dbErr := s.runs.Fail(run.ID, err.Error()); dbErr != nil {
		log.Printf("[PipelineService] failed to record run failure: %v", dbErr)
	}
	return err
}

// businessAccuracy is the fraction of records predicted within the business
// tolerance, over the whole scored table.
func businessAccuracy(records []models.FeatureRecord) float64 {
	observed := make([]float64, len(records))
	predicted := make([]float64, len(records))
	for i := range records {
		observed[i] = records[i].DeliveryTimeDays
		predicted[i] = records[i].PredictedDays
	}
	return regression.BusinessAccuracy(observed, predicted, businessToleranceDays)
}
