package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/regression"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/spatial"
)

// ErrModelNotReady means no trained model has been published yet.
var ErrModelNotReady = errors.New("model not ready")

// Trained ranges of the served model. Requests outside them still get a
// prediction, with a warning attached.
const (
	trainedDistanceMinKm = 50.0
	trainedDistanceMaxKm = 2500.0
	trainedWeightMinG    = 200.0
	trainedWeightMaxG    = 15000.0
)

// businessToleranceDays is the error band counted as a business hit.
const businessToleranceDays = 3.0

// artifact is the read-only serving state swapped in after a run. Requests
// share it without locking once taken.
type artifact struct {
	model      *regression.Model
	metrics    models.ModelMetrics
	importance []models.FeatureImportance
}

// PredictionService serves single-record inference against the active model.
// Publishing a new model is an atomic swap under the write lock; concurrent
// predictions only take the read lock.
type PredictionService struct {
	mu  sync.RWMutex
	art *artifact
}

// NewPredictionService creates an empty prediction service. It serves
// errors until a model is published.
func NewPredictionService() *PredictionService {
	return &PredictionService{}
}

// Publish swaps in a freshly trained artifact.
func (s *PredictionService) Publish(tr *regression.TrainingResult, businessAcc float64, recordCount, version int) {
	art := &artifact{
		model: tr.Model,
		metrics: models.ModelMetrics{
			R2Score:          tr.HeldoutR2,
			MAE:              tr.HeldoutMAE,
			BusinessAccuracy: businessAcc,
			RoundsUsed:       tr.RoundsUsed,
			TrainRows:        tr.TrainRows,
			HeldoutRows:      tr.HeldoutRows,
			FinalRows:        tr.FinalRows,
			Records:          recordCount,
			Version:          version,
		},
		importance: rankImportance(tr.FeatureNames, tr.Importances),
	}

	s.mu.Lock()
	s.art = art
	s.mu.Unlock()
}

// PublishSnapshot restores the serving state from a persisted snapshot.
func (s *PredictionService) PublishSnapshot(snap *models.ModelSnapshot) error {
	model, err := regression.ModelFromJSON(snap.ModelJSON)
	if err != nil {
		return fmt.Errorf("failed to restore model from snapshot %s: %w", snap.ID, err)
	}

	var metrics models.ModelMetrics
	if err := json.Unmarshal([]byte(snap.MetricsJSON), &metrics); err != nil {
		return fmt.Errorf("failed to restore metrics from snapshot %s: %w", snap.ID, err)
	}
	metrics.Version = snap.Version

	var importance []models.FeatureImportance
	if err := json.Unmarshal([]byte(snap.ImportanceJSON), &importance); err != nil {
		return fmt.Errorf("failed to restore importance from snapshot %s: %w", snap.ID, err)
	}

	s.mu.Lock()
	s.art = &artifact{model: model, metrics: metrics, importance: importance}
	s.mu.Unlock()
	return nil
}

// Ready reports whether a model is being served.
func (s *PredictionService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.art != nil
}

// Metrics returns the served model's held-out quality.
func (s *PredictionService) Metrics() (models.ModelMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.art == nil {
		return models.ModelMetrics{}, ErrModelNotReady
	}
	return s.art.metrics, nil
}

// Importance returns the ranked feature importance list.
func (s *PredictionService) Importance() ([]models.FeatureImportance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.art == nil {
		return nil, ErrModelNotReady
	}
	return s.art.importance, nil
}

// Predict validates one request, attaches out-of-range warnings, and runs
// the model. Validation failures return an error and no prediction.
func (s *PredictionService) Predict(req *models.PredictRequest) (*models.PredictResponse, error) {
	s.mu.RLock()
	art := s.art
	s.mu.RUnlock()
	if art == nil {
		return nil, ErrModelNotReady
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	rec := models.FeatureRecord{
		WeightG:        *req.WeightG,
		VolumeCm3:      *req.VolumeCm3,
		DistanceKm:     *req.DistanceKm,
		CustomerLat:    *req.CustomerLat,
		CustomerLng:    *req.CustomerLng,
		SellerLat:      *req.SellerLat,
		SellerLng:      *req.SellerLng,
		PaymentLagDays: *req.PaymentLagDays,
		IsWeekendOrder: *req.IsWeekendOrder,
		FreightValue:   *req.FreightValue,
		PurchaseMonth:  *req.PurchaseMonth,
	}

	return &models.PredictResponse{
		PredictedDays: art.model.Predict(regression.FeatureVector(&rec)),
		Warnings:      requestWarnings(req),
		ModelVersion:  art.metrics.Version,
	}, nil
}

func validateRequest(req *models.PredictRequest) error {
	switch {
	case *req.WeightG <= 0:
		return errors.New("product_weight_g must be positive")
	case *req.VolumeCm3 < 0:
		return errors.New("product_vol_cm3 must not be negative")
	case *req.DistanceKm < 0:
		return errors.New("distance_km must not be negative")
	case *req.FreightValue < 0:
		return errors.New("freight_value must not be negative")
	case *req.PaymentLagDays < 0:
		return errors.New("payment_lag_days must not be negative")
	case *req.PurchaseMonth < 1 || *req.PurchaseMonth > 12:
		return errors.New("purchase_month must be between 1 and 12")
	case *req.IsWeekendOrder != 0 && *req.IsWeekendOrder != 1:
		return errors.New("is_weekend_order must be 0 or 1")
	case !spatial.ValidLatLng(*req.CustomerLat, *req.CustomerLng):
		return errors.New("customer coordinates are not a valid lat/lng pair")
	case !spatial.ValidLatLng(*req.SellerLat, *req.SellerLng):
		return errors.New("seller coordinates are not a valid lat/lng pair")
	}
	return nil
}

func requestWarnings(req *models.PredictRequest) []string {
	warnings := []string{}

	if *req.DistanceKm < trainedDistanceMinKm || *req.DistanceKm > trainedDistanceMaxKm {
		warnings = append(warnings, fmt.Sprintf(
			"distance_km %.0f is outside the trained range [%.0f, %.0f] km",
			*req.DistanceKm, trainedDistanceMinKm, trainedDistanceMaxKm))
	}
	if *req.WeightG < trainedWeightMinG || *req.WeightG > trainedWeightMaxG {
		warnings = append(warnings, fmt.Sprintf(
			"product_weight_g %.0f is outside the trained range [%.0f, %.0f] g",
			*req.WeightG, trainedWeightMinG, trainedWeightMaxG))
	}

	// Cross-check the supplied distance against the coordinate distance.
	routeKm := spatial.HaversineDistance(*req.CustomerLat, *req.CustomerLng,
		*req.SellerLat, *req.SellerLng) / 1000
	if routeKm > 1 && *req.DistanceKm > 1 {
		ratio := math.Abs(routeKm-*req.DistanceKm) / routeKm
		if ratio > 0.25 && math.Abs(routeKm-*req.DistanceKm) > 50 {
			warnings = append(warnings, fmt.Sprintf(
				"distance_km %.0f disagrees with the coordinate distance %.0f km",
				*req.DistanceKm, routeKm))
		}
	}

	return warnings
}

func rankImportance(names []string, values []float64) []models.FeatureImportance {
	ranked := make([]models.FeatureImportance, len(names))
	for i, name := range names {
		ranked[i] = models.FeatureImportance{Feature: name, Importance: values[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked
}
