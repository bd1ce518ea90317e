package pipeline

import (
	"fmt"
	"log"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/anomaly"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/regression"
)

// Config controls the randomized and capacity parameters of one run. The
// single seed is threaded through every randomized step (split, forest) so
// a run is reproducible end to end.
type Config struct {
	Seed          int64
	Contamination float64
	TestFraction  float64
	LearningRate  float64
	MaxDepth      int
	MaxRounds     int
	EarlyStop     int
}

// DefaultConfig mirrors the production training setup.
var DefaultConfig = Config{
	Seed:          42,
	Contamination: 0.01,
	TestFraction:  0.2,
	LearningRate:  0.05,
	MaxDepth:      6,
	MaxRounds:     1000,
	EarlyStop:     50,
}

// Result is everything one in-memory pipeline run produces. Records carry
// anomaly labels and predictions for every row, including anomalous ones.
type Result struct {
	Records      []models.FeatureRecord
	Training     *regression.TrainingResult
	JoinedRows   int
	AnomalyCount int
}

// Run executes the in-memory core on already-loaded raw tables: join, derive,
// detect, train. Stages run strictly in sequence, each fully materializing
// its output before the next starts. A run either completes all stages or
// fails whole; partial results are not returned.
func Run(raw *models.RawTables, cfg Config) (*Result, error) {
	log.Printf("[Pipeline] joining %d orders, %d items, %d geo samples",
		len(raw.Orders), len(raw.OrderItems), len(raw.Geolocation))
	joined := JoinTables(raw)
	log.Printf("[Pipeline] join produced %d rows", len(joined))

	records := DeriveFeatures(joined)
	log.Printf("[Pipeline] feature table has %d delivered rows", len(records))

	detector := anomaly.NewDetector(cfg.Contamination, cfg.Seed)
	anomalies, err := detector.Detect(records)
	if err != nil {
		return nil, fmt.Errorf("anomaly detection failed: %w", err)
	}

	training, err := regression.TrainTwoPhase(records, regression.Config{
		LearningRate: cfg.LearningRate,
		MaxDepth:     cfg.MaxDepth,
		MaxRounds:    cfg.MaxRounds,
		EarlyStop:    cfg.EarlyStop,
		TestFraction: cfg.TestFraction,
	}, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}

	return &Result{
		Records:      records,
		Training:     training,
		JoinedRows:   len(joined),
		AnomalyCount: anomalies,
	}, nil
}
