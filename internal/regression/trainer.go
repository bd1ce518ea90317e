package regression

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// FeatureNames is the positional feature contract shared by training and
// inference: index i of every feature vector corresponds to FeatureNames[i].
var FeatureNames = []string{
	"product_weight_g",
	"product_vol_cm3",
	"distance_km",
	"customer_lat",
	"customer_lng",
	"seller_lat",
	"seller_lng",
	"payment_lag_days",
	"is_weekend_order",
	"freight_value",
	"purchase_month",
}

// FeatureVector maps one record onto the positional feature contract.
func FeatureVector(r *models.FeatureRecord) []float64 {
	return []float64{
		r.WeightG,
		r.VolumeCm3,
		r.DistanceKm,
		r.CustomerLat,
		r.CustomerLng,
		r.SellerLat,
		r.SellerLng,
		r.PaymentLagDays,
		float64(r.IsWeekendOrder),
		r.FreightValue,
		float64(r.PurchaseMonth),
	}
}

// Config holds the trainer hyperparameters.
type Config struct {
	LearningRate float64
	MaxDepth     int
	MaxRounds    int
	EarlyStop    int
	TestFraction float64
}

// TrainingResult is the plain-data outcome of the two-phase protocol. Model
// is the full refit; the reported metrics always come from the held-out
// split of phase 1.
type TrainingResult struct {
	Model        *Model
	HeldoutR2    float64
	HeldoutMAE   float64
	RoundsUsed   int
	FeatureNames []string
	Importances  []float64
	TrainRows    int
	HeldoutRows  int
	FinalRows    int
}

var (
	// ErrTooFewRecords means the non-anomalous subset cannot support an
	// 80/20 split. The run must abort rather than train on it.
	ErrTooFewRecords = errors.New("too few non-anomalous records to split")

	// ErrDegenerateTarget means the target column has no variance.
	ErrDegenerateTarget = errors.New("delivery time has no variance")
)

// minTrainRecords is the smallest non-anomalous set the split accepts.
const minTrainRecords = 10

// TrainTwoPhase runs held-out evaluation to discover a round count and
// honest metrics, refits on all non-anomalous rows at that round count, and
// scores every record (anomalous ones included) with the final model.
// Records are mutated in place: PredictedDays and PredictionError are set.
func TrainTwoPhase(records []models.FeatureRecord, cfg Config, seed int64) (*TrainingResult, error) {
	clean := make([]int, 0, len(records))
	for i := range records {
		if !records[i].IsAnomaly {
			clean = append(clean, i)
		}
	}
	if len(clean) < minTrainRecords {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewRecords, len(clean), minTrainRecords)
	}

	x := make([][]float64, len(clean))
	y := make([]float64, len(clean))
	for j, i := range clean {
		x[j] = FeatureVector(&records[i])
		y[j] = records[i].DeliveryTimeDays
	}
	if stat.Variance(y, nil) == 0 {
		return nil, ErrDegenerateTarget
	}

	// Phase 1: split, fit with early stopping, score the held-out side.
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(clean))
	testN := int(math.Ceil(float64(len(clean)) * cfg.TestFraction))
	if testN < 1 || len(clean)-testN < 1 {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewRecords, len(clean), minTrainRecords)
	}

	trainX := make([][]float64, 0, len(clean)-testN)
	trainY := make([]float64, 0, len(clean)-testN)
	testX := make([][]float64, 0, testN)
	testY := make([]float64, 0, testN)
	for pos, j := range perm {
		if pos < testN {
			testX = append(testX, x[j])
			testY = append(testY, y[j])
		} else {
			trainX = append(trainX, x[j])
			trainY = append(trainY, y[j])
		}
	}

	log.Printf("[Trainer] phase 1: fitting on %d rows, validating on %d", len(trainX), len(testX))
	opts := TrainOptions{
		LearningRate: cfg.LearningRate,
		MaxDepth:     cfg.MaxDepth,
		MaxRounds:    cfg.MaxRounds,
		EarlyStop:    cfg.EarlyStop,
	}
	evalModel, err := Fit(trainX, trainY, testX, testY, opts)
	if err != nil {
		return nil, fmt.Errorf("phase 1 fit failed: %w", err)
	}

	heldoutPred := evalModel.PredictBatch(testX)
	r2 := RSquared(testY, heldoutPred)
	mae := MAE(testY, heldoutPred)
	rounds := evalModel.Rounds()
	log.Printf("[Trainer] phase 1: rounds=%d heldout r2=%.4f mae=%.2f days", rounds, r2, mae)

	// Phase 2: refit at the discovered round count on all non-anomalous rows.
	log.Printf("[Trainer] phase 2: refitting %d rounds on all %d rows", rounds, len(x))
	finalOpts := TrainOptions{
		LearningRate: cfg.LearningRate,
		MaxDepth:     cfg.MaxDepth,
		MaxRounds:    rounds,
	}
	finalModel, err := Fit(x, y, nil, nil, finalOpts)
	if err != nil {
		return nil, fmt.Errorf("phase 2 fit failed: %w", err)
	}

	for i := range records {
		p := finalModel.Predict(FeatureVector(&records[i]))
		records[i].PredictedDays = p
		records[i].PredictionError = records[i].DeliveryTimeDays - p
	}

	return &TrainingResult{
		Model:        finalModel,
		HeldoutR2:    r2,
		HeldoutMAE:   mae,
		RoundsUsed:   rounds,
		FeatureNames: FeatureNames,
		Importances:  finalModel.Importance,
		TrainRows:    len(trainX),
		HeldoutRows:  len(testX),
		FinalRows:    len(x),
	}, nil
}
