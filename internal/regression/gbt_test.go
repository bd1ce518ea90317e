package regression

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// linearXY returns n rows of three features where the target depends only on
// the first: y = 2 + 3*x0.
func linearXY(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = []float64{rng.Float64() * 10, rng.Float64() * 5, rng.Float64()}
		y[i] = 2 + 3*x[i][0]
	}
	return x, y
}

func TestFitLearnsLinearSignal(t *testing.T) {
	x, y := linearXY(400, 1)

	m, err := Fit(x, y, nil, nil, TrainOptions{LearningRate: 0.1, MaxDepth: 3, MaxRounds: 200})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred := m.PredictBatch(x)
	baseline := make([]float64, len(y))
	for i := range baseline {
		baseline[i] = m.BaseScore
	}
	fitted, base := RMSE(y, pred), RMSE(y, baseline)
	if fitted > 0.2*base {
		t.Fatalf("ensemble barely beats the mean: rmse %.3f vs baseline %.3f", fitted, base)
	}
}

func TestFitEarlyStoppingTruncatesOnNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	noise := func(n int) ([][]float64, []float64) {
		x := make([][]float64, n)
		y := make([]float64, n)
		for i := range x {
			x[i] = []float64{rng.Float64(), rng.Float64()}
			y[i] = rng.NormFloat64()
		}
		return x, y
	}
	trainX, trainY := noise(300)
	valX, valY := noise(100)

	m, err := Fit(trainX, trainY, valX, valY, TrainOptions{
		LearningRate: 0.1,
		MaxDepth:     6,
		MaxRounds:    500,
		EarlyStop:    10,
	})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if m.Rounds() >= 500 {
		t.Fatalf("early stopping never fired, kept all %d rounds", m.Rounds())
	}
	if m.Rounds() < 1 {
		t.Fatal("truncation removed every round")
	}
}

func TestFitSameDataSameModel(t *testing.T) {
	x, y := linearXY(150, 3)
	opts := TrainOptions{LearningRate: 0.1, MaxDepth: 4, MaxRounds: 40}

	a, err := Fit(x, y, nil, nil, opts)
	if err != nil {
		t.Fatalf("first Fit failed: %v", err)
	}
	b, err := Fit(x, y, nil, nil, opts)
	if err != nil {
		t.Fatalf("second Fit failed: %v", err)
	}

	probe := [][]float64{{0.5, 1, 0.2}, {7.5, 4, 0.9}, {3.3, 0.1, 0.5}}
	for i, row := range probe {
		if a.Predict(row) != b.Predict(row) {
			t.Fatalf("probe %d: deterministic fits disagree", i)
		}
	}
}

func TestFitRejectsEmptyTrainingSet(t *testing.T) {
	if _, err := Fit(nil, nil, nil, nil, TrainOptions{MaxRounds: 10}); !errors.Is(err, ErrNoTrainingData) {
		t.Fatalf("expected ErrNoTrainingData for empty set, got %v", err)
	}
	_, err := Fit([][]float64{{1}}, []float64{1, 2}, nil, nil, TrainOptions{MaxRounds: 10})
	if !errors.Is(err, ErrNoTrainingData) {
		t.Fatalf("expected ErrNoTrainingData for length mismatch, got %v", err)
	}
}

func TestFitImportanceConcentratesOnSignal(t *testing.T) {
	x, y := linearXY(300, 4)

	m, err := Fit(x, y, nil, nil, TrainOptions{LearningRate: 0.1, MaxDepth: 4, MaxRounds: 60})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	imp := m.Importance
	if len(imp) != 3 {
		t.Fatalf("expected 3 importances, got %d", len(imp))
	}
	var sum float64
	for i, v := range imp {
		if v < 0 {
			t.Fatalf("importance %d is negative: %v", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("importances sum to %v, want 1", sum)
	}
	if imp[0] < 0.9 {
		t.Fatalf("signal feature holds only %.3f of the gain", imp[0])
	}
}

func TestModelJSONRoundTrip(t *testing.T) {
	x, y := linearXY(120, 5)
	m, err := Fit(x, y, nil, nil, TrainOptions{LearningRate: 0.1, MaxDepth: 3, MaxRounds: 25})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	blob, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	restored, err := ModelFromJSON(blob)
	if err != nil {
		t.Fatalf("ModelFromJSON failed: %v", err)
	}

	if restored.Rounds() != m.Rounds() {
		t.Fatalf("rounds changed across serialization: %d vs %d", restored.Rounds(), m.Rounds())
	}
	if restored.FeatureCount != m.FeatureCount {
		t.Fatalf("feature count changed: %d vs %d", restored.FeatureCount, m.FeatureCount)
	}
	probe := [][]float64{{0.5, 1, 0.2}, {7.5, 4, 0.9}, {3.3, 0.1, 0.5}, {9.9, 2.2, 0.1}}
	for i, row := range probe {
		if got, want := restored.Predict(row), m.Predict(row); got != want {
			t.Fatalf("probe %d: restored model predicts %v, original %v", i, got, want)
		}
	}
}
