package regression

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoTrainingData is returned when Fit receives an empty training set.
var ErrNoTrainingData = errors.New("no training data")

// Model is a fitted gradient-boosted tree ensemble for squared-error
// regression. A prediction is BaseScore plus LearningRate times the sum of
// the tree outputs.
type Model struct {
	BaseScore    float64     `json:"base_score"`
	LearningRate float64     `json:"learning_rate"`
	FeatureCount int         `json:"feature_count"`
	Trees        []*treeNode `json:"trees"`
	Importance   []float64   `json:"importance"` // normalized gain per feature
}

// TrainOptions control one boosting run.
type TrainOptions struct {
	LearningRate float64
	MaxDepth     int
	MaxRounds    int
	EarlyStop    int // validation patience in rounds; 0 disables early stopping
}

// Fit trains an ensemble on x, y. When a validation set is supplied and
// EarlyStop is positive, boosting stops once validation RMSE has not improved
// for EarlyStop consecutive rounds, and the ensemble is truncated to the best
// round. Tree construction is deterministic, so two fits on the same data
// with the same options produce the same model.
func Fit(x [][]float64, y []float64, valX [][]float64, valY []float64, opts TrainOptions) (*Model, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, ErrNoTrainingData
	}
	featureCount := len(x[0])

	base := stat.Mean(y, nil)
	model := &Model{
		BaseScore:    base,
		LearningRate: opts.LearningRate,
		FeatureCount: featureCount,
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = base
	}
	valPred := make([]float64, len(valY))
	for i := range valPred {
		valPred[i] = base
	}

	useVal := len(valX) > 0 && opts.EarlyStop > 0
	residual := make([]float64, len(y))
	perTreeGain := make([][]float64, 0, opts.MaxRounds)

	bestRMSE := math.Inf(1)
	bestRound := -1
	sinceBest := 0

	for round := 0; round < opts.MaxRounds; round++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}

		builder := newTreeBuilder(x, residual, opts.MaxDepth, featureCount)
		tree := builder.fit()
		model.Trees = append(model.Trees, tree)
		perTreeGain = append(perTreeGain, builder.gain)

		for i := range x {
			pred[i] += opts.LearningRate * tree.predict(x[i])
		}

		if !useVal {
			continue
		}
		for i := range valX {
			valPred[i] += opts.LearningRate * tree.predict(valX[i])
		}
		rmse := RMSE(valY, valPred)
		if rmse < bestRMSE {
			bestRMSE = rmse
			bestRound = round
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= opts.EarlyStop {
				break
			}
		}
	}

	if useVal && bestRound >= 0 {
		model.Trees = model.Trees[:bestRound+1]
		perTreeGain = perTreeGain[:bestRound+1]
	}

	importance := make([]float64, featureCount)
	for _, g := range perTreeGain {
		floats.Add(importance, g)
	}
	if total := floats.Sum(importance); total > 0 {
		floats.Scale(1/total, importance)
	}
	model.Importance = importance

	return model, nil
}

// Rounds returns the number of boosting rounds the ensemble kept.
func (m *Model) Rounds() int {
	return len(m.Trees)
}

// Predict returns the model output for one feature vector.
func (m *Model) Predict(x []float64) float64 {
	out := m.BaseScore
	for _, t := range m.Trees {
		out += m.LearningRate * t.predict(x)
	}
	return out
}

// PredictBatch returns model outputs for a slice of feature vectors.
func (m *Model) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}
	return out
}

// ToJSON serializes the fitted ensemble for snapshot storage.
func (m *Model) ToJSON() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize model: %w", err)
	}
	return string(b), nil
}

// ModelFromJSON restores an ensemble serialized by ToJSON.
func ModelFromJSON(data string) (*Model, error) {
	var m Model
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to deserialize model: %w", err)
	}
	return &m, nil
}
