package regression

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RSquared returns the coefficient of determination of predictions against
// observed values.
func RSquared(observed, predicted []float64) float64 {
	return stat.RSquaredFrom(predicted, observed, nil)
}

// MAE returns the mean absolute error.
func MAE(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}
	return floats.Distance(observed, predicted, 1) / float64(len(observed))
}

// RMSE returns the root mean squared error.
func RMSE(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}
	return floats.Distance(observed, predicted, 2) / math.Sqrt(float64(len(observed)))
}

// BusinessAccuracy returns the fraction of predictions within tol of the
// observed value.
func BusinessAccuracy(observed, predicted []float64, tol float64) float64 {
	if len(observed) == 0 {
		return 0
	}
	hits := 0
	for i := range observed {
		if math.Abs(observed[i]-predicted[i]) < tol {
			hits++
		}
	}
	return float64(hits) / float64(len(observed))
}
