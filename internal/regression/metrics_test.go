package regression

import (
	"math"
	"testing"
)

func TestRSquaredPerfectFit(t *testing.T) {
	obs := []float64{1, 2, 3, 4, 5}
	if r2 := RSquared(obs, obs); math.Abs(r2-1) > 1e-12 {
		t.Fatalf("perfect predictions give r2 = %v, want 1", r2)
	}
}

func TestMAEKnownValues(t *testing.T) {
	obs := []float64{10, 20, 30}
	pred := []float64{12, 19, 26}
	if got := MAE(obs, pred); math.Abs(got-7.0/3.0) > 1e-12 {
		t.Fatalf("MAE = %v, want %v", got, 7.0/3.0)
	}
	if got := MAE(nil, nil); got != 0 {
		t.Fatalf("MAE of empty input = %v, want 0", got)
	}
}

func TestRMSEKnownValues(t *testing.T) {
	obs := []float64{0, 0, 0, 0}
	pred := []float64{3, -3, 3, -3}
	if got := RMSE(obs, pred); math.Abs(got-3) > 1e-12 {
		t.Fatalf("RMSE = %v, want 3", got)
	}
}

func TestBusinessAccuracyStrictThreshold(t *testing.T) {
	obs := []float64{10, 10, 10, 10}
	pred := []float64{10.5, 12.9, 13.0, 14.1}
	// |error| must be strictly under the tolerance: 3.0 exactly is a miss.
	if got := BusinessAccuracy(obs, pred, 3); got != 0.5 {
		t.Fatalf("accuracy = %v, want 0.5", got)
	}
}
