package anomaly

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// ErrDegenerateFeature means a scoring feature has zero variance and cannot
// be standardized. The run must abort; retrying cannot help.
var ErrDegenerateFeature = errors.New("scoring feature has zero variance")

// scoringNames lists the anomaly-scoring subset: the process outcome, route
// difficulty, and the physical attributes. Deliberately narrower than the
// regression feature set.
var scoringNames = []string{
	"delivery_time_days",
	"distance_km",
	"product_weight_g",
	"product_vol_cm3",
	"freight_value",
}

// scoringVector returns the scoring subset of one record, ordered as
// scoringNames.
func scoringVector(r *models.FeatureRecord) []float64 {
	return []float64{
		r.DeliveryTimeDays,
		r.DistanceKm,
		r.WeightG,
		r.VolumeCm3,
		r.FreightValue,
	}
}

// Detector flags anomalous deliveries with an isolation forest over the
// standardized scoring subset. Contamination is the prior fraction of
// records assumed anomalous, not a learned quantity.
type Detector struct {
	Contamination float64
	Trees         int
	SampleSize    int
	Seed          int64
}

// NewDetector returns a detector with the production forest size.
func NewDetector(contamination float64, seed int64) *Detector {
	return &Detector{
		Contamination: contamination,
		Trees:         100,
		SampleSize:    256,
		Seed:          seed,
	}
}

// Detect standardizes the scoring subset, fits the forest, and labels every
// record in place. Records scoring above the contamination quantile are
// anomalous. Returns the number of anomalies.
func (d *Detector) Detect(records []models.FeatureRecord) (int, error) {
	if len(records) < 2 {
		for i := range records {
			records[i].IsAnomaly = false
		}
		return 0, nil
	}

	cols := len(scoringNames)
	m := mat.NewDense(len(records), cols, nil)
	for i := range records {
		m.SetRow(i, scoringVector(&records[i]))
	}

	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			return 0, fmt.Errorf("%w: %s", ErrDegenerateFeature, scoringNames[j])
		}
		for i, v := range col {
			m.Set(i, j, (v-mean)/std)
		}
	}

	x := make([][]float64, len(records))
	for i := range x {
		x[i] = mat.Row(nil, i, m)
	}

	forest := FitIsolationForest(x, d.Trees, d.SampleSize, d.Seed)
	scores := forest.ScoreBatch(x)

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	threshold := stat.Quantile(1-d.Contamination, stat.Empirical, sorted, nil)

	count := 0
	for i := range records {
		anomalous := scores[i] > threshold
		records[i].IsAnomaly = anomalous
		if anomalous {
			count++
		}
	}

	log.Printf("[AnomalyDetector] flagged %d of %d records as anomalous", count, len(records))
	return count, nil
}
