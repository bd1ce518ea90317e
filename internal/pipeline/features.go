package pipeline

import (
	"math"
	"time"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/spatial"
)

// StatusDelivered is the only order status that produces feature records.
const StatusDelivered = "delivered"

// DeriveFeatures computes the derived features for every joined record and
// applies the completeness filter: only delivered orders with a known
// delivery time, product weight and distance survive. This filter is the
// single correctness gate of the pipeline; rows are dropped, never imputed.
func DeriveFeatures(joined []JoinedRecord) []models.FeatureRecord {
	records := make([]models.FeatureRecord, 0, len(joined))
	for i := range joined {
		rec, ok := deriveOne(&joined[i])
		if ok {
			records = append(records, rec)
		}
	}
	return records
}

func deriveOne(j *JoinedRecord) (models.FeatureRecord, bool) {
	if j.Status != StatusDelivered {
		return models.FeatureRecord{}, false
	}
	if j.PurchasedAt.IsZero() || j.DeliveredAt.IsZero() {
		return models.FeatureRecord{}, false
	}
	if math.IsNaN(j.WeightG) {
		return models.FeatureRecord{}, false
	}

	distance := spatial.HaversineKm(j.CustomerLat, j.CustomerLng, j.SellerLat, j.SellerLng)
	if math.IsNaN(distance) {
		return models.FeatureRecord{}, false
	}

	// A missing dimension zeroes the whole volume, conflating "unknown" with
	// "no volume". Known data-quality limitation of the source tables.
	volume := zeroIfNaN(j.LengthCm) * zeroIfNaN(j.HeightCm) * zeroIfNaN(j.WidthCm)

	lag := 0.0
	if !j.ApprovedAt.IsZero() {
		lag = float64(wholeDays(j.PurchasedAt, j.ApprovedAt))
	}

	weekend := 0
	if mondayWeekday(j.PurchasedAt) >= 4 { // Friday, Saturday or Sunday
		weekend = 1
	}

	return models.FeatureRecord{
		OrderID:          j.OrderID,
		WeightG:          j.WeightG,
		VolumeCm3:        volume,
		CustomerLat:      j.CustomerLat,
		CustomerLng:      j.CustomerLng,
		SellerLat:        j.SellerLat,
		SellerLng:        j.SellerLng,
		DistanceKm:       distance,
		PaymentLagDays:   lag,
		PurchaseMonth:    int(j.PurchasedAt.Month()),
		IsWeekendOrder:   weekend,
		FreightValue:     zeroIfNaN(j.FreightValue),
		DeliveryTimeDays: float64(wholeDays(j.PurchasedAt, j.DeliveredAt)),
	}, true
}

// wholeDays returns the floored whole-day difference to - from.
func wholeDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// mondayWeekday returns the weekday with Monday as 0 and Sunday as 6.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
