package models

// FeatureRecord is one delivered order item with all derived features.
// Records are built once by the feature derivation stage, then mutated in
// place: the anomaly detector sets IsAnomaly, the trainer sets PredictedDays
// and PredictionError.
type FeatureRecord struct {
	OrderID string `json:"order_id" db:"order_id"`

	// Physical
	WeightG   float64 `json:"product_weight_g" db:"product_weight_g"`
	VolumeCm3 float64 `json:"product_vol_cm3" db:"product_vol_cm3"` // missing dimension counts as zero

	// Geospatial
	CustomerLat float64 `json:"customer_lat" db:"customer_lat"`
	CustomerLng float64 `json:"customer_lng" db:"customer_lng"`
	SellerLat   float64 `json:"seller_lat" db:"seller_lat"`
	SellerLng   float64 `json:"seller_lng" db:"seller_lng"`
	DistanceKm  float64 `json:"distance_km" db:"distance_km"`

	// Temporal
	PaymentLagDays float64 `json:"payment_lag_days" db:"payment_lag_days"` // zero when approval missing
	PurchaseMonth  int     `json:"purchase_month" db:"purchase_month"`     // 1-12
	IsWeekendOrder int     `json:"is_weekend_order" db:"is_weekend_order"` // 1 for Friday-Sunday purchases

	// Commercial
	FreightValue float64 `json:"freight_value" db:"freight_value"`

	// Target
	DeliveryTimeDays float64 `json:"delivery_time_days" db:"delivery_time_days"`

	// Set by later stages
	IsAnomaly       bool    `json:"is_anomaly" db:"is_anomaly"`
	PredictedDays   float64 `json:"predicted_days" db:"predicted_days"`
	PredictionError float64 `json:"prediction_error" db:"prediction_error"` // actual minus predicted
}
