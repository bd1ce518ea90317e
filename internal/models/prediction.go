package models

// PredictRequest is a single inference request. All fields are required;
// pointers distinguish an absent field from a legitimate zero.
type PredictRequest struct {
	WeightG        *float64 `json:"product_weight_g" binding:"required"`
	VolumeCm3      *float64 `json:"product_vol_cm3" binding:"required"`
	DistanceKm     *float64 `json:"distance_km" binding:"required"`
	FreightValue   *float64 `json:"freight_value" binding:"required"`
	PaymentLagDays *float64 `json:"payment_lag_days" binding:"required"`
	PurchaseMonth  *int     `json:"purchase_month" binding:"required"`
	IsWeekendOrder *int     `json:"is_weekend_order" binding:"required"`
	CustomerLat    *float64 `json:"customer_lat" binding:"required"`
	CustomerLng    *float64 `json:"customer_lng" binding:"required"`
	SellerLat      *float64 `json:"seller_lat" binding:"required"`
	SellerLng      *float64 `json:"seller_lng" binding:"required"`
}

// PredictResponse carries the model output plus any out-of-range warnings.
type PredictResponse struct {
	PredictedDays float64  `json:"predicted_days"`
	Warnings      []string `json:"warnings"`
	ModelVersion  int      `json:"model_version"`
}

// ModelMetrics summarizes the served model's held-out quality.
type ModelMetrics struct {
	R2Score          float64 `json:"r2_score"`
	MAE              float64 `json:"mae"`
	BusinessAccuracy float64 `json:"business_accuracy"` // fraction of records predicted within 3 days
	RoundsUsed       int     `json:"rounds_used"`
	TrainRows        int     `json:"train_rows"`
	HeldoutRows      int     `json:"heldout_rows"`
	FinalRows        int     `json:"final_rows"`
	Records          int     `json:"records"`
	Version          int     `json:"version"`
}

// FeatureImportance is one entry of the ranked importance list.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}
