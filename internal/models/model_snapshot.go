package models

import "time"

// ModelSnapshot is a persisted, versioned trained model. At most one
// snapshot per model key is active; the active one is served.
type ModelSnapshot struct {
	ID             string    `json:"id" db:"id"`
	ModelKey       string    `json:"model_key" db:"model_key"`
	Version        int       `json:"version" db:"version"`
	ParamsJSON     string    `json:"params_json" db:"params_json"`
	MetricsJSON    string    `json:"metrics_json" db:"metrics_json"`
	ImportanceJSON string    `json:"importance_json" db:"importance_json"`
	ModelJSON      string    `json:"-" db:"model_json"` // serialized tree ensemble, large
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ModelKeyDeliveryGBT is the model key for the delivery-time regressor.
const ModelKeyDeliveryGBT = "delivery_time_gbt"
