package models

import "time"

// PipelineRun tracks one execution of the training pipeline.
type PipelineRun struct {
	ID      string `json:"id" db:"id"`
	Trigger string `json:"trigger" db:"run_trigger"` // startup, admin

	// Status
	Status       string `json:"status" db:"status"` // pending, running, completed, failed
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Stage counts
	RawOrders    int `json:"raw_orders" db:"raw_orders"`
	JoinedRows   int `json:"joined_rows" db:"joined_rows"`
	FeatureRows  int `json:"feature_rows" db:"feature_rows"`
	AnomalyRows  int `json:"anomaly_rows" db:"anomaly_rows"`
	TrainingRows int `json:"training_rows" db:"training_rows"`

	// Results
	RoundsUsed  int    `json:"rounds_used" db:"rounds_used"`
	MetricsJSON string `json:"metrics_json,omitempty" db:"metrics_json"`

	StartedAt   time.Time `json:"started_at" db:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" db:"completed_at"` // zero until finished
}

// Run status constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run trigger constants
const (
	RunTriggerStartup = "startup"
	RunTriggerAdmin   = "admin"
)
