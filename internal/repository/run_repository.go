package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// PipelineRunRepository handles database operations for pipeline runs
type PipelineRunRepository struct {
	db *sql.DB
}

// NewPipelineRunRepository creates a new pipeline run repository
func NewPipelineRunRepository(db *sql.DB) *PipelineRunRepository {
	return &PipelineRunRepository{db: db}
}

// Create inserts a new run in pending state
func (r *PipelineRunRepository) Create(run *models.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, run_trigger, status, started_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, run.ID, run.Trigger, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return nil
}

// MarkRunning transitions a run to the running state
func (r *PipelineRunRepository) MarkRunning(id string) error {
	_, err := r.db.Exec("UPDATE pipeline_runs SET status = ? WHERE id = ?", models.RunStatusRunning, id)
	if err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}
	return nil
}

// Complete records a successful run with its counts and metrics
func (r *PipelineRunRepository) Complete(run *models.PipelineRun) error {
	query := `
		UPDATE pipeline_runs
		SET status = ?, raw_orders = ?, joined_rows = ?, feature_rows = ?,
			anomaly_rows = ?, training_rows = ?, rounds_used = ?,
			metrics_json = ?, completed_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		models.RunStatusCompleted, run.RawOrders, run.JoinedRows, run.FeatureRows,
		run.AnomalyRows, run.TrainingRows, run.RoundsUsed,
		run.MetricsJSON, run.CompletedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete pipeline run: %w", err)
	}
	return nil
}

// Fail records a failed run with its error message
func (r *PipelineRunRepository) Fail(id, message string) error {
	query := `
		UPDATE pipeline_runs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.RunStatusFailed, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// GetByID retrieves one run
func (r *PipelineRunRepository) GetByID(id string) (*models.PipelineRun, error) {
	query := `
		SELECT id, run_trigger, status, error_message, raw_orders, joined_rows,
			feature_rows, anomaly_rows, training_rows, rounds_used,
			metrics_json, started_at, completed_at
		FROM pipeline_runs WHERE id = ?
	`
	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline run: %w", err)
	}
	return run, nil
}

// List retrieves the most recent runs
func (r *PipelineRunRepository) List(limit int) ([]models.PipelineRun, error) {
	query := `
		SELECT id, run_trigger, status, error_message, raw_orders, joined_rows,
			feature_rows, anomaly_rows, training_rows, rounds_used,
			metrics_json, started_at, completed_at
		FROM pipeline_runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []models.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s rowScanner) (*models.PipelineRun, error) {
	var run models.PipelineRun
	var completedAt sql.NullTime
	err := s.Scan(&run.ID, &run.Trigger, &run.Status, &run.ErrorMessage,
		&run.RawOrders, &run.JoinedRows, &run.FeatureRows, &run.AnomalyRows,
		&run.TrainingRows, &run.RoundsUsed, &run.MetricsJSON,
		&run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}
