package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/database"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// ErrNoActiveModel means no snapshot is active for the requested model key.
var ErrNoActiveModel = errors.New("no active model snapshot")

// ModelSnapshotRepository handles database operations for model snapshots
type ModelSnapshotRepository struct {
	db *sql.DB
}

// NewModelSnapshotRepository creates a new model snapshot repository
func NewModelSnapshotRepository(db *sql.DB) *ModelSnapshotRepository {
	return &ModelSnapshotRepository{db: db}
}

// Save assigns the snapshot the next version for its model key, moves the
// active flag to it, and persists it, all in one transaction.
func (r *ModelSnapshotRepository) Save(snap *models.ModelSnapshot) error {
	return database.TransactionOn(r.db, func(tx *sql.Tx) error {
		var version int
		err := tx.QueryRow(
			"SELECT COALESCE(MAX(version), 0) + 1 FROM model_snapshots WHERE model_key = ?",
			snap.ModelKey,
		).Scan(&version)
		if err != nil {
			return fmt.Errorf("failed to determine next version: %w", err)
		}
		snap.Version = version

		if _, err := tx.Exec(
			"UPDATE model_snapshots SET active = 0 WHERE model_key = ? AND active = 1",
			snap.ModelKey,
		); err != nil {
			return fmt.Errorf("failed to deactivate previous snapshot: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO model_snapshots
				(id, model_key, version, params_json, metrics_json, importance_json, model_json, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
		`, snap.ID, snap.ModelKey, snap.Version, snap.ParamsJSON, snap.MetricsJSON,
			snap.ImportanceJSON, snap.ModelJSON, snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert model snapshot: %w", err)
		}
		snap.Active = true
		return nil
	})
}

// GetActive retrieves the active snapshot for a model key, including the
// serialized model.
func (r *ModelSnapshotRepository) GetActive(modelKey string) (*models.ModelSnapshot, error) {
	query := `
		SELECT id, model_key, version, params_json, metrics_json, importance_json, model_json, active, created_at
		FROM model_snapshots WHERE model_key = ? AND active = 1
	`
	var snap models.ModelSnapshot
	var active int
	err := r.db.QueryRow(query, modelKey).Scan(&snap.ID, &snap.ModelKey, &snap.Version,
		&snap.ParamsJSON, &snap.MetricsJSON, &snap.ImportanceJSON, &snap.ModelJSON,
		&active, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveModel
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active snapshot: %w", err)
	}
	snap.Active = active != 0
	return &snap, nil
}

// ListVersions retrieves snapshot history for a model key, newest first,
// without the serialized models.
func (r *ModelSnapshotRepository) ListVersions(modelKey string, limit int) ([]models.ModelSnapshot, error) {
	query := `
		SELECT id, model_key, version, params_json, metrics_json, importance_json, active, created_at
		FROM model_snapshots WHERE model_key = ? ORDER BY version DESC LIMIT ?
	`
	rows, err := r.db.Query(query, modelKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.ModelSnapshot
	for rows.Next() {
		var snap models.ModelSnapshot
		var active int
		err := rows.Scan(&snap.ID, &snap.ModelKey, &snap.Version, &snap.ParamsJSON,
			&snap.MetricsJSON, &snap.ImportanceJSON, &active, &snap.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Active = active != 0
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
