package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered, embedded schema history. Versions are applied
// once and recorded in the migrations table.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_pipeline_runs",
		SQL: `
			CREATE TABLE IF NOT EXISTS pipeline_runs (
				id TEXT PRIMARY KEY,
				run_trigger TEXT NOT NULL,
				status TEXT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				raw_orders INTEGER NOT NULL DEFAULT 0,
				joined_rows INTEGER NOT NULL DEFAULT 0,
				feature_rows INTEGER NOT NULL DEFAULT 0,
				anomaly_rows INTEGER NOT NULL DEFAULT 0,
				training_rows INTEGER NOT NULL DEFAULT 0,
				rounds_used INTEGER NOT NULL DEFAULT 0,
				metrics_json TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP NOT NULL,
				completed_at TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started_at ON pipeline_runs(started_at);
		`,
	},
	{
		Version: 2,
		Name:    "create_feature_records",
		SQL: `
			CREATE TABLE IF NOT EXISTS feature_records (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL,
				order_id TEXT NOT NULL,
				product_weight_g REAL NOT NULL,
				product_vol_cm3 REAL NOT NULL,
				customer_lat REAL NOT NULL,
				customer_lng REAL NOT NULL,
				seller_lat REAL NOT NULL,
				seller_lng REAL NOT NULL,
				distance_km REAL NOT NULL,
				payment_lag_days REAL NOT NULL,
				purchase_month INTEGER NOT NULL,
				is_weekend_order INTEGER NOT NULL,
				freight_value REAL NOT NULL,
				delivery_time_days REAL NOT NULL,
				is_anomaly INTEGER NOT NULL DEFAULT 0,
				predicted_days REAL NOT NULL DEFAULT 0,
				prediction_error REAL NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_feature_records_run_id ON feature_records(run_id);
			CREATE INDEX IF NOT EXISTS idx_feature_records_anomaly ON feature_records(run_id, is_anomaly);
		`,
	},
	{
		Version: 3,
		Name:    "create_model_snapshots",
		SQL: `
			CREATE TABLE IF NOT EXISTS model_snapshots (
				id TEXT PRIMARY KEY,
				model_key TEXT NOT NULL,
				version INTEGER NOT NULL,
				params_json TEXT NOT NULL DEFAULT '',
				metrics_json TEXT NOT NULL DEFAULT '',
				importance_json TEXT NOT NULL DEFAULT '',
				model_json TEXT NOT NULL DEFAULT '',
				active INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				UNIQUE(model_key, version)
			);
			CREATE INDEX IF NOT EXISTS idx_model_snapshots_active ON model_snapshots(model_key, active);
		`,
	},
}

// RunMigrations applies all pending embedded migrations on the given handle.
func RunMigrations(h *sql.DB) error {
	if err := initMigrationsTable(h); err != nil {
		return err
	}

	applied, err := appliedMigrations(h)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(h, m); err != nil {
			return err
		}
	}

	return nil
}

func initMigrationsTable(h *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := h.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func appliedMigrations(h *sql.DB) (map[int]bool, error) {
	rows, err := h.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func applyMigration(h *sql.DB, m Migration) error {
	return TransactionOn(h, func(tx *sql.Tx) error {
		if _, err := tx.Exec(m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		log.Printf("[Database] applied migration %d: %s", m.Version, m.Name)
		return nil
	})
}
