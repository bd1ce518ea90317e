package repository

import (
	"database/sql"
	"fmt"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/database"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// FeatureRecordRepository handles database operations for scored feature
// records. Only the latest run's records are kept; run history lives in
// pipeline_runs.
type FeatureRecordRepository struct {
	db *sql.DB
}

// NewFeatureRecordRepository creates a new feature record repository
func NewFeatureRecordRepository(db *sql.DB) *FeatureRecordRepository {
	return &FeatureRecordRepository{db: db}
}

const recordColumns = `order_id, product_weight_g, product_vol_cm3,
	customer_lat, customer_lng, seller_lat, seller_lng, distance_km,
	payment_lag_days, purchase_month, is_weekend_order, freight_value,
	delivery_time_days, is_anomaly, predicted_days, prediction_error`

// ReplaceForRun atomically replaces the stored record set with the given
// run's records.
func (r *FeatureRecordRepository) ReplaceForRun(runID string, records []models.FeatureRecord) error {
	return database.TransactionOn(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM feature_records"); err != nil {
			return fmt.Errorf("failed to clear feature records: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO feature_records (run_id, ` + recordColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer stmt.Close()

		for i := range records {
			rec := &records[i]
			_, err := stmt.Exec(runID, rec.OrderID, rec.WeightG, rec.VolumeCm3,
				rec.CustomerLat, rec.CustomerLng, rec.SellerLat, rec.SellerLng,
				rec.DistanceKm, rec.PaymentLagDays, rec.PurchaseMonth,
				rec.IsWeekendOrder, rec.FreightValue, rec.DeliveryTimeDays,
				boolToInt(rec.IsAnomaly), rec.PredictedDays, rec.PredictionError)
			if err != nil {
				return fmt.Errorf("failed to insert feature record: %w", err)
			}
		}
		return nil
	})
}

// Count returns the number of stored records
func (r *FeatureRecordRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feature_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feature records: %w", err)
	}
	return count, nil
}

// ListPage retrieves one page of stored records
func (r *FeatureRecordRepository) ListPage(limit, offset int) ([]models.FeatureRecord, error) {
	query := "SELECT " + recordColumns + " FROM feature_records ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListAnomalies retrieves up to limit anomalous records for map display
func (r *FeatureRecordRepository) ListAnomalies(limit int) ([]models.FeatureRecord, error) {
	query := "SELECT " + recordColumns + " FROM feature_records WHERE is_anomaly = 1 ORDER BY id LIMIT ?"
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalous records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.FeatureRecord, error) {
	var records []models.FeatureRecord
	for rows.Next() {
		var rec models.FeatureRecord
		var anomaly int
		err := rows.Scan(&rec.OrderID, &rec.WeightG, &rec.VolumeCm3,
			&rec.CustomerLat, &rec.CustomerLng, &rec.SellerLat, &rec.SellerLng,
			&rec.DistanceKm, &rec.PaymentLagDays, &rec.PurchaseMonth,
			&rec.IsWeekendOrder, &rec.FreightValue, &rec.DeliveryTimeDays,
			&anomaly, &rec.PredictedDays, &rec.PredictionError)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature record: %w", err)
		}
		rec.IsAnomaly = anomaly != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
