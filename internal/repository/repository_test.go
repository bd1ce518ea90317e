package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/database"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// openTestDB opens a migrated throwaway database in a per-test directory.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return db
}

func pendingRun(trigger string) *models.PipelineRun {
	return &models.PipelineRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    models.RunStatusPending,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRunLifecycle(t *testing.T) {
	repo := NewPipelineRunRepository(openTestDB(t))

	run := pendingRun(models.RunTriggerStartup)
	require.NoError(t, repo.Create(run))
	require.NoError(t, repo.MarkRunning(run.ID))

	got, err := repo.GetByID(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.True(t, got.CompletedAt.IsZero())

	run.RawOrders = 100
	run.JoinedRows = 90
	run.FeatureRows = 80
	run.AnomalyRows = 2
	run.TrainingRows = 78
	run.RoundsUsed = 123
	run.MetricsJSON = `{"r2_score":0.81}`
	run.CompletedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Complete(run))

	got, err = repo.GetByID(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 80, got.FeatureRows)
	assert.Equal(t, 78, got.TrainingRows)
	assert.Equal(t, 123, got.RoundsUsed)
	assert.Equal(t, `{"r2_score":0.81}`, got.MetricsJSON)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestRunFailure(t *testing.T) {
	repo := NewPipelineRunRepository(openTestDB(t))

	run := pendingRun(models.RunTriggerAdmin)
	require.NoError(t, repo.Create(run))
	require.NoError(t, repo.Fail(run.ID, "dataset directory missing"))

	got, err := repo.GetByID(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "dataset directory missing", got.ErrorMessage)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestRunGetByIDMissing(t *testing.T) {
	repo := NewPipelineRunRepository(openTestDB(t))

	got, err := repo.GetByID("no-such-run")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunListNewestFirst(t *testing.T) {
	repo := NewPipelineRunRepository(openTestDB(t))

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := pendingRun(models.RunTriggerStartup)
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func storedRecord(i int, anomaly bool) models.FeatureRecord {
	return models.FeatureRecord{
		OrderID:          fmt.Sprintf("o%d", i),
		WeightG:          500 + float64(i),
		VolumeCm3:        1000 + float64(i),
		CustomerLat:      -23.5,
		CustomerLng:      -46.6,
		SellerLat:        -22.9,
		SellerLng:        -43.2,
		DistanceKm:       360.5 + float64(i),
		PaymentLagDays:   1,
		PurchaseMonth:    11,
		IsWeekendOrder:   i % 2,
		FreightValue:     15.35,
		DeliveryTimeDays: 7 + float64(i),
		IsAnomaly:        anomaly,
		PredictedDays:    6.25 + float64(i),
		PredictionError:  0.75,
	}
}

func TestRecordReplaceAndPaging(t *testing.T) {
	repo := NewFeatureRecordRepository(openTestDB(t))

	records := []models.FeatureRecord{
		storedRecord(0, false),
		storedRecord(1, true),
		storedRecord(2, false),
		storedRecord(3, true),
		storedRecord(4, false),
	}
	require.NoError(t, repo.ReplaceForRun("run-1", records))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	page, err := repo.ListPage(2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "o0", page[0].OrderID)
	assert.Equal(t, "o1", page[1].OrderID)
	assert.Equal(t, records[0].WeightG, page[0].WeightG)
	assert.Equal(t, records[0].PredictedDays, page[0].PredictedDays)
	assert.Equal(t, 11, page[0].PurchaseMonth)
	assert.False(t, page[0].IsAnomaly)
	assert.True(t, page[1].IsAnomaly)

	page, err = repo.ListPage(2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "o4", page[0].OrderID)

	// A new run's records fully replace the previous set.
	require.NoError(t, repo.ReplaceForRun("run-2", records[:1]))
	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordListAnomalies(t *testing.T) {
	repo := NewFeatureRecordRepository(openTestDB(t))

	records := []models.FeatureRecord{
		storedRecord(0, false),
		storedRecord(1, true),
		storedRecord(2, true),
		storedRecord(3, false),
	}
	require.NoError(t, repo.ReplaceForRun("run-1", records))

	anomalies, err := repo.ListAnomalies(10)
	require.NoError(t, err)
	require.Len(t, anomalies, 2)
	assert.Equal(t, "o1", anomalies[0].OrderID)
	assert.Equal(t, "o2", anomalies[1].OrderID)
	for _, rec := range anomalies {
		assert.True(t, rec.IsAnomaly)
	}

	capped, err := repo.ListAnomalies(1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func snapshot(key string) *models.ModelSnapshot {
	return &models.ModelSnapshot{
		ID:             uuid.NewString(),
		ModelKey:       key,
		ParamsJSON:     `{"learning_rate":0.05,"max_depth":6}`,
		MetricsJSON:    `{"r2_score":0.8,"mae":1.2}`,
		ImportanceJSON: `[{"feature":"distance_km","importance":0.4}]`,
		ModelJSON:      `{"base_score":11.5,"trees":[]}`,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestSnapshotVersioning(t *testing.T) {
	repo := NewModelSnapshotRepository(openTestDB(t))

	first := snapshot(models.ModelKeyDeliveryGBT)
	require.NoError(t, repo.Save(first))
	assert.Equal(t, 1, first.Version)
	assert.True(t, first.Active)

	second := snapshot(models.ModelKeyDeliveryGBT)
	require.NoError(t, repo.Save(second))
	assert.Equal(t, 2, second.Version)

	active, err := repo.GetActive(models.ModelKeyDeliveryGBT)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 2, active.Version)
	assert.Equal(t, second.ModelJSON, active.ModelJSON)

	versions, err := repo.ListVersions(models.ModelKeyDeliveryGBT, 10)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.True(t, versions[0].Active)
	assert.False(t, versions[1].Active)
	assert.Empty(t, versions[0].ModelJSON) // history omits the blob
}

func TestSnapshotGetActiveMissing(t *testing.T) {
	repo := NewModelSnapshotRepository(openTestDB(t))

	_, err := repo.GetActive("untrained_key")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoActiveModel))
}
