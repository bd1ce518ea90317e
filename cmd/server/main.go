package main

import (
	"log"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/api"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/config"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/database"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/handler"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/repository"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/service"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	db := database.GetDB()
	runRepo := repository.NewPipelineRunRepository(db)
	recordRepo := repository.NewFeatureRecordRepository(db)
	snapshotRepo := repository.NewModelSnapshotRepository(db)

	predictionService := service.NewPredictionService()
	pipelineService := service.NewPipelineService(cfg, runRepo, recordRepo, snapshotRepo, predictionService)
	recordService := service.NewRecordService(recordRepo, runRepo, snapshotRepo)

	// The model is trained (or restored) before the server accepts traffic;
	// a failure here means the service has nothing to serve.
	if cfg.SkipStartupRun {
		if err := pipelineService.LoadActiveModel(); err != nil {
			log.Fatal("Failed to load active model:", err)
		}
	} else {
		if _, err := pipelineService.RunOnce(models.RunTriggerStartup); err != nil {
			log.Fatal("Startup pipeline run failed:", err)
		}
	}

	router := api.SetupRouter(cfg, &api.Handlers{
		Health:  handler.NewHealthHandler(predictionService, pipelineService),
		Predict: handler.NewPredictHandler(predictionService),
		Model:   handler.NewModelHandler(predictionService, recordService),
		Records: handler.NewRecordHandler(recordService),
		Runs:    handler.NewRunHandler(recordService, pipelineService),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
