package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/config"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/handler"
	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/middleware"
)

// Handlers bundles everything the router exposes.
type Handlers struct {
	Health  *handler.HealthHandler
	Predict *handler.PredictHandler
	Model   *handler.ModelHandler
	Records *handler.RecordHandler
	Runs    *handler.RunHandler
}

// SetupRouter configures middleware and all API routes.
func SetupRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RateLimit(cfg.RateLimit, time.Minute))

	r.GET("/", h.Health.Root)
	r.GET("/health", h.Health.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/predict", h.Predict.Predict)

		model := api.Group("/model")
		{
			model.GET("/metrics", h.Model.GetMetrics)
			model.GET("/importance", h.Model.GetImportance)
			model.GET("/versions", h.Model.ListVersions)
		}

		records := api.Group("/records")
		{
			records.GET("", h.Records.ListRecords)
			records.GET("/anomalies", h.Records.ListAnomalies)
		}

		runs := api.Group("/runs")
		{
			runs.GET("", h.Runs.ListRuns)
			runs.GET("/:id", h.Runs.GetRun)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			admin.POST("/retrain", h.Runs.Retrain)
		}
	}

	return r
}
