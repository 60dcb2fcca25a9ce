package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"law-reports-backend/internal/archive"
	"law-reports-backend/internal/auth"
	"law-reports-backend/internal/config"
	handler "law-reports-backend/internal/handlers"
	"law-reports-backend/internal/services/batch"
	"law-reports-backend/internal/services/datamanager"
	"law-reports-backend/internal/services/ingestion"
	"law-reports-backend/internal/services/normalizer"
	"law-reports-backend/internal/services/report"
)

// Deps are the long-lived pieces built in main.
type Deps struct {
	Config   *config.Config
	Data     *datamanager.Manager
	Revoker  auth.Revoker
	Archiver archive.Archiver
	Log      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	sessions := datamanager.NewSessions(cfg.Store.CacheTTL())
	locks := batch.NewLocks()
	batchManager := batch.NewManager(d.Data, locks, d.Log.Named("batch"))
	norm := normalizer.New(cfg.Rosters, cfg.Ingest, d.Log.Named("normalizer"))
	ingestService := ingestion.NewService(d.Data, batchManager, norm, d.Archiver, locks, d.Log.Named("ingestion"))
	reportService := report.NewService(d.Data, d.Log.Named("report"))

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL())
	authService := auth.NewService(cfg.Auth.Users, tokens, d.Revoker, sessions, d.Log.Named("auth"))

	authHandler := handler.NewAuthHandler(authService)
	uploadHandler := handler.NewUploadHandler(ingestService, cfg.Ingest.MaxUploadMB)
	batchHandler := handler.NewBatchHandler(batchManager)
	reportHandler := handler.NewReportHandler(reportService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store.Driver})
	})

	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(auth.Middleware(authService))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	secured.POST("/uploads/:report", uploadHandler.Upload)

	batches := secured.Group("/batches")
	batches.GET("", batchHandler.List)
	batches.DELETE("/:report/:batchId", batchHandler.Remove)
	batches.POST("/:report/orphans", batchHandler.AssignOrphans)

	admin := secured.Group("/admin")
	admin.POST("/reset", batchHandler.Reset)
	admin.POST("/sync", batchHandler.Sync)

	reports := secured.Group("/reports")
	{
		reports.GET("/weeks", reportHandler.Weeks)
		reports.GET("/:report", reportHandler.Get)
		reports.GET("/:report/export", reportHandler.Export)
		reports.GET("/:report/charts", reportHandler.Charts)
	}
}
