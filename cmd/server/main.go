package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"law-reports-backend/internal/archive"
	"law-reports-backend/internal/auth"
	"law-reports-backend/internal/config"
	"law-reports-backend/internal/pkg/logger"
	"law-reports-backend/internal/pkg/retry"
	"law-reports-backend/internal/repository"
	"law-reports-backend/internal/repository/gsheets"
	"law-reports-backend/internal/routes"
	"law-reports-backend/internal/services/datamanager"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("opening store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	policy := retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.BaseDelay(), cfg.Retry.MaxDelay(), zlog.Named("retry"))
	data := datamanager.New(store, policy, zlog.Named("datamanager"))
	if err := data.EnsureSheets(ctx); err != nil {
		zlog.Fatal("ensuring sheets", zap.Error(err))
	}

	archiver, err := archive.New(ctx, cfg.Archive, zlog.Named("archive"))
	if err != nil {
		zlog.Fatal("archive", zap.Error(err))
	}

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			zlog.Warn("redis unavailable, token revocation is process-local", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
		} else {
			defer client.Close()
			revoker = auth.NewRedisRevoker(client)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(zlog.Named("http")))
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Config:   cfg,
		Data:     data,
		Revoker:  revoker,
		Archiver: archiver,
		Log:      zlog,
	})

	zlog.Info("listening", zap.String("addr", cfg.Server.Addr()), zap.String("store", cfg.Store.Driver))
	if err := r.Run(cfg.Server.Addr()); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.SheetStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := config.InitDB(cfg.Store)
		if err != nil {
			return nil, err
		}
		return repository.NewGormStore(db), nil
	case "gsheets":
		return gsheets.New(ctx, cfg.Store.SpreadsheetID, cfg.Store.CredentialsFile, log.Named("gsheets"))
	default:
		log.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
}
