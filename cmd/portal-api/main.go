package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	v1 "eco-proof/community-portal/community-portal-backend/api/v1"
	"eco-proof/community-portal/community-portal-backend/internal/config"
	"eco-proof/community-portal/community-portal-backend/internal/notifications"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/upload"
	"eco-proof/community-portal/community-portal-backend/pkg/storage"
)

func main() {
	// A .env file is optional. Real environments set variables directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		bootstrap, _ := zap.NewDevelopment()
		bootstrap.Fatal("Failed to load config file", zap.Error(err))
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	store, err := recordstore.Open(cfg.Storage.DataDir, logger)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}

	uploadStore, serveLocal, err := newUploadStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize upload storage", zap.Error(err))
	}
	uploads := upload.NewService(uploadStore, cfg.Uploads.MaxBytes, logger)

	hub := notifications.NewHub(logger)

	// Setup Router
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := v1.SetupPortalAPI(v1.Dependencies{
		Store:         store,
		Uploads:       uploads,
		Awards:        cfg.AwardMapping(),
		Hub:           hub,
		AuditSchedule: cfg.Audit.Schedule,
		Logger:        logger,
	})
	v1.RegisterPortalRoutes(router, api)

	if serveLocal {
		router.Static("/uploads", cfg.Uploads.Dir)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"data_dir":  store.Dir(),
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("data_dir", store.Dir()),
		zap.String("upload_backend", cfg.Uploads.Backend))

	if cfg.Audit.Enabled {
		if err := api.Auditor.Start(); err != nil {
			logger.Fatal("Failed to start audit scheduler", zap.Error(err))
		}
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	if cfg.Audit.Enabled {
		api.Auditor.Stop()
	}
	hub.Close()

	logger.Info("Server exiting")
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// newUploadStore builds the configured upload backend. The second return
// value reports whether the router should serve /uploads from disk.
func newUploadStore(cfg *config.Config) (upload.Store, bool, error) {
	switch cfg.Uploads.Backend {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := storage.NewS3Client(ctx, storage.Options{
			Region:          cfg.Uploads.S3.Region,
			Endpoint:        cfg.Uploads.S3.Endpoint,
			AccessKeyID:     cfg.Uploads.S3.AccessKeyID,
			SecretAccessKey: cfg.Uploads.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, false, err
		}
		return upload.NewS3Store(client, cfg.Uploads.S3.Bucket, cfg.Uploads.S3.PresignExpiry), false, nil
	default:
		store, err := upload.NewLocalStore(cfg.Uploads.Dir)
		if err != nil {
			return nil, false, err
		}
		return store, true, nil
	}
}
