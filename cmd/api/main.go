package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carecircle/internal/config"
	"carecircle/internal/domain/attachment"
	"carecircle/internal/domain/visit"
	"carecircle/internal/handler"
	"carecircle/internal/locks"
	"carecircle/internal/middleware"
	"carecircle/internal/progress"
	"carecircle/internal/repository"
	"carecircle/internal/services"
	"carecircle/internal/storage"
	"carecircle/pkg/database"
	"carecircle/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Server.Environment)
	defer log.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Errorf("database connection failed: %v", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&visit.Visit{}, &attachment.Attachment{}); err != nil {
		log.Errorf("migration failed: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	blobs, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3.Region,
		Bucket:     cfg.S3.Bucket,
		AccessKey:  cfg.S3.AccessKey,
		SecretKey:  cfg.S3.SecretKey,
		Endpoint:   cfg.S3.Endpoint,
		PresignTTL: cfg.S3.PresignTTL,
	})
	if err != nil {
		log.Errorf("s3 client init failed: %v", err)
		os.Exit(1)
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var locker locks.VisitLocker
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warnf("redis unreachable, falling back to in-process visit locks: %v", err)
		locker = locks.NewMemoryLocker()
	} else {
		locker = locks.NewRedisLocker(redisClient, cfg.Upload.LockTTL)
	}
	feed := progress.NewRedisFeed(redisClient, log)

	attachmentRepo := repository.NewAttachmentRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	uploadService := services.NewUploadService(attachmentRepo, visitRepo, blobs, locker, log, cfg.Upload.BlobOpTimeout)
	attachmentService := services.NewAttachmentService(attachmentRepo, visitRepo, blobs, log, cfg.Upload.BlobOpTimeout)
	visitService := services.NewVisitService(visitRepo)

	attachmentHandler := handler.NewAttachmentHandler(uploadService, attachmentService, feed)
	visitHandler := handler.NewVisitHandler(visitService)
	progressHandler := handler.NewProgressHandler(feed, log)

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.ErrorHandler(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	{
		api.POST("/visits", visitHandler.Create)
		api.GET("/visits/:id", visitHandler.GetByID)
		api.GET("/circles/:id/visits", visitHandler.ListByCircle)
		api.GET("/circles/:id/storage-stats", attachmentHandler.StorageStats)

		api.POST("/visits/:id/photos", attachmentHandler.UploadPhoto)
		api.POST("/visits/:id/voice", attachmentHandler.UploadVoice)
		api.GET("/visits/:id/attachments", attachmentHandler.ListForVisit)

		api.DELETE("/attachments/:id", attachmentHandler.Delete)
		api.PATCH("/attachments/:id/caption", attachmentHandler.UpdateCaption)
		api.POST("/attachments/:id/archive", attachmentHandler.Archive)
		api.POST("/attachments/:id/restore", attachmentHandler.Restore)
		api.GET("/attachments/:id/url", attachmentHandler.ResolveURL)
	}

	r.GET("/ws/uploads/:id/progress", progressHandler.Handle)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown failed: %v", err)
	}
}
