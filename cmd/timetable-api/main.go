package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/arborview/timetable-api/api/swagger"
	"github.com/arborview/timetable-api/internal/handler"
	"github.com/arborview/timetable-api/internal/middleware"
	"github.com/arborview/timetable-api/internal/repository"
	"github.com/arborview/timetable-api/internal/service"
	"github.com/arborview/timetable-api/pkg/cache"
	"github.com/arborview/timetable-api/pkg/config"
	"github.com/arborview/timetable-api/pkg/database"
	"github.com/arborview/timetable-api/pkg/logger"
	corsmiddleware "github.com/arborview/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arborview/timetable-api/pkg/middleware/requestid"
)

// @title Arborview Timetable API
// @version 1.0.0
// @description Automated K-12 timetable generation and resource assignment
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, result caching disabled", zap.Error(err))
		redisClient = nil
	}

	catalogRepo := repository.NewCatalogRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	runRepo := repository.NewRunRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Generator.ResultCacheTTL, logr, redisClient != nil)
	generationSvc := service.NewGenerationService(
		catalogRepo,
		scheduleRepo,
		runRepo,
		cacheSvc,
		metricsSvc,
		nil,
		logr,
		service.GenerationConfig{
			DefaultAlgorithm:  cfg.Generator.DefaultAlgorithm,
			DefaultTimeBudget: cfg.Generator.DefaultTimeBudget,
			MaxTimeBudget:     cfg.Generator.MaxTimeBudget,
			ResultCacheTTL:    cfg.Generator.ResultCacheTTL,
			LunchWaves:        cfg.Generator.LunchWaves,
			LunchWaveCapacity: cfg.Generator.LunchWaveCapacity,
			Parallelism:       cfg.Generator.Parallelism,
			QueueSize:         cfg.Jobs.QueueSize,
			Workers:           cfg.Jobs.Workers,
			JobTimeout:        cfg.Jobs.JobTimeout,
		},
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	generationSvc.StartWorkers(workerCtx)

	generationHandler := handler.NewGenerationHandler(generationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Swagger.Enabled || cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		schedule := api.Group("/schedule")
		schedule.POST("/generate", generationHandler.Generate)
		schedule.GET("/runs/:id", generationHandler.RunStatus)
		schedule.GET("/last-result", generationHandler.LastResult)
		if cfg.Export.Enabled {
			schedule.GET("/last-result/export", generationHandler.ExportLastResult)
		}
		schedule.GET("/history", generationHandler.History)
		schedule.GET("/health-trend", generationHandler.HealthTrend)
		schedule.GET("/:id", generationHandler.Schedule)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	generationSvc.StopWorkers()
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
