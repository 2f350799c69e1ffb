package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hakivo/brief-engine/internal/aggregator"
	"github.com/hakivo/brief-engine/internal/audio"
	"github.com/hakivo/brief-engine/internal/briefs"
	"github.com/hakivo/brief-engine/internal/config"
	"github.com/hakivo/brief-engine/internal/database"
	"github.com/hakivo/brief-engine/internal/health"
	"github.com/hakivo/brief-engine/internal/images"
	"github.com/hakivo/brief-engine/internal/llm"
	"github.com/hakivo/brief-engine/internal/memory"
	"github.com/hakivo/brief-engine/internal/narrative"
	"github.com/hakivo/brief-engine/internal/news"
	"github.com/hakivo/brief-engine/internal/objstore"
	"github.com/hakivo/brief-engine/internal/pipeline"
	"github.com/hakivo/brief-engine/internal/stockphoto"
	"github.com/hakivo/brief-engine/internal/store"
	"github.com/hakivo/brief-engine/internal/streams"
	"github.com/hakivo/brief-engine/internal/taxonomy"
	"github.com/hakivo/brief-engine/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			logger.Warn("Failed to seed dev data", "error", err.Error())
		}
	}

	st := store.New(db)

	tax, err := taxonomy.Load()
	if err != nil {
		log.Fatalf("Failed to load interest taxonomy: %v", err)
	}

	openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.ImageModel)
	if err != nil {
		log.Fatalf("Failed to create model client: %v", err)
	}

	var uploader images.Uploader
	if cfg.StorageEndpoint != "" {
		up, err := objstore.New(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket, cfg.StoragePublicURL)
		if err != nil {
			logger.Warn("Object storage unavailable, image synthesis tier disabled", "error", err.Error())
		} else {
			uploader = up
		}
	}

	var stock images.StockSearcher
	if cfg.PexelsAPIKey != "" {
		stock = stockphoto.NewClient("", cfg.PexelsAPIKey)
	}

	resolver := images.NewResolver(openaiClient, uploader, stock, tax, logger)
	agg := aggregator.New(st, news.NewClient(cfg.NewsAPIBaseURL, cfg.NewsAPIKey), tax, logger)
	gen := narrative.New(openaiClient, logger)

	var notifier pipeline.AudioNotifier
	if cfg.AudioRendererURL != "" {
		notifier = audio.NewClient(cfg.AudioRendererURL, cfg.AudioRendererSecret)
	}

	var publisher pipeline.EventPublisher
	pub, err := streams.NewPublisher(cfg.RedisURL)
	if err != nil {
		logger.Warn("Streams publisher unavailable", "error", err.Error())
	} else {
		publisher = pub
		defer pub.Close()
	}

	var memWriter pipeline.MemoryWriter
	mw, err := memory.NewWriter(cfg.RedisURL)
	if err != nil {
		logger.Warn("Memory store unavailable", "error", err.Error())
	} else {
		memWriter = mw
		defer mw.Close()
	}

	pipe := pipeline.New(st, agg, gen, resolver, notifier, publisher, memWriter, tax, logger)

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		log.Fatalf("Failed to initialize task client: %v", err)
	}
	defer worker.CloseClient()

	stopWorker, err := worker.Start(cfg, pipe, worker.NewFanout(st))
	if err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	stopConsumer, err := streams.StartAudioResultConsumer(cfg.RedisURL, db)
	if err != nil {
		logger.Warn("Audio result consumer unavailable", "error", err.Error())
	} else {
		defer stopConsumer()
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", gin.WrapF(health.Handler))

	api := router.Group("/api")
	{
		api.POST("/briefs", briefs.CreateBriefHandler(st))
		api.GET("/briefs/:id", briefs.GetBriefHandler(st))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err.Error())
	}
}
