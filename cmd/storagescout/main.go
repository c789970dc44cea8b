package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/storagescout/internal/cache"
	"github.com/vbonduro/storagescout/internal/config"
	"github.com/vbonduro/storagescout/internal/db"
	"github.com/vbonduro/storagescout/internal/logging"
	"github.com/vbonduro/storagescout/internal/metrics"
	"github.com/vbonduro/storagescout/internal/scan"
	"github.com/vbonduro/storagescout/internal/scan/qr"
	"github.com/vbonduro/storagescout/internal/scan/snapshot"
	"github.com/vbonduro/storagescout/internal/service"
	"github.com/vbonduro/storagescout/internal/store"
	"github.com/vbonduro/storagescout/internal/vision"
	claudevision "github.com/vbonduro/storagescout/internal/vision/claude"
	ollamavision "github.com/vbonduro/storagescout/internal/vision/ollama"
	"github.com/vbonduro/storagescout/internal/web"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error("server error", "error", err)
	}
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	checks := map[string]web.HealthCheck{"db": database.PingContext}

	itemStore := store.NewItemStore(database)
	labelStore := store.NewLabelStore(database)

	var inv *service.InventoryService
	visionSuggester := newVisionSuggester(cfg, logger)

	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis", "error", err)
			}
		}()
		checks["redis"] = redisClient.Ping
		logger.Info("box label cache enabled", "ttl", cfg.LabelCacheTTL)

		labels := cache.NewLabelCache(redisClient, labelStore, cfg.LabelCacheTTL, logger)
		inv = service.NewInventoryService(itemStore, labels, visionSuggester, logger)
	} else {
		inv = service.NewInventoryService(itemStore, labelStore, visionSuggester, logger)
	}

	m := metrics.New()
	scanOpts := scan.Options{
		Interval:     cfg.ScanInterval,
		MaxWidth:     cfg.ScanMaxWidth,
		SuccessDelay: cfg.ScanSuccessDelay,
		RetryDelay:   cfg.ScanRetryDelay,
		Facing:       scan.Facing(cfg.CameraFacing),
		Observer:     m.Scan(),
	}

	var camera scan.Camera
	if cfg.CameraSnapshotURL != "" {
		logger.Info("snapshot camera configured", "url", cfg.CameraSnapshotURL)
		camera = snapshot.NewCamera(cfg.CameraSnapshotURL, logger)
	}
	scanner := service.NewScanner(inv, camera, qr.NewDecoder(), scanOpts, logger)

	server := web.NewServer(inv, scanner, m, checks, web.Config{
		DefaultOwner:  cfg.DefaultOwner,
		PublicBaseURL: cfg.PublicBaseURL,
		ScanRateLimit: cfg.ScanRateLimit,
		ScanTimeout:   cfg.ScanTimeout,
	}, logger)

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newVisionSuggester(cfg *config.Config, logger *slog.Logger) vision.Suggester {
	switch cfg.VisionBackend {
	case "claude":
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("item suggestions disabled")
		return vision.Disabled{}
	}
}
