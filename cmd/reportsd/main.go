package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
	"github.com/akashsingh3414/medical-report-analysis/internal/export"
	"github.com/akashsingh3414/medical-report-analysis/internal/extract"
	"github.com/akashsingh3414/medical-report-analysis/internal/insight"
	"github.com/akashsingh3414/medical-report-analysis/internal/repository"
	"github.com/akashsingh3414/medical-report-analysis/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Store.DBPath, logger)
	if err != nil {
		logger.Error("open report store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close report store", "error", cerr)
		}
	}()

	if err := os.MkdirAll(cfg.Store.UploadDir, 0o755); err != nil {
		logger.Error("create upload dir", "path", cfg.Store.UploadDir, "error", err)
		os.Exit(1)
	}

	reports := repository.NewReportRepository(db)
	processor := buildProcessor(cfg, logger)
	generator := buildGenerator(cfg, logger)
	exporter := export.NewService(reports, logger)

	svc := server.New(reports, processor, generator, exporter, cfg.Store.UploadDir, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: svc.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

// buildProcessor assembles the extraction pipeline from config. Backend
// selection happens here, once; nothing downstream branches on it.
func buildProcessor(cfg *common.Config, logger *slog.Logger) *extract.Processor {
	var recognizer extract.TextRecognizer
	if cfg.Extract.OCRBackend == "remote" {
		recognizer = extract.NewRemoteRecognizer(
			cfg.Extract.OCRRemoteURL,
			cfg.Extract.OCRRemoteAPIKey,
			cfg.Extract.OCRLanguage,
			cfg.Extract.OCRTimeout,
			logger,
		)
	} else {
		recognizer = extract.NewTesseractRecognizer(cfg.Extract.OCRLanguage, logger)
	}

	return extract.NewProcessor(
		extract.NewPdfcpuExtractor(logger),
		recognizer,
		extract.NewPdftoppmRasterizer(cfg.Extract.Pdftoppm, logger),
		extract.ProcessorOptions{
			DPI:              cfg.Extract.DPI,
			ScannedThreshold: cfg.Extract.ScannedThreshold,
			OCRTimeout:       cfg.Extract.OCRTimeout,
		},
		logger,
	)
}

func buildGenerator(cfg *common.Config, logger *slog.Logger) *insight.Generator {
	var completer insight.Completer
	if cfg.Insight.Backend == "openai" {
		completer = insight.NewOpenAICompleter(insight.OpenAIConfig{
			APIKey:      cfg.Insight.APIKey,
			BaseURL:     cfg.Insight.BaseURL,
			Model:       cfg.Insight.Model,
			Temperature: cfg.Insight.Temperature,
			Timeout:     cfg.Insight.Timeout,
		}, logger)
	} else {
		completer = insight.NewGeminiCompleter(insight.GeminiConfig{
			APIKey:      cfg.Insight.APIKey,
			BaseURL:     cfg.Insight.BaseURL,
			Model:       cfg.Insight.Model,
			Temperature: cfg.Insight.Temperature,
			Timeout:     cfg.Insight.Timeout,
		}, logger)
	}

	return insight.NewGenerator(completer, insight.GeneratorOptions{
		Timeout:    cfg.Insight.Timeout,
		MaxRetries: cfg.Insight.MaxRetries,
		Backoff:    cfg.Insight.Backoff,
	}, logger)
}
