// runpipeline runs the full extraction-to-insight pipeline on one local file
// and prints the analysis JSON. Useful for smoke-testing a report without the
// HTTP server or the database.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
	"github.com/akashsingh3414/medical-report-analysis/internal/extract"
	"github.com/akashsingh3414/medical-report-analysis/internal/insight"
	"github.com/akashsingh3414/medical-report-analysis/internal/normalize"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runpipeline <report-file>")
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read report file", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

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
	processor := extract.NewProcessor(
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

	start := time.Now()
	res, err := processor.ProcessDocument(ctx, data)
	if err != nil {
		logger.Error("extraction failed", "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}
	logger.Info("extraction OK",
		"method", res.Method,
		"pages", res.Pages,
		"scanned", res.IsScanned,
		"bytes", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)

	clean := normalize.Clean(res.Text)

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
	generator := insight.NewGenerator(completer, insight.GeneratorOptions{
		Timeout:    cfg.Insight.Timeout,
		MaxRetries: cfg.Insight.MaxRetries,
		Backoff:    cfg.Insight.Backoff,
	}, logger)

	analysis, err := generator.Generate(ctx, clean)
	if err != nil {
		logger.Error("insight generation failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		logger.Error("encode analysis", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}
