// Package server exposes the report pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
	"github.com/akashsingh3414/medical-report-analysis/internal/extract"
	"github.com/akashsingh3414/medical-report-analysis/internal/insight"
	"github.com/akashsingh3414/medical-report-analysis/internal/repository"
)

// DocumentProcessor runs the extraction strategy on raw document bytes.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, data []byte) (extract.Result, error)
}

// InsightGenerator turns cleaned report text into a structured analysis.
type InsightGenerator interface {
	Generate(ctx context.Context, cleanedText string) (*insight.Analysis, error)
}

// Exporter renders the report history as a workbook.
type Exporter interface {
	ExportReportsXLSX(ctx context.Context) ([]byte, error)
}

// Service wires the pipeline stages behind the HTTP boundary.
type Service struct {
	reports   repository.ReportRepository
	processor DocumentProcessor
	generator InsightGenerator
	exporter  Exporter
	uploadDir string
	logger    *slog.Logger
}

func New(reports repository.ReportRepository, processor DocumentProcessor, generator InsightGenerator, exporter Exporter, uploadDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		reports:   reports,
		processor: processor,
		generator: generator,
		exporter:  exporter,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// RegisterRoutes mounts the report endpoints on the router.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Post("/api/report/upload", s.handleUpload)
	r.Get("/api/report/analyze", s.handleAnalyze)
	r.Get("/api/report/clean", s.handleClean)
	r.Get("/api/report/summarize", s.handleSummarize)
	r.Get("/api/report/export", s.handleExport)
}

// Router returns a ready-to-serve handler with the standard middleware chain.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	s.RegisterRoutes(r)
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("http.request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Service) respondJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("http.encode_response", "error", err)
	}
}

func (s *Service) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, common.HTTPStatus(err), map[string]any{
		"success": false,
		"message": common.UserMessage(err),
	})
}
