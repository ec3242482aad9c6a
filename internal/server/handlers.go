package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/akashsingh3414/medical-report-analysis/constants"
	"github.com/akashsingh3414/medical-report-analysis/internal/common"
	"github.com/akashsingh3414/medical-report-analysis/internal/normalize"
	"github.com/akashsingh3414/medical-report-analysis/internal/repository"
)

// maxUploadBytes caps a single report upload. Lab reports are one page; this
// is generous.
const maxUploadBytes = 25 << 20

// handleUpload stores the raw file and registers a pending report.
// POST /api/report/upload, multipart field "report".
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("report")
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "multipart field 'report' is required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("upload.read_failed", "error", err)
		s.respondError(w, err)
		return
	}

	mtype := mimetype.Detect(data)
	if !isAllowedUpload(mtype.String()) {
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "unsupported file type; only JPEG, PNG and PDF are accepted",
		})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.respondError(w, common.WrapError(err, "prepare upload dir"))
		return
	}
	storedName := uuid.New().String() + mtype.Extension()
	storedPath := filepath.Join(s.uploadDir, storedName)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		s.respondError(w, common.WrapError(err, "store upload"))
		return
	}

	rep, err := s.reports.Create(r.Context(), header.Filename, mtype.String(), storedPath)
	if err != nil {
		_ = os.Remove(storedPath)
		s.respondError(w, err)
		return
	}

	s.logger.Info("upload.ok",
		"report_id", rep.ID.String(),
		"name", rep.ReportName,
		"mime", rep.FileType,
		"bytes", len(data),
	)
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "report uploaded successfully",
		"report": map[string]any{
			"id":          rep.ID.String(),
			"report_name": rep.ReportName,
			"file_type":   rep.FileType,
			"status":      string(rep.Status),
		},
	})
}

func isAllowedUpload(mime string) bool {
	// mimetype may append parameters such as "; charset=binary".
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return constants.IsAllowedMIME(mime)
}

// handleAnalyze runs extraction and normalization on a stored report.
// GET /api/report/analyze?report_id=<uuid>, defaults to the latest upload.
func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	data, err := os.ReadFile(rep.SourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, common.NewAppError(common.CodeNotFound,
				"the stored report file is no longer available", err))
			return
		}
		s.respondError(w, common.WrapError(err, "read stored report"))
		return
	}

	res, err := s.processor.ProcessDocument(r.Context(), data)
	if err != nil {
		s.logger.Warn("analyze.extraction_failed", "report_id", rep.ID.String(), "error", err)
		if ferr := s.reports.MarkFailed(r.Context(), rep.ID); ferr != nil {
			s.logger.Error("analyze.mark_failed", "report_id", rep.ID.String(), "error", ferr)
		}
		s.respondError(w, err)
		return
	}

	clean := normalize.Clean(res.Text)
	if err := s.reports.SaveExtraction(r.Context(), rep.ID, res.Text, clean); err != nil {
		s.respondError(w, err)
		return
	}

	s.logger.Info("analyze.ok",
		"report_id", rep.ID.String(),
		"method", res.Method,
		"scanned", res.IsScanned,
		"chars", len(res.Text),
	)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "report analyzed successfully",
		"report_id":  rep.ID.String(),
		"method":     res.Method,
		"is_scanned": res.IsScanned,
		"ocr_text":   res.Text,
		"clean_data": clean,
	})
}

// handleClean re-normalizes the stored raw text.
// GET /api/report/clean?report_id=<uuid>
func (s *Service) handleClean(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if strings.TrimSpace(rep.OCRText) == "" {
		s.respondError(w, common.NewAppError(common.CodeEmptyText,
			"no extracted text to clean; run analyze first", nil))
		return
	}

	clean := normalize.Clean(rep.OCRText)
	if err := s.reports.SaveCleanData(r.Context(), rep.ID, clean); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "report text cleaned successfully",
		"report_id":  rep.ID.String(),
		"clean_data": clean,
	})
}

// handleSummarize generates clinical insights for a processed report. On
// success the stored source file is deleted; the database row is the record
// from here on.
// GET /api/report/summarize?report_id=<uuid>
func (s *Service) handleSummarize(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	text := rep.CleanData
	if strings.TrimSpace(text) == "" {
		text = normalize.Clean(rep.OCRText)
	}

	analysis, err := s.generator.Generate(r.Context(), text)
	if err != nil {
		s.logger.Warn("summarize.generation_failed", "report_id", rep.ID.String(), "error", err)
		if ferr := s.reports.MarkFailed(r.Context(), rep.ID); ferr != nil {
			s.logger.Error("summarize.mark_failed", "report_id", rep.ID.String(), "error", ferr)
		}
		s.respondError(w, err)
		return
	}

	if analysis.Unusable() {
		// The model judged the input unusable. That is a verdict about the
		// document, not a pipeline failure, so the report stays retryable.
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": analysis.Error,
		})
		return
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		s.respondError(w, common.WrapError(err, "encode analysis"))
		return
	}
	summary := ""
	if analysis.Summary != nil {
		summary = analysis.Summary.KeyFindings
	}
	if err := s.reports.SaveInsights(r.Context(), rep.ID, payload, summary); err != nil {
		s.respondError(w, err)
		return
	}

	if rep.SourcePath != "" {
		if err := os.Remove(rep.SourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("summarize.cleanup_failed", "path", rep.SourcePath, "error", err)
		}
	}

	s.logger.Info("summarize.ok",
		"report_id", rep.ID.String(),
		"anomalies", len(analysis.AnomaliesAnalysis),
		"critical", len(analysis.CriticalFindings),
	)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "report summarized successfully",
		"report_id": rep.ID.String(),
		"insights":  analysis,
	})
}

// handleExport streams the report history as an XLSX workbook.
// GET /api/report/export
func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportReportsXLSX(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reports.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("export.write_failed", "error", err)
	}
}

// loadReport resolves the target report: explicit report_id wins, otherwise
// the most recent upload.
func (s *Service) loadReport(r *http.Request) (*repository.Report, error) {
	if raw := r.URL.Query().Get("report_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, common.NewAppError(common.CodeNotFound, "invalid report_id", err)
		}
		return s.reports.GetByID(r.Context(), id)
	}
	return s.reports.Latest(r.Context())
}
