package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akashsingh3414/medical-report-analysis/constants"
	"github.com/akashsingh3414/medical-report-analysis/internal/common"
	"github.com/akashsingh3414/medical-report-analysis/internal/extract"
	"github.com/akashsingh3414/medical-report-analysis/internal/insight"
	"github.com/akashsingh3414/medical-report-analysis/internal/repository"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

type fakeProcessor struct {
	res   extract.Result
	err   error
	calls int
}

func (f *fakeProcessor) ProcessDocument(_ context.Context, _ []byte) (extract.Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeGenerator struct {
	analysis *insight.Analysis
	err      error
	gotText  string
}

func (f *fakeGenerator) Generate(_ context.Context, cleanedText string) (*insight.Analysis, error) {
	f.gotText = cleanedText
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type fakeExporter struct {
	data []byte
	err  error
}

func (f *fakeExporter) ExportReportsXLSX(_ context.Context) ([]byte, error) {
	return f.data, f.err
}

type testEnv struct {
	svc       *Service
	reports   repository.ReportRepository
	processor *fakeProcessor
	generator *fakeGenerator
	exporter  *fakeExporter
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := repository.Open(context.Background(), "file:"+filepath.Join(dir, "reports.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		reports:   repository.NewReportRepository(db),
		processor: &fakeProcessor{},
		generator: &fakeGenerator{},
		exporter:  &fakeExporter{data: []byte("xlsx-bytes")},
		uploadDir: filepath.Join(dir, "uploads"),
	}
	env.svc = New(env.reports, env.processor, env.generator, env.exporter, env.uploadDir,
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	return env
}

// seedReport creates a report row plus a stored source file.
func (e *testEnv) seedReport(t *testing.T, content []byte) *repository.Report {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.uploadDir, 0o755))
	path := filepath.Join(e.uploadDir, "seed.png")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	rep, err := e.reports.Create(context.Background(), "seed.png", "image/png", path)
	require.NoError(t, err)
	return rep
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUploadStoresFileAndCreatesReport(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	body, ctype := multipartUpload(t, "report", "cbc.png", pngHeader)
	r := httptest.NewRequest(http.MethodPost, "/api/report/upload", body)
	r.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusCreated, rec.Code)
	out := decodeBody(t, rec)
	req.Equal(true, out["success"])

	rep, err := env.reports.Latest(context.Background())
	req.NoError(err)
	req.Equal("cbc.png", rep.ReportName)
	req.Equal("image/png", rep.FileType)
	req.Equal(constants.StatusPending, rep.Status)
	_, err = os.Stat(rep.SourcePath)
	req.NoError(err)
}

func TestUploadRejectsUnsupportedContent(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	body, ctype := multipartUpload(t, "report", "notes.txt", []byte("just plain text"))
	r := httptest.NewRequest(http.MethodPost, "/api/report/upload", body)
	r.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal(false, decodeBody(t, rec)["success"])

	_, err := env.reports.Latest(context.Background())
	req.Error(err)
}

func TestUploadRequiresReportField(t *testing.T) {
	env := newTestEnv(t)

	body, ctype := multipartUpload(t, "document", "cbc.png", pngHeader)
	r := httptest.NewRequest(http.MethodPost, "/api/report/upload", body)
	r.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeExtractsAndPersists(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	env.processor.res = extract.Result{
		Text:       "Hemoglobin  13.5 g/dL",
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
	}

	r := httptest.NewRequest(http.MethodGet, "/api/report/analyze?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal(1, env.processor.calls)
	out := decodeBody(t, rec)
	req.Equal("Hemoglobin 13.5 g/d L", out["clean_data"])

	got, err := env.reports.GetByID(context.Background(), rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusProcessed, got.Status)
	req.Equal("Hemoglobin  13.5 g/dL", got.OCRText)
}

func TestAnalyzeDefaultsToLatestUpload(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.seedReport(t, pngHeader)
	env.processor.res = extract.Result{Text: "WBC Count 8.1", Method: "image-ocr"}

	r := httptest.NewRequest(http.MethodGet, "/api/report/analyze", nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal(1, env.processor.calls)
}

func TestAnalyzeDocumentErrorMarksFailed(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	env.processor.err = common.NewAppError(common.CodeMultiPage,
		"the PDF contains multiple pages; only single-page reports are supported", nil)

	r := httptest.NewRequest(http.MethodGet, "/api/report/analyze?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusBadRequest, rec.Code)
	got, err := env.reports.GetByID(context.Background(), rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusFailed, got.Status)
}

func TestAnalyzeMissingSourceFile(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	require.NoError(t, os.Remove(rep.SourcePath))

	r := httptest.NewRequest(http.MethodGet, "/api/report/analyze?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusNotFound, rec.Code)
	req.Equal(0, env.processor.calls)
}

func TestAnalyzeUnknownReport(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/report/analyze?report_id=8b9f6f1e-7c2a-4f45-9f64-5a4dca53b0aa", nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanRequiresExtractedText(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)

	r := httptest.NewRequest(http.MethodGet, "/api/report/clean?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestCleanNormalizesStoredText(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	require.NoError(t, env.reports.SaveExtraction(context.Background(), rep.ID, "lowHigh  values .", ""))

	r := httptest.NewRequest(http.MethodGet, "/api/report/clean?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("low High values.", decodeBody(t, rec)["clean_data"])

	got, err := env.reports.GetByID(context.Background(), rep.ID)
	req.NoError(err)
	req.Equal("low High values.", got.CleanData)
}

func TestSummarizePersistsInsightsAndDeletesFile(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	require.NoError(t, env.reports.SaveExtraction(context.Background(), rep.ID, "Hemoglobin 13.5", "Hemoglobin 13.5"))
	env.generator.analysis = &insight.Analysis{
		Summary: &insight.Summary{KeyFindings: "All values within range."},
	}

	r := httptest.NewRequest(http.MethodGet, "/api/report/summarize?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("Hemoglobin 13.5", env.generator.gotText)

	got, err := env.reports.GetByID(context.Background(), rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusCompleted, got.Status)
	req.Equal("All values within range.", got.Summary)
	req.Contains(string(got.Insights), "All values within range.")

	_, err = os.Stat(rep.SourcePath)
	req.True(os.IsNotExist(err))
}

func TestSummarizeFallsBackToRawText(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	require.NoError(t, env.reports.SaveExtraction(context.Background(), rep.ID, "lowHigh", ""))
	env.generator.analysis = &insight.Analysis{Summary: &insight.Summary{KeyFindings: "ok"}}

	r := httptest.NewRequest(http.MethodGet, "/api/report/summarize?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("low High", env.generator.gotText)
}

func TestSummarizeUnusableInputKeepsReport(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	require.NoError(t, env.reports.SaveExtraction(context.Background(), rep.ID, "noise", "noise"))
	env.generator.analysis = &insight.Analysis{
		Error: "Unable to analyze the report due to insufficient or invalid data.",
	}

	r := httptest.NewRequest(http.MethodGet, "/api/report/summarize?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusBadRequest, rec.Code)

	got, err := env.reports.GetByID(context.Background(), rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusProcessed, got.Status)
	req.Nil(got.Insights)

	// The source file survives an unusable verdict.
	_, err = os.Stat(rep.SourcePath)
	req.NoError(err)
}

func TestSummarizeModelFailureMarksFailed(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	rep := env.seedReport(t, pngHeader)
	require.NoError(t, env.reports.SaveExtraction(context.Background(), rep.ID, "Hemoglobin 13.5", "Hemoglobin 13.5"))
	env.generator.err = common.NewAppError(common.CodeModelCall, "the analysis service is unavailable", nil)

	r := httptest.NewRequest(http.MethodGet, "/api/report/summarize?report_id="+rep.ID.String(), nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusInternalServerError, rec.Code)
	got, err := env.reports.GetByID(context.Background(), rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusFailed, got.Status)
}

func TestExportStreamsWorkbook(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/report/export", nil)
	rec := httptest.NewRecorder()
	env.svc.Router().ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	req.Equal("xlsx-bytes", rec.Body.String())
}
