package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/akashsingh3414/medical-report-analysis/constants"
)

func newTestRepo(t *testing.T) ReportRepository {
	t.Helper()
	db, err := Open(context.Background(), "file:"+t.TempDir()+"/reports.db", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewReportRepository(db)
}

func TestCreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := newTestRepo(t)
	ctx := context.Background()

	rep, err := repo.Create(ctx, "cbc.pdf", "application/pdf", "/uploads/cbc.pdf")
	req.NoError(err)
	req.NotEqual(uuid.Nil, rep.ID)
	req.Equal(constants.StatusPending, rep.Status)

	got, err := repo.GetByID(ctx, rep.ID)
	req.NoError(err)
	req.Equal(rep.ID, got.ID)
	req.Equal("cbc.pdf", got.ReportName)
	req.Equal("application/pdf", got.FileType)
	req.Empty(got.OCRText)
	req.Nil(got.Insights)
}

func TestGetMissingReport(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestLatestPicksNewestUpload(t *testing.T) {
	req := require.New(t)
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "old.pdf", "application/pdf", "/uploads/old.pdf")
	req.NoError(err)
	time.Sleep(5 * time.Millisecond)
	newer, err := repo.Create(ctx, "new.jpg", "image/jpeg", "/uploads/new.jpg")
	req.NoError(err)

	latest, err := repo.Latest(ctx)
	req.NoError(err)
	req.Equal(newer.ID, latest.ID)
}

func TestExtractionLifecycle(t *testing.T) {
	req := require.New(t)
	repo := newTestRepo(t)
	ctx := context.Background()

	rep, err := repo.Create(ctx, "cbc.pdf", "application/pdf", "/uploads/cbc.pdf")
	req.NoError(err)

	req.NoError(repo.SaveExtraction(ctx, rep.ID, "Hemoglobin 13.5", "Hemoglobin 13.5"))
	got, err := repo.GetByID(ctx, rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusProcessed, got.Status)
	req.Equal("Hemoglobin 13.5", got.OCRText)

	req.NoError(repo.SaveInsights(ctx, rep.ID, []byte(`{"summary":{"key_findings":"ok"}}`), "ok"))
	got, err = repo.GetByID(ctx, rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusCompleted, got.Status)
	req.JSONEq(`{"summary":{"key_findings":"ok"}}`, string(got.Insights))
	req.Equal("ok", got.Summary)
}

func TestMarkFailed(t *testing.T) {
	req := require.New(t)
	repo := newTestRepo(t)
	ctx := context.Background()

	rep, err := repo.Create(ctx, "bad.pdf", "application/pdf", "/uploads/bad.pdf")
	req.NoError(err)
	req.NoError(repo.MarkFailed(ctx, rep.ID))

	got, err := repo.GetByID(ctx, rep.ID)
	req.NoError(err)
	req.Equal(constants.StatusFailed, got.Status)
}

func TestUpdateMissingReport(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.MarkFailed(context.Background(), uuid.New())
	require.Error(t, err)
}
