package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/akashsingh3414/medical-report-analysis/constants"
	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// Report is one uploaded medical report and everything the pipeline has
// produced for it so far.
type Report struct {
	ID         uuid.UUID
	ReportName string
	FileType   string
	SourcePath string
	OCRText    string
	CleanData  string
	Insights   []byte // JSON blob; nil until summarize completes
	Summary    string
	Status     constants.ReportStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReportRepository is the persistence boundary the pipeline hands its
// artifacts to.
type ReportRepository interface {
	Create(ctx context.Context, name, fileType, sourcePath string) (*Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Latest(ctx context.Context) (*Report, error)
	List(ctx context.Context) ([]*Report, error)
	SaveExtraction(ctx context.Context, id uuid.UUID, ocrText, cleanData string) error
	SaveCleanData(ctx context.Context, id uuid.UUID, cleanData string) error
	SaveInsights(ctx context.Context, id uuid.UUID, insights []byte, summary string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type reportRepo struct {
	db *sql.DB
}

// NewReportRepository returns the SQLite-backed repository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepo{db: db}
}

const reportColumns = `id, report_name, file_type, source_path, ocr_text, clean_data, insights, summary, status, created_at, updated_at`

func (r *reportRepo) Create(ctx context.Context, name, fileType, sourcePath string) (*Report, error) {
	now := time.Now().UTC()
	rep := &Report{
		ID:         uuid.New(),
		ReportName: name,
		FileType:   fileType,
		SourcePath: sourcePath,
		Status:     constants.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, report_name, file_type, source_path, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID.String(), rep.ReportName, rep.FileType, rep.SourcePath, string(rep.Status), rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return nil, common.WrapError(err, "insert report")
	}
	return rep, nil
}

func (r *reportRepo) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id.String())
	return scanReport(row)
}

// Latest returns the most recently uploaded report.
func (r *reportRepo) Latest(ctx context.Context) (*Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanReport(row)
}

func (r *reportRepo) List(ctx context.Context) ([]*Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "list reports")
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *reportRepo) SaveExtraction(ctx context.Context, id uuid.UUID, ocrText, cleanData string) error {
	return r.update(ctx, id,
		`UPDATE reports SET ocr_text = ?, clean_data = ?, status = ?, updated_at = ? WHERE id = ?`,
		ocrText, cleanData, string(constants.StatusProcessed), time.Now().UTC(), id.String())
}

func (r *reportRepo) SaveCleanData(ctx context.Context, id uuid.UUID, cleanData string) error {
	return r.update(ctx, id,
		`UPDATE reports SET clean_data = ?, updated_at = ? WHERE id = ?`,
		cleanData, time.Now().UTC(), id.String())
}

func (r *reportRepo) SaveInsights(ctx context.Context, id uuid.UUID, insights []byte, summary string) error {
	return r.update(ctx, id,
		`UPDATE reports SET insights = ?, summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(insights), summary, string(constants.StatusCompleted), time.Now().UTC(), id.String())
}

func (r *reportRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		string(constants.StatusFailed), time.Now().UTC(), id.String())
}

func (r *reportRepo) update(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return common.WrapError(err, "update report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError(common.CodeNotFound, "report not found", common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		rep      Report
		idStr    string
		status   string
		insights sql.NullString
	)
	err := row.Scan(&idStr, &rep.ReportName, &rep.FileType, &rep.SourcePath,
		&rep.OCRText, &rep.CleanData, &insights, &rep.Summary, &status,
		&rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "report not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "scan report")
	}
	rep.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, common.WrapError(err, "parse report id")
	}
	if insights.Valid {
		rep.Insights = []byte(insights.String)
	}
	rep.Status = constants.ReportStatus(status)
	return &rep, nil
}
