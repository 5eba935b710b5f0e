package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mager/species/report"
)

var ErrReportNotFound = errors.New("report not found")

// ReportRepository stores analysis reports in the analyses table.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ProvideReportRepository returns nil when there is no database.
func ProvideReportRepository(db *sql.DB) *ReportRepository {
	if db == nil {
		return nil
	}
	return NewReportRepository(db)
}

func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO analyses (id, student, title, species, findings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.Student, rep.Title, rep.Species, pq.Array(rep.Findings), rep.Created)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", rep.ID, err)
	}
	return nil
}

func (r *ReportRepository) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	query := `
		SELECT id, student, title, species, findings, created_at
		FROM analyses
		WHERE id = $1
	`
	var rep report.Report
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rep.ID, &rep.Student, &rep.Title, &rep.Species, pq.Array(&rep.Findings), &rep.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	if rep.Findings == nil {
		rep.Findings = []string{}
	}
	if err := report.FromFindings(&rep); err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	return &rep, nil
}

// ListByStudent returns a student's reports, newest first.
func (r *ReportRepository) ListByStudent(ctx context.Context, student string, limit int) ([]*report.Report, error) {
	query := `
		SELECT id, student, title, species, findings, created_at
		FROM analyses
		WHERE student = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, student, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports for %s: %w", student, err)
	}
	defer rows.Close()

	var out []*report.Report
	for rows.Next() {
		var rep report.Report
		if err := rows.Scan(&rep.ID, &rep.Student, &rep.Title, &rep.Species, pq.Array(&rep.Findings), &rep.Created); err != nil {
			return nil, err
		}
		if err := report.FromFindings(&rep); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
