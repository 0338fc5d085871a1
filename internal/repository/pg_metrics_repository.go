package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Compile-time interface verification.
var _ AcademicMetricsRepository = (*PgAcademicMetricsRepository)(nil)

// PgAcademicMetricsRepository is a PostgreSQL implementation of
// AcademicMetricsRepository.
type PgAcademicMetricsRepository struct {
	db       DBTX
	pageSize int
}

// NewPgAcademicMetricsRepository creates a new PostgreSQL academic metrics repository.
func NewPgAcademicMetricsRepository(db DBTX, pageSize int) *PgAcademicMetricsRepository {
	return &PgAcademicMetricsRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// List returns metric rows of the given universities within years.
func (r *PgAcademicMetricsRepository) List(ctx context.Context, universityIDs []string, years domain.YearRange) ([]domain.AcademicMetricRecord, error) {
	if len(universityIDs) == 0 {
		return []domain.AcademicMetricRecord{}, nil
	}

	query := `
		SELECT university_id, year, COALESCE(publications_count, 0), COALESCE(total_citations, 0)
		FROM academic_metrics
		WHERE university_id = ANY($1) AND year BETWEEN $2 AND $3
		ORDER BY year, university_id
		LIMIT $4 OFFSET $5`

	args := []interface{}{universityIDs, years.Start, years.End}

	return fetchAllPages(ctx, r.pageSize, 0, func(ctx context.Context, limit, offset int) ([]domain.AcademicMetricRecord, error) {
		rows, err := r.db.Query(ctx, query, pageArgs(args, limit, offset)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list academic metrics: %w", err)
		}
		defer rows.Close()

		page := make([]domain.AcademicMetricRecord, 0, limit)
		for rows.Next() {
			var m domain.AcademicMetricRecord
			if err := rows.Scan(&m.UniversityID, &m.Year, &m.PublicationsCount, &m.TotalCitations); err != nil {
				return nil, fmt.Errorf("failed to scan academic metric: %w", err)
			}
			page = append(page, m)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating academic metrics: %w", err)
		}
		return page, nil
	})
}

// Upsert inserts or updates rows by (university_id, year).
func (r *PgAcademicMetricsRepository) Upsert(ctx context.Context, metrics []domain.AcademicMetricRecord) (int, error) {
	if len(metrics) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO academic_metrics (university_id, year, publications_count, total_citations)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (university_id, year) DO UPDATE SET
			publications_count = EXCLUDED.publications_count,
			total_citations = EXCLUDED.total_citations`

	batch := &pgx.Batch{}
	for i, m := range metrics {
		if m.UniversityID == "" {
			return 0, domain.NewValidationError("university_id", fmt.Sprintf("metric at index %d has no university ID", i))
		}
		batch.Queue(query, m.UniversityID, m.Year, m.PublicationsCount, m.TotalCitations)
	}

	return execBatch(ctx, r.db, batch, "academic metric")
}
