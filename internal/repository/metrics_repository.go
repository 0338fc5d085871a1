package repository

import (
	"context"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// AcademicMetricsRepository reads and writes yearly per-university output.
type AcademicMetricsRepository interface {
	// List returns metric rows of the given universities within years,
	// ordered by year then university id.
	// Returns an empty slice without querying when universityIDs is empty.
	List(ctx context.Context, universityIDs []string, years domain.YearRange) ([]domain.AcademicMetricRecord, error)

	// Upsert inserts or updates rows by (university_id, year) in one batch
	// and returns the number of rows written.
	Upsert(ctx context.Context, metrics []domain.AcademicMetricRecord) (int, error)
}
