package repository

import (
	"context"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// CandidateRepository reads and writes PhD candidates.
type CandidateRepository interface {
	// List returns candidates matching the filter ordered by id.
	// On a failed page the rows read so far are returned with the error.
	List(ctx context.Context, filter CandidateFilter) ([]domain.CandidateRecord, error)

	// GetByID retrieves a single candidate.
	// Returns domain.ErrNotFound if no matching candidate exists.
	GetByID(ctx context.Context, id string) (*domain.CandidateRecord, error)

	// Upsert inserts or updates candidates by id in one batch and returns
	// the number of rows written.
	Upsert(ctx context.Context, candidates []domain.CandidateRecord) (int, error)
}

// CandidateFilter specifies criteria for listing candidates. Zero values do
// not filter.
type CandidateFilter struct {
	// GraduationYears restricts graduation_year to an inclusive range.
	GraduationYears *domain.YearRange

	// MinCitations is the minimum total_citations.
	MinCitations int

	// Query is matched case-insensitively against the candidate name, each
	// research interest and the university name.
	Query string

	// Topics keeps candidates sharing at least one research interest.
	Topics []string

	// UniversityIDs restricts the result to candidates of these universities.
	UniversityIDs []string

	// MaxResults caps the number of candidates returned (0 means no cap).
	MaxResults int
}
