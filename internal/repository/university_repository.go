package repository

import (
	"context"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// UniversityRepository reads and writes universities.
type UniversityRepository interface {
	// List returns universities matching the filter ordered by id.
	// On a failed page the rows read so far are returned with the error.
	List(ctx context.Context, filter UniversityFilter) ([]domain.UniversityRecord, error)

	// GetByID retrieves a single university.
	// Returns domain.ErrNotFound if no matching university exists.
	GetByID(ctx context.Context, id string) (*domain.UniversityRecord, error)

	// Upsert inserts or updates universities by id in one batch and returns
	// the number of rows written.
	Upsert(ctx context.Context, universities []domain.UniversityRecord) (int, error)
}

// UniversityFilter specifies criteria for listing universities. Empty
// fields do not filter.
type UniversityFilter struct {
	// IDs restricts the result to these university ids.
	IDs []string

	// Names restricts the result to universities with exactly these names.
	Names []string
}
