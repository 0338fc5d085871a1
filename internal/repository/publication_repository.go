package repository

import (
	"context"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// PublicationRepository reads and writes candidate publications.
type PublicationRepository interface {
	// ListByCandidates returns the publications of the given candidates as
	// raw rows. Years, when set, restricts the publication year.
	// Returns an empty slice without querying when candidateIDs is empty.
	// On a failed page the rows read so far are returned with the error.
	ListByCandidates(ctx context.Context, candidateIDs []string, years *domain.YearRange) ([]domain.RawPublication, error)

	// Upsert inserts or updates publications by (id, candidate_id) in one
	// batch and returns the number of rows written.
	Upsert(ctx context.Context, publications []domain.Publication) (int, error)
}
