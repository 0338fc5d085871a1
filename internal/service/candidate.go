package service

import (
	"context"
	"errors"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/pipeline"
)

// GetCandidate returns the candidate with id run through the per-candidate
// pipeline stages. A candidate whose university cannot be read is returned
// with an empty university name.
func (s *TalentService) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	rec, err := s.repos.Candidates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var universityName string
	if rec.UniversityID != "" {
		uni, err := s.repos.Universities.GetByID(ctx, rec.UniversityID)
		switch {
		case err == nil:
			universityName = uni.Name
		case errors.Is(err, domain.ErrNotFound):
		default:
			s.fetchFailed(ctx, "universities", err, 0)
		}
	}

	raw := s.publicationsOf(ctx, []string{rec.ID}, nil)
	pubs := pipeline.NormalizeAll(raw)
	c := pipeline.BuildCandidate(*rec, universityName, pubs)
	s.metrics.RecordPublicationsDeduplicated(len(pubs) - len(c.Publications))

	return &c, nil
}
