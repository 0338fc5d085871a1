package service

import (
	"context"
	"strings"
	"time"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/observability"
	"github.com/helixir/phd-talent-service/internal/pipeline"
	"github.com/helixir/phd-talent-service/internal/repository"
)

// Search builds the browse view for filters. Candidates are read with the
// graduation-year, citation, name and topic filters applied in the query;
// the pipeline then groups, scores and sorts them.
func (s *TalentService) Search(ctx context.Context, filters domain.SearchFilters) (pipeline.SearchResult, error) {
	if filters.YearRange == (domain.YearRange{}) {
		filters.YearRange = s.cfg.DefaultYears
	}
	if err := filters.YearRange.Validate(); err != nil {
		return pipeline.SearchResult{}, err
	}
	if filters.ViewMode == "" {
		filters.ViewMode = domain.ViewModeByUniversity
	}
	if !filters.ViewMode.IsValid() {
		return pipeline.SearchResult{}, domain.NewValidationError("view_mode", "must be by-university or by-ranking")
	}

	start := time.Now()
	years := filters.YearRange

	candidates, err := s.repos.Candidates.List(ctx, repository.CandidateFilter{
		GraduationYears: &years,
		MinCitations:    filters.MinCitations,
		Query:           strings.TrimSpace(filters.SearchQuery),
		Topics:          filters.SelectedTopics,
		MaxResults:      s.cfg.MaxCandidates,
	})
	if err != nil {
		s.fetchFailed(ctx, "candidates", err, len(candidates))
	}

	rows := pipeline.SearchRows{Candidates: candidates}
	if len(candidates) > 0 {
		rows.Universities = s.universitiesOf(ctx, candidates)
		rows.Publications = s.publicationsOf(ctx, candidateIDs(candidates), nil)
	}

	result := pipeline.Aggregate(rows, filters)

	elapsed := time.Since(start)
	s.metrics.RecordAggregation("search", elapsed.Seconds())
	s.metrics.RecordPublicationsDeduplicated(result.DuplicatesRemoved)

	logger := observability.WithRequestContext(ctx, s.logger)
	logger.Debug().
		Int("candidates_read", len(candidates)).
		Int("publications_read", len(rows.Publications)).
		Int("universities", len(result.Universities)).
		Int("total_candidates", result.TotalCandidates).
		Int("duplicates_removed", result.DuplicatesRemoved).
		Str("view_mode", string(filters.ViewMode)).
		Dur("duration", elapsed).
		Msg("search aggregated")

	return result, nil
}

func (s *TalentService) universitiesOf(ctx context.Context, candidates []domain.CandidateRecord) []domain.UniversityRecord {
	seen := make(map[string]struct{})
	var ids []string
	for _, c := range candidates {
		if c.UniversityID == "" {
			continue
		}
		if _, ok := seen[c.UniversityID]; ok {
			continue
		}
		seen[c.UniversityID] = struct{}{}
		ids = append(ids, c.UniversityID)
	}
	if len(ids) == 0 {
		return nil
	}

	universities, err := s.repos.Universities.List(ctx, repository.UniversityFilter{IDs: ids})
	if err != nil {
		s.fetchFailed(ctx, "universities", err, len(universities))
	}
	return universities
}

func (s *TalentService) publicationsOf(ctx context.Context, ids []string, years *domain.YearRange) []domain.RawPublication {
	if len(ids) == 0 {
		return nil
	}
	pubs, err := s.repos.Publications.ListByCandidates(ctx, ids, years)
	if err != nil {
		s.fetchFailed(ctx, "publications", err, len(pubs))
	}
	return pubs
}

func candidateIDs(candidates []domain.CandidateRecord) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
