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

// ComparisonQuery selects the universities and publication years of a
// cross-university view. Universities are matched by exact name and keep the
// given order in the output.
type ComparisonQuery struct {
	Universities []string
	Years        domain.YearRange
}

// comparisonSource selects which tables a comparison view reads.
type comparisonSource int

const (
	sourcePublications comparisonSource = iota
	sourceMetrics
)

// AcademicOutput returns the yearly publication and citation series of each
// selected university.
func (s *TalentService) AcademicOutput(ctx context.Context, q ComparisonQuery) ([]domain.AcademicOutputPoint, error) {
	in, err := s.loadComparison(ctx, q, sourceMetrics)
	if err != nil {
		return nil, err
	}
	defer s.observeComparison(ctx, "academic-output", time.Now())

	points := pipeline.AcademicOutput(in)
	if points == nil {
		points = []domain.AcademicOutputPoint{}
	}
	return points, nil
}

// ConferenceDistribution returns the top conferences by paper count across
// the selected universities.
func (s *TalentService) ConferenceDistribution(ctx context.Context, q ComparisonQuery) ([]domain.ConferenceCount, error) {
	in, err := s.loadComparison(ctx, q, sourcePublications)
	if err != nil {
		return nil, err
	}
	defer s.observeComparison(ctx, "conferences", time.Now())

	return pipeline.ConferenceDistribution(in), nil
}

// TopicHeatmap returns paper counts per university, year and research topic.
func (s *TalentService) TopicHeatmap(ctx context.Context, q ComparisonQuery) ([]domain.HeatmapCell, error) {
	in, err := s.loadComparison(ctx, q, sourcePublications)
	if err != nil {
		return nil, err
	}
	defer s.observeComparison(ctx, "topic-heatmap", time.Now())

	cells := pipeline.TopicHeatmap(in)
	if cells == nil {
		cells = []domain.HeatmapCell{}
	}
	return cells, nil
}

// EmergingTopics returns the emerging topic labels with the most papers
// across the selected universities.
func (s *TalentService) EmergingTopics(ctx context.Context, q ComparisonQuery) ([]domain.EmergingTopicCount, error) {
	in, err := s.loadComparison(ctx, q, sourcePublications)
	if err != nil {
		return nil, err
	}
	defer s.observeComparison(ctx, "emerging-topics", time.Now())

	return pipeline.EmergingTopics(in), nil
}

// loadComparison validates q and reads the rows behind a comparison view.
// Universities are resolved by name first; nothing else is read when none
// of the names is known.
func (s *TalentService) loadComparison(ctx context.Context, q ComparisonQuery, source comparisonSource) (pipeline.ComparisonInput, error) {
	names := cleanNames(q.Universities)
	if len(names) == 0 {
		return pipeline.ComparisonInput{}, domain.NewValidationError("universities", "at least one university name is required")
	}
	years := q.Years
	if years == (domain.YearRange{}) {
		years = s.cfg.DefaultComparisonYears
	}
	if err := years.Validate(); err != nil {
		return pipeline.ComparisonInput{}, err
	}

	in := pipeline.ComparisonInput{UniversityNames: names, Years: years}

	universities, err := s.repos.Universities.List(ctx, repository.UniversityFilter{Names: names})
	if err != nil {
		s.fetchFailed(ctx, "universities", err, len(universities))
	}
	if len(universities) == 0 {
		return in, nil
	}
	in.Universities = universities

	ids := make([]string, len(universities))
	for i, u := range universities {
		ids[i] = u.ID
	}

	if source == sourceMetrics {
		metrics, err := s.repos.AcademicMetrics.List(ctx, ids, years)
		if err != nil {
			s.fetchFailed(ctx, "academic_metrics", err, len(metrics))
		}
		in.Metrics = metrics
		return in, nil
	}

	candidates, err := s.repos.Candidates.List(ctx, repository.CandidateFilter{UniversityIDs: ids})
	if err != nil {
		s.fetchFailed(ctx, "candidates", err, len(candidates))
	}
	in.Candidates = candidates
	in.Publications = s.publicationsOf(ctx, candidateIDs(candidates), &years)

	return in, nil
}

func (s *TalentService) observeComparison(ctx context.Context, view string, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.RecordAggregation(view, elapsed.Seconds())

	logger := observability.WithRequestContext(ctx, s.logger)
	logger.Debug().Str("view", view).Dur("duration", elapsed).Msg("comparison aggregated")
}

// cleanNames trims names and drops blanks and duplicates, keeping order.
func cleanNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
