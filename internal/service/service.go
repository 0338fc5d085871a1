// Package service runs the aggregation pipeline over rows read from the
// PhD talent store and serves the per-candidate chat.
//
// Fetch failures never fail a view: the failure is logged and counted, and the
// pipeline runs over whatever rows were read before it, which is an empty set
// when the first page fails.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/llm"
	"github.com/helixir/phd-talent-service/internal/observability"
	"github.com/helixir/phd-talent-service/internal/repository"
)

// Repositories groups the data sources the service reads from.
type Repositories struct {
	Universities    repository.UniversityRepository
	Candidates      repository.CandidateRepository
	Publications    repository.PublicationRepository
	AcademicMetrics repository.AcademicMetricsRepository
}

// Config holds fetch limits and view defaults.
type Config struct {
	// MaxCandidates caps the candidates read for one browse request.
	MaxCandidates int
	// DefaultYears bounds graduation years when a browse request gives none.
	DefaultYears domain.YearRange
	// DefaultComparisonYears bounds publication years for comparison views.
	DefaultComparisonYears domain.YearRange
}

// TalentService serves the browse, candidate, comparison and chat views.
type TalentService struct {
	repos   Repositories
	chat    llm.ChatProvider
	cfg     Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates a TalentService. chat may be nil when chat is disabled, and
// metrics may be nil (metrics recording will be skipped).
func New(repos Repositories, chat llm.ChatProvider, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *TalentService {
	return &TalentService{
		repos:   repos,
		chat:    chat,
		cfg:     cfg,
		logger:  observability.WithComponent(logger, "talent-service"),
		metrics: metrics,
	}
}

// fetchFailed logs and counts a failed read of table.
func (s *TalentService) fetchFailed(ctx context.Context, table string, err error, rowsRead int) {
	logger := observability.WithRequestContext(ctx, s.logger)
	logger.Error().
		Err(err).
		Str("table", table).
		Int("rows_read", rowsRead).
		Msg("fetch failed; continuing with rows read so far")
	s.metrics.RecordFetchError(table)
}
