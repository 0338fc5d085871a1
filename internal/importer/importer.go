// Package importer loads the offline CSV dataset (universities, candidates,
// publications, academic metrics) into PostgreSQL.
//
// Rows are upserted in batches. Each batch runs in its own transaction, so an
// interrupted import can be re-run and converges on the same state.
package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/observability"
	"github.com/helixir/phd-talent-service/internal/repository"
)

// DefaultBatchSize is the number of rows upserted per transaction.
const DefaultBatchSize = 5000

// Transactor runs fn inside a database transaction. *database.DB satisfies it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Summary reports how many rows were written per table.
type Summary struct {
	Universities    int `json:"universities"`
	Candidates      int `json:"candidates"`
	Publications    int `json:"publications"`
	AcademicMetrics int `json:"academic_metrics"`
}

// Importer writes a Dataset to PostgreSQL.
type Importer struct {
	db        Transactor
	batchSize int
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// New creates an Importer. A non-positive batchSize selects DefaultBatchSize.
func New(db Transactor, batchSize int, logger zerolog.Logger, metrics *observability.Metrics) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		db:        db,
		batchSize: batchSize,
		logger:    observability.WithComponent(logger, "importer"),
		metrics:   metrics,
	}
}

// Import upserts the dataset table by table in foreign key order. It stops
// at the first failing batch; the returned Summary counts the rows committed
// before it.
func (im *Importer) Import(ctx context.Context, ds *Dataset) (Summary, error) {
	var sum Summary
	var err error

	sum.Universities, err = upsertBatches(ctx, im, "universities", ds.Universities,
		func(ctx context.Context, tx repository.DBTX, rows []domain.UniversityRecord) (int, error) {
			return repository.NewPgUniversityRepository(tx, 0).Upsert(ctx, rows)
		})
	if err != nil {
		return sum, err
	}

	sum.Candidates, err = upsertBatches(ctx, im, "candidates", ds.Candidates,
		func(ctx context.Context, tx repository.DBTX, rows []domain.CandidateRecord) (int, error) {
			return repository.NewPgCandidateRepository(tx, 0).Upsert(ctx, rows)
		})
	if err != nil {
		return sum, err
	}

	sum.Publications, err = upsertBatches(ctx, im, "publications", ds.Publications,
		func(ctx context.Context, tx repository.DBTX, rows []domain.Publication) (int, error) {
			return repository.NewPgPublicationRepository(tx, 0).Upsert(ctx, rows)
		})
	if err != nil {
		return sum, err
	}

	sum.AcademicMetrics, err = upsertBatches(ctx, im, "academic_metrics", ds.AcademicMetrics,
		func(ctx context.Context, tx repository.DBTX, rows []domain.AcademicMetricRecord) (int, error) {
			return repository.NewPgAcademicMetricsRepository(tx, 0).Upsert(ctx, rows)
		})
	if err != nil {
		return sum, err
	}

	im.logger.Info().
		Int("universities", sum.Universities).
		Int("candidates", sum.Candidates).
		Int("publications", sum.Publications).
		Int("academic_metrics", sum.AcademicMetrics).
		Msg("import complete")

	return sum, nil
}

type upsertFunc[T any] func(ctx context.Context, tx repository.DBTX, rows []T) (int, error)

func upsertBatches[T any](ctx context.Context, im *Importer, table string, rows []T, upsert upsertFunc[T]) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += im.batchSize {
		end := min(start+im.batchSize, len(rows))
		chunk := rows[start:end]

		var n int
		err := im.db.WithTransaction(ctx, func(tx pgx.Tx) error {
			var err error
			n, err = upsert(ctx, tx, chunk)
			return err
		})
		if err != nil {
			im.logger.Error().Err(err).
				Str("table", table).
				Int("offset", start).
				Msg("batch upsert failed")
			return written, fmt.Errorf("import %s rows %d-%d: %w", table, start, end-1, err)
		}

		written += n
		im.metrics.RecordImportRows(table, n)
		im.logger.Debug().
			Str("table", table).
			Int("rows", n).
			Int("total", written).
			Msg("batch upserted")
	}
	return written, nil
}
