// Package repository provides data access interfaces and implementations
// for the PhD talent service.
//
// # Repository Interfaces
//
//   - UniversityRepository: universities and their rankings
//   - CandidateRepository: PhD candidates with the browse filters applied in SQL
//   - PublicationRepository: publications, read as raw JSON objects
//   - AcademicMetricsRepository: yearly per-university output figures
//
// # Reads
//
// List operations page through results sequentially with LIMIT/OFFSET until
// a page comes back shorter than the page size. When a page fails the rows
// read so far are returned together with the error, so callers can decide to
// keep the partial result.
//
// Publications are selected with to_jsonb so that heterogeneous columns reach
// the pipeline normalizer untouched.
//
// # Writes
//
// Upsert operations are used by the importer only. They queue one statement
// per row on a pgx.Batch and send the batch in a single roundtrip.
//
// # Error Handling
//
// Database errors are wrapped with fmt.Errorf and %w. pgx.ErrNoRows is
// mapped to domain.NotFoundError.
//
// # Usage Pattern
//
//	db, _ := database.New(ctx, cfg, logger)
//	candidates := repository.NewPgCandidateRepository(db, cfg.Pipeline.PageSize)
//	publications := repository.NewPgPublicationRepository(db, cfg.Pipeline.PageSize)
package repository

import (
	"context"
	"strings"

	"github.com/helixir/phd-talent-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
// Repository constructors accept it so that a pgx.Tx or a pgxmock pool can be
// passed in place of the pool.
type DBTX = database.DBTX

// Page size defaults and limits.
const (
	DefaultPageSize = 1000
	maxPageSize     = 10000
)

// normalizePageSize clamps a configured page size to [1, maxPageSize],
// falling back to DefaultPageSize when it is not positive.
func normalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// pageFunc reads one page of at most limit rows starting at offset.
type pageFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// fetchAllPages reads pages one after another until a page is shorter than
// pageSize or maxRows rows have been collected (maxRows <= 0 means no cap).
// On error the rows collected before the failing page are returned with it.
func fetchAllPages[T any](ctx context.Context, pageSize, maxRows int, fetch pageFunc[T]) ([]T, error) {
	pageSize = normalizePageSize(pageSize)
	all := make([]T, 0)

	for offset := 0; ; offset += pageSize {
		limit := pageSize
		if maxRows > 0 && maxRows-len(all) < limit {
			limit = maxRows - len(all)
		}
		if limit <= 0 {
			return all, nil
		}

		if err := ctx.Err(); err != nil {
			return all, err
		}

		page, err := fetch(ctx, limit, offset)
		if err != nil {
			return all, err
		}
		all = append(all, page...)

		if len(page) < limit {
			return all, nil
		}
	}
}

// whereClause joins conditions with AND, returning "" when there are none.
func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}
