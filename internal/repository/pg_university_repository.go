package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Compile-time interface verification.
var _ UniversityRepository = (*PgUniversityRepository)(nil)

// PgUniversityRepository is a PostgreSQL implementation of UniversityRepository.
type PgUniversityRepository struct {
	db       DBTX
	pageSize int
}

// NewPgUniversityRepository creates a new PostgreSQL university repository.
func NewPgUniversityRepository(db DBTX, pageSize int) *PgUniversityRepository {
	return &PgUniversityRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

const universityColumns = `id, name, COALESCE(country, ''), ranking`

// List returns universities matching the filter.
func (r *PgUniversityRepository) List(ctx context.Context, filter UniversityFilter) ([]domain.UniversityRecord, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if len(filter.IDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argIndex))
		args = append(args, filter.IDs)
		argIndex++
	}

	if len(filter.Names) > 0 {
		conditions = append(conditions, fmt.Sprintf("name = ANY($%d)", argIndex))
		args = append(args, filter.Names)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM universities
		%s
		ORDER BY id
		LIMIT $%d OFFSET $%d`,
		universityColumns, whereClause(conditions), argIndex, argIndex+1)

	return fetchAllPages(ctx, r.pageSize, 0, func(ctx context.Context, limit, offset int) ([]domain.UniversityRecord, error) {
		rows, err := r.db.Query(ctx, query, pageArgs(args, limit, offset)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list universities: %w", err)
		}
		defer rows.Close()

		page := make([]domain.UniversityRecord, 0, limit)
		for rows.Next() {
			u, err := scanUniversity(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan university: %w", err)
			}
			page = append(page, *u)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating universities: %w", err)
		}
		return page, nil
	})
}

// GetByID retrieves a university by id.
func (r *PgUniversityRepository) GetByID(ctx context.Context, id string) (*domain.UniversityRecord, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "university ID is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM universities
		WHERE id = $1`, universityColumns)

	u, err := scanUniversity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("university", id)
		}
		return nil, fmt.Errorf("failed to get university by ID: %w", err)
	}

	return u, nil
}

// Upsert inserts or updates universities by id.
func (r *PgUniversityRepository) Upsert(ctx context.Context, universities []domain.UniversityRecord) (int, error) {
	if len(universities) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO universities (id, name, country, ranking)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			ranking = EXCLUDED.ranking,
			updated_at = now()`

	batch := &pgx.Batch{}
	for i, u := range universities {
		if u.ID == "" {
			return 0, domain.NewValidationError("id", fmt.Sprintf("university at index %d has no ID", i))
		}
		batch.Queue(query, u.ID, u.Name, u.Country, u.Ranking)
	}

	return execBatch(ctx, r.db, batch, "university")
}

func scanUniversity(row pgx.Row) (*domain.UniversityRecord, error) {
	var u domain.UniversityRecord
	if err := row.Scan(&u.ID, &u.Name, &u.Country, &u.Ranking); err != nil {
		return nil, err
	}
	return &u, nil
}

// pageArgs returns a copy of args with the LIMIT and OFFSET values appended.
func pageArgs(args []interface{}, limit, offset int) []interface{} {
	out := make([]interface{}, 0, len(args)+2)
	out = append(out, args...)
	return append(out, limit, offset)
}

// execBatch sends a batch of upsert statements and reports how many of them
// succeeded before the first failure.
func execBatch(ctx context.Context, db DBTX, batch *pgx.Batch, entity string) (int, error) {
	br := db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("failed to upsert %s at index %d: %w", entity, i, err)
		}
	}

	return batch.Len(), nil
}
