package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Compile-time interface verification.
var _ CandidateRepository = (*PgCandidateRepository)(nil)

// PgCandidateRepository is a PostgreSQL implementation of CandidateRepository.
type PgCandidateRepository struct {
	db       DBTX
	pageSize int
}

// NewPgCandidateRepository creates a new PostgreSQL candidate repository.
func NewPgCandidateRepository(db DBTX, pageSize int) *PgCandidateRepository {
	return &PgCandidateRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

const candidateColumns = `
	c.id, c.name, COALESCE(c.university_id, ''), COALESCE(c.department, ''),
	COALESCE(c.advisor, ''), COALESCE(c.research_interests, '{}'),
	COALESCE(c.total_citations, 0), COALESCE(c.h_index, 0), COALESCE(c.graduation_year, 0),
	COALESCE(c.email, ''), COALESCE(c.google_scholar_url, ''), COALESCE(c.linkedin_url, '')`

// List returns candidates matching the filter.
func (r *PgCandidateRepository) List(ctx context.Context, filter CandidateFilter) ([]domain.CandidateRecord, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.GraduationYears != nil {
		conditions = append(conditions, fmt.Sprintf("c.graduation_year BETWEEN $%d AND $%d", argIndex, argIndex+1))
		args = append(args, filter.GraduationYears.Start, filter.GraduationYears.End)
		argIndex += 2
	}

	if filter.MinCitations > 0 {
		conditions = append(conditions, fmt.Sprintf("c.total_citations >= $%d", argIndex))
		args = append(args, filter.MinCitations)
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(c.name ILIKE $%[1]d OR u.name ILIKE $%[1]d OR EXISTS (SELECT 1 FROM unnest(c.research_interests) AS ri(area) WHERE ri.area ILIKE $%[1]d))",
			argIndex))
		args = append(args, "%"+escapeLike(q)+"%")
		argIndex++
	}

	if len(filter.Topics) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.research_interests && $%d::text[]", argIndex))
		args = append(args, filter.Topics)
		argIndex++
	}

	if len(filter.UniversityIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.university_id = ANY($%d)", argIndex))
		args = append(args, filter.UniversityIDs)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM candidates c
		LEFT JOIN universities u ON u.id = c.university_id
		%s
		ORDER BY c.id
		LIMIT $%d OFFSET $%d`,
		candidateColumns, whereClause(conditions), argIndex, argIndex+1)

	return fetchAllPages(ctx, r.pageSize, filter.MaxResults, func(ctx context.Context, limit, offset int) ([]domain.CandidateRecord, error) {
		rows, err := r.db.Query(ctx, query, pageArgs(args, limit, offset)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list candidates: %w", err)
		}
		defer rows.Close()

		page := make([]domain.CandidateRecord, 0, limit)
		for rows.Next() {
			c, err := scanCandidate(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan candidate: %w", err)
			}
			page = append(page, *c)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating candidates: %w", err)
		}
		return page, nil
	})
}

// GetByID retrieves a candidate by id.
func (r *PgCandidateRepository) GetByID(ctx context.Context, id string) (*domain.CandidateRecord, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "candidate ID is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM candidates c
		WHERE c.id = $1`, candidateColumns)

	c, err := scanCandidate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("candidate", id)
		}
		return nil, fmt.Errorf("failed to get candidate by ID: %w", err)
	}

	return c, nil
}

// Upsert inserts or updates candidates by id.
func (r *PgCandidateRepository) Upsert(ctx context.Context, candidates []domain.CandidateRecord) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO candidates (
			id, name, university_id, department, advisor, research_interests,
			total_citations, h_index, graduation_year, email,
			google_scholar_url, linkedin_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			university_id = EXCLUDED.university_id,
			department = EXCLUDED.department,
			advisor = EXCLUDED.advisor,
			research_interests = EXCLUDED.research_interests,
			total_citations = EXCLUDED.total_citations,
			h_index = EXCLUDED.h_index,
			graduation_year = EXCLUDED.graduation_year,
			email = EXCLUDED.email,
			google_scholar_url = EXCLUDED.google_scholar_url,
			linkedin_url = EXCLUDED.linkedin_url,
			updated_at = now()`

	batch := &pgx.Batch{}
	for i, c := range candidates {
		if c.ID == "" {
			return 0, domain.NewValidationError("id", fmt.Sprintf("candidate at index %d has no ID", i))
		}
		interests := c.ResearchInterests
		if interests == nil {
			interests = []string{}
		}
		batch.Queue(query,
			c.ID,
			c.Name,
			nullIfEmpty(c.UniversityID),
			c.Department,
			c.Advisor,
			interests,
			c.TotalCitations,
			c.HIndex,
			c.GraduationYear,
			c.Email,
			c.GoogleScholarURL,
			c.LinkedInURL,
		)
	}

	return execBatch(ctx, r.db, batch, "candidate")
}

func scanCandidate(row pgx.Row) (*domain.CandidateRecord, error) {
	var c domain.CandidateRecord
	err := row.Scan(
		&c.ID, &c.Name, &c.UniversityID, &c.Department,
		&c.Advisor, &c.ResearchInterests,
		&c.TotalCitations, &c.HIndex, &c.GraduationYear,
		&c.Email, &c.GoogleScholarURL, &c.LinkedInURL,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// escapeLike escapes the LIKE wildcards in s so that it matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// nullIfEmpty maps "" to a SQL NULL.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
