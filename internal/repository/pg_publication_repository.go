package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Compile-time interface verification.
var _ PublicationRepository = (*PgPublicationRepository)(nil)

// PgPublicationRepository is a PostgreSQL implementation of PublicationRepository.
type PgPublicationRepository struct {
	db       DBTX
	pageSize int
}

// NewPgPublicationRepository creates a new PostgreSQL publication repository.
func NewPgPublicationRepository(db DBTX, pageSize int) *PgPublicationRepository {
	return &PgPublicationRepository{db: db, pageSize: normalizePageSize(pageSize)}
}

// ListByCandidates returns raw publication rows for the given candidates.
func (r *PgPublicationRepository) ListByCandidates(ctx context.Context, candidateIDs []string, years *domain.YearRange) ([]domain.RawPublication, error) {
	if len(candidateIDs) == 0 {
		return []domain.RawPublication{}, nil
	}

	conditions := []string{"p.candidate_id = ANY($1)"}
	args := []interface{}{candidateIDs}
	argIndex := 2

	if years != nil {
		conditions = append(conditions, fmt.Sprintf("p.year BETWEEN $%d AND $%d", argIndex, argIndex+1))
		args = append(args, years.Start, years.End)
		argIndex += 2
	}

	query := fmt.Sprintf(`
		SELECT to_jsonb(p)
		FROM publications p
		%s
		ORDER BY p.candidate_id, p.id
		LIMIT $%d OFFSET $%d`,
		whereClause(conditions), argIndex, argIndex+1)

	return fetchAllPages(ctx, r.pageSize, 0, func(ctx context.Context, limit, offset int) ([]domain.RawPublication, error) {
		rows, err := r.db.Query(ctx, query, pageArgs(args, limit, offset)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list publications: %w", err)
		}
		defer rows.Close()

		page := make([]domain.RawPublication, 0, limit)
		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				return nil, fmt.Errorf("failed to scan publication: %w", err)
			}
			pub, err := decodeRawPublication(raw)
			if err != nil {
				return nil, err
			}
			page = append(page, pub)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating publications: %w", err)
		}
		return page, nil
	})
}

// Upsert inserts or updates publications by (id, candidate_id).
func (r *PgPublicationRepository) Upsert(ctx context.Context, publications []domain.Publication) (int, error) {
	if len(publications) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO publications (
			id, candidate_id, title, venue, year, citations, authors, type, paper_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (id, candidate_id) DO UPDATE SET
			title = EXCLUDED.title,
			venue = EXCLUDED.venue,
			year = EXCLUDED.year,
			citations = EXCLUDED.citations,
			authors = EXCLUDED.authors,
			type = EXCLUDED.type,
			paper_id = EXCLUDED.paper_id`

	batch := &pgx.Batch{}
	for i, p := range publications {
		if p.ID == "" || p.CandidateID == "" {
			return 0, domain.NewValidationError("id", fmt.Sprintf("publication at index %d has no ID or candidate ID", i))
		}
		authors := p.Authors
		if authors == nil {
			authors = []string{}
		}
		authorsJSON, err := json.Marshal(authors)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal authors: %w", err)
		}
		batch.Queue(query,
			p.ID,
			p.CandidateID,
			p.Title,
			p.Venue,
			p.Year,
			p.Citations,
			authorsJSON,
			string(p.Type),
			nullIfEmpty(p.PaperID),
		)
	}

	return execBatch(ctx, r.db, batch, "publication")
}

// decodeRawPublication decodes a to_jsonb row keeping numbers as json.Number.
func decodeRawPublication(raw []byte) (domain.RawPublication, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var pub domain.RawPublication
	if err := dec.Decode(&pub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal publication: %w", err)
	}
	if pub == nil {
		pub = domain.RawPublication{}
	}
	return pub, nil
}
