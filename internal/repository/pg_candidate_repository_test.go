package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/phd-talent-service/internal/domain"
)

var candidateRowColumns = []string{
	"id", "name", "university_id", "department",
	"advisor", "research_interests",
	"total_citations", "h_index", "graduation_year",
	"email", "google_scholar_url", "linkedin_url",
}

func addCandidateRow(rows *pgxmock.Rows, c domain.CandidateRecord) *pgxmock.Rows {
	return rows.AddRow(
		c.ID, c.Name, c.UniversityID, c.Department,
		c.Advisor, c.ResearchInterests,
		c.TotalCitations, c.HIndex, c.GraduationYear,
		c.Email, c.GoogleScholarURL, c.LinkedInURL,
	)
}

func newTestCandidate(id string) domain.CandidateRecord {
	return domain.CandidateRecord{
		ID:                id,
		Name:              "Candidate " + id,
		UniversityID:      "u1",
		Department:        "EECS",
		Advisor:           "Prof. Advisor",
		ResearchInterests: []string{"NLP", "Speech"},
		TotalCitations:    120,
		HIndex:            7,
		GraduationYear:    2023,
		Email:             id + "@example.edu",
		GoogleScholarURL:  "https://scholar.example/" + id,
	}
}

func TestPgCandidateRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("applies every filter and caps results", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 2)
		filter := CandidateFilter{
			GraduationYears: &domain.YearRange{Start: 2015, End: 2020},
			MinCitations:    10,
			Query:           " 50% ",
			Topics:          []string{"NLP"},
			UniversityIDs:   []string{"u1"},
			MaxResults:      3,
		}

		mock.ExpectQuery(
			"FROM candidates c LEFT JOIN universities u ON u.id = c.university_id " +
				"WHERE c.graduation_year BETWEEN \\$1 AND \\$2 AND c.total_citations >= \\$3 " +
				"AND \\(c.name ILIKE \\$4 OR u.name ILIKE \\$4 OR EXISTS .*\\) " +
				"AND c.research_interests && \\$5::text\\[\\] AND c.university_id = ANY\\(\\$6\\) " +
				"ORDER BY c.id LIMIT \\$7 OFFSET \\$8").
			WithArgs(2015, 2020, 10, `%50\%%`, []string{"NLP"}, []string{"u1"}, 2, 0).
			WillReturnRows(addCandidateRow(addCandidateRow(pgxmock.NewRows(candidateRowColumns),
				newTestCandidate("c1")), newTestCandidate("c2")))
		mock.ExpectQuery("FROM candidates c").
			WithArgs(2015, 2020, 10, `%50\%%`, []string{"NLP"}, []string{"u1"}, 1, 2).
			WillReturnRows(addCandidateRow(pgxmock.NewRows(candidateRowColumns), newTestCandidate("c3")))

		result, err := repo.List(ctx, filter)
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, []string{"NLP", "Speech"}, result[0].ResearchInterests)
		assert.Equal(t, "c3", result[2].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 5)
		mock.ExpectQuery("FROM candidates c LEFT JOIN universities u ON u.id = c.university_id ORDER BY c.id LIMIT \\$1 OFFSET \\$2").
			WithArgs(5, 0).
			WillReturnRows(addCandidateRow(pgxmock.NewRows(candidateRowColumns), newTestCandidate("c1")))

		result, err := repo.List(ctx, CandidateFilter{Query: "   "})
		require.NoError(t, err)
		assert.Len(t, result, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed second page returns first page", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 1)
		mock.ExpectQuery("FROM candidates c").
			WithArgs(1, 0).
			WillReturnRows(addCandidateRow(pgxmock.NewRows(candidateRowColumns), newTestCandidate("c1")))
		mock.ExpectQuery("FROM candidates c").
			WithArgs(1, 1).
			WillReturnError(errors.New("timeout"))

		result, err := repo.List(ctx, CandidateFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list candidates")
		require.Len(t, result, 1)
		assert.Equal(t, "c1", result[0].ID)
	})
}

func TestPgCandidateRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns candidate when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 0)
		want := newTestCandidate("c1")
		mock.ExpectQuery("SELECT .* FROM candidates c WHERE c.id = \\$1").
			WithArgs("c1").
			WillReturnRows(addCandidateRow(pgxmock.NewRows(candidateRowColumns), want))

		got, err := repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, want, *got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 0)
		mock.ExpectQuery("SELECT .* FROM candidates c WHERE c.id = \\$1").
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, "nope")
		assert.Nil(t, got)
		var notFound *domain.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "candidate", notFound.Entity)
	})
}

func TestPgCandidateRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("maps empty university to null", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 0)
		c := newTestCandidate("c1")
		c.UniversityID = ""
		c.ResearchInterests = nil

		mock.ExpectBatch().ExpectExec("INSERT INTO candidates").
			WithArgs(c.ID, c.Name, nil, c.Department, c.Advisor, []string{},
				c.TotalCitations, c.HIndex, c.GraduationYear, c.Email,
				c.GoogleScholarURL, c.LinkedInURL).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		n, err := repo.Upsert(ctx, []domain.CandidateRecord{c})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports index of failing row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock, 0)
		rows := []domain.CandidateRecord{newTestCandidate("c1"), newTestCandidate("c2")}

		batch := mock.ExpectBatch()
		batch.ExpectExec("INSERT INTO candidates").
			WithArgs(anyArgs(candidateUpsertArgs)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		batch.ExpectExec("INSERT INTO candidates").
			WithArgs(anyArgs(candidateUpsertArgs)...).
			WillReturnError(errors.New("fk violation"))

		n, err := repo.Upsert(ctx, rows)
		require.Error(t, err)
		assert.Equal(t, 1, n)
		assert.Contains(t, err.Error(), "candidate at index 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// candidateUpsertArgs is the number of placeholders in the candidate upsert.
const candidateUpsertArgs = 12

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
