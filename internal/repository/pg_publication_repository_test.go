package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/phd-talent-service/internal/domain"
)

func TestPgPublicationRepository_ListByCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes to_jsonb rows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPublicationRepository(mock, 10)
		ids := []string{"c1", "c2"}
		years := &domain.YearRange{Start: 2019, End: 2024}

		mock.ExpectQuery("SELECT to_jsonb\\(p\\) FROM publications p WHERE p.candidate_id = ANY\\(\\$1\\) AND p.year BETWEEN \\$2 AND \\$3 ORDER BY p.candidate_id, p.id LIMIT \\$4 OFFSET \\$5").
			WithArgs(ids, 2019, 2024, 10, 0).
			WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}).
				AddRow([]byte(`{"id":"p1","candidate_id":"c1","title":"A","year":2021,"citations":12,"authors":["X","Y"],"paper_id":null}`)).
				AddRow([]byte(`{"id":"p2","candidate_id":"c2","authors_text":"Q, R"}`)))

		result, err := repo.ListByCandidates(ctx, ids, years)
		require.NoError(t, err)
		require.Len(t, result, 2)

		assert.Equal(t, "p1", result[0]["id"])
		assert.Equal(t, json.Number("2021"), result[0]["year"])
		assert.Nil(t, result[0]["paper_id"])
		assert.Equal(t, []interface{}{"X", "Y"}, result[0]["authors"])
		assert.Equal(t, "Q, R", result[1]["authors_text"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no year range", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPublicationRepository(mock, 10)
		mock.ExpectQuery("WHERE p.candidate_id = ANY\\(\\$1\\) ORDER BY p.candidate_id, p.id LIMIT \\$2 OFFSET \\$3").
			WithArgs([]string{"c1"}, 10, 0).
			WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}))

		result, err := repo.ListByCandidates(ctx, []string{"c1"}, nil)
		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty candidate list skips the query", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPublicationRepository(mock, 10)
		result, err := repo.ListByCandidates(ctx, nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed json fails the page", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPublicationRepository(mock, 10)
		mock.ExpectQuery("FROM publications p").
			WithArgs([]string{"c1"}, 10, 0).
			WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}).AddRow([]byte(`{not json`)))

		_, err = repo.ListByCandidates(ctx, []string{"c1"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal publication")
	})
}

func TestPgPublicationRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("marshals authors and nulls empty paper id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPublicationRepository(mock, 0)
		pubs := []domain.Publication{
			{ID: "p1", CandidateID: "c1", Title: "A", Venue: "ICML", Year: 2022, Citations: 4,
				Authors: []string{"X"}, Type: domain.PublicationTypeConference, PaperID: "S2:1"},
			{ID: "p2", CandidateID: "c1", Title: "B", Type: domain.PublicationTypeJournal},
		}

		batch := mock.ExpectBatch()
		batch.ExpectExec("INSERT INTO publications").
			WithArgs("p1", "c1", "A", "ICML", 2022, 4, []byte(`["X"]`), "conference", "S2:1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		batch.ExpectExec("INSERT INTO publications").
			WithArgs("p2", "c1", "B", "", 0, 0, []byte(`[]`), "journal", nil).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		n, err := repo.Upsert(ctx, pubs)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects rows without candidate", func(t *testing.T) {
		repo := NewPgPublicationRepository(nil, 0)

		_, err := repo.Upsert(ctx, []domain.Publication{{ID: "p1"}})
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestDecodeRawPublication(t *testing.T) {
	pub, err := decodeRawPublication([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, pub)
	assert.Empty(t, pub)
}
