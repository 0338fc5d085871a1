// Package snapshot writes the CSV dataset into a self-contained SQLite file
// for offline inspection. Candidates are stored together with the output of
// the scoring pipeline (ranking score, radar data, analysis) so the file can
// be browsed without the service.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/importer"
	"github.com/helixir/phd-talent-service/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS universities (
	id              TEXT PRIMARY KEY,
	name            TEXT,
	candidate_count INTEGER,
	ranking         INTEGER,
	location        TEXT,
	created_at      TEXT,
	updated_at      TEXT
);

CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT PRIMARY KEY,
	name              TEXT,
	name_display      TEXT,
	university_id     TEXT,
	department        TEXT,
	advisor           TEXT,
	research_areas    TEXT NOT NULL DEFAULT '[]',
	total_citations   INTEGER,
	h_index           INTEGER,
	graduation_year   INTEGER,
	email             TEXT,
	website           TEXT,
	ranking_score     INTEGER,
	publication_count INTEGER,
	FOREIGN KEY (university_id) REFERENCES universities (id)
);

CREATE TABLE IF NOT EXISTS publications (
	id           TEXT,
	title        TEXT,
	authors      TEXT NOT NULL DEFAULT '[]',
	venue        TEXT,
	year         INTEGER,
	citations    INTEGER,
	type         TEXT,
	candidate_id TEXT,
	PRIMARY KEY (id, candidate_id),
	FOREIGN KEY (candidate_id) REFERENCES candidates (id)
);

CREATE TABLE IF NOT EXISTS radar_data (
	id           TEXT PRIMARY KEY,
	subject      TEXT,
	value        INTEGER,
	full_mark    INTEGER,
	source       TEXT,
	candidate_id TEXT,
	FOREIGN KEY (candidate_id) REFERENCES candidates (id)
);

CREATE TABLE IF NOT EXISTS candidate_analysis (
	id                 TEXT PRIMARY KEY,
	bio                TEXT,
	research_summary   TEXT,
	score_explanation  TEXT,
	key_strengths      TEXT,
	potential_concerns TEXT,
	candidate_id       TEXT,
	FOREIGN KEY (candidate_id) REFERENCES candidates (id)
);

CREATE TABLE IF NOT EXISTS academic_metrics (
	university_id      TEXT,
	year               INTEGER,
	publications_count INTEGER,
	total_citations    INTEGER,
	PRIMARY KEY (university_id, year)
);
`

const radarSource = "Computed from publication metrics"

// Counts reports the number of rows per table.
type Counts struct {
	Universities      int `db:"universities" json:"universities"`
	Candidates        int `db:"candidates" json:"candidates"`
	Publications      int `db:"publications" json:"publications"`
	RadarData         int `db:"radar_data" json:"radar_data"`
	CandidateAnalysis int `db:"candidate_analysis" json:"candidate_analysis"`
	AcademicMetrics   int `db:"academic_metrics" json:"academic_metrics"`
}

// Writer owns one SQLite snapshot file.
type Writer struct {
	db     *sqlx.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Create replaces any existing file at path with an empty snapshot.
func Create(path string, logger zerolog.Logger) (*Writer, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove old snapshot: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Writer{
		db:     db,
		logger: logger.With().Str("component", "snapshot").Logger(),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database.
func (w *Writer) Close() error {
	return w.db.Close()
}

// Write stores ds in a single transaction.
func (w *Writer) Write(ctx context.Context, ds *importer.Dataset) error {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	candidates := buildCandidates(ds)

	if err := w.writeUniversities(ctx, tx, ds.Universities, ds.Candidates); err != nil {
		return err
	}
	if err := writeCandidates(ctx, tx, ds.Candidates, candidates); err != nil {
		return err
	}
	if err := writePublications(ctx, tx, ds.Publications); err != nil {
		return err
	}
	if err := writeMetrics(ctx, tx, ds.AcademicMetrics); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	w.logger.Info().
		Int("universities", len(ds.Universities)).
		Int("candidates", len(ds.Candidates)).
		Int("publications", len(ds.Publications)).
		Msg("snapshot written")
	return nil
}

// Counts returns the number of rows in each table.
func (w *Writer) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := w.db.GetContext(ctx, &c, `
		SELECT
			(SELECT COUNT(*) FROM universities)       AS universities,
			(SELECT COUNT(*) FROM candidates)         AS candidates,
			(SELECT COUNT(*) FROM publications)       AS publications,
			(SELECT COUNT(*) FROM radar_data)         AS radar_data,
			(SELECT COUNT(*) FROM candidate_analysis) AS candidate_analysis,
			(SELECT COUNT(*) FROM academic_metrics)   AS academic_metrics`)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// buildCandidates runs the per-candidate pipeline, keyed by candidate ID.
func buildCandidates(ds *importer.Dataset) map[string]domain.Candidate {
	names := make(map[string]string, len(ds.Universities))
	for _, u := range ds.Universities {
		names[u.ID] = u.Name
	}

	pubs := make(map[string][]domain.Publication)
	for _, p := range ds.Publications {
		pubs[p.CandidateID] = append(pubs[p.CandidateID], p)
	}

	out := make(map[string]domain.Candidate, len(ds.Candidates))
	for _, rec := range ds.Candidates {
		out[rec.ID] = pipeline.BuildCandidate(rec, names[rec.UniversityID], pubs[rec.ID])
	}
	return out
}

type universityRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	CandidateCount int    `db:"candidate_count"`
	Ranking        *int   `db:"ranking"`
	Location       string `db:"location"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (w *Writer) writeUniversities(ctx context.Context, tx *sqlx.Tx, unis []domain.UniversityRecord, candidates []domain.CandidateRecord) error {
	counts := make(map[string]int)
	for _, c := range candidates {
		counts[c.UniversityID]++
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO universities (id, name, candidate_count, ranking, location, created_at, updated_at)
		VALUES (:id, :name, :candidate_count, :ranking, :location, :created_at, :updated_at)`)
	if err != nil {
		return fmt.Errorf("prepare universities: %w", err)
	}
	defer stmt.Close()

	ts := w.now().UTC().Format(time.RFC3339)
	for _, u := range unis {
		row := universityRow{
			ID:             u.ID,
			Name:           u.Name,
			CandidateCount: counts[u.ID],
			Ranking:        u.Ranking,
			Location:       u.Country,
			CreatedAt:      ts,
			UpdatedAt:      ts,
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("insert university %s: %w", u.ID, err)
		}
	}
	return nil
}

type candidateRow struct {
	ID               string `db:"id"`
	Name             string `db:"name"`
	NameDisplay      string `db:"name_display"`
	UniversityID     string `db:"university_id"`
	Department       string `db:"department"`
	Advisor          string `db:"advisor"`
	ResearchAreas    string `db:"research_areas"`
	TotalCitations   int    `db:"total_citations"`
	HIndex           int    `db:"h_index"`
	GraduationYear   *int   `db:"graduation_year"`
	Email            string `db:"email"`
	Website          string `db:"website"`
	RankingScore     int    `db:"ranking_score"`
	PublicationCount int    `db:"publication_count"`
}

type radarRow struct {
	ID          string `db:"id"`
	Subject     string `db:"subject"`
	Value       int    `db:"value"`
	FullMark    int    `db:"full_mark"`
	Source      string `db:"source"`
	CandidateID string `db:"candidate_id"`
}

type analysisRow struct {
	ID                string `db:"id"`
	Bio               string `db:"bio"`
	ResearchSummary   string `db:"research_summary"`
	ScoreExplanation  string `db:"score_explanation"`
	KeyStrengths      string `db:"key_strengths"`
	PotentialConcerns string `db:"potential_concerns"`
	CandidateID       string `db:"candidate_id"`
}

func writeCandidates(ctx context.Context, tx *sqlx.Tx, recs []domain.CandidateRecord, candidates map[string]domain.Candidate) error {
	candStmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO candidates (
			id, name, name_display, university_id, department, advisor, research_areas,
			total_citations, h_index, graduation_year, email, website, ranking_score, publication_count
		) VALUES (
			:id, :name, :name_display, :university_id, :department, :advisor, :research_areas,
			:total_citations, :h_index, :graduation_year, :email, :website, :ranking_score, :publication_count
		)`)
	if err != nil {
		return fmt.Errorf("prepare candidates: %w", err)
	}
	defer candStmt.Close()

	radarStmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO radar_data (id, subject, value, full_mark, source, candidate_id)
		VALUES (:id, :subject, :value, :full_mark, :source, :candidate_id)`)
	if err != nil {
		return fmt.Errorf("prepare radar data: %w", err)
	}
	defer radarStmt.Close()

	analysisStmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO candidate_analysis (
			id, bio, research_summary, score_explanation, key_strengths, potential_concerns, candidate_id
		) VALUES (
			:id, :bio, :research_summary, :score_explanation, :key_strengths, :potential_concerns, :candidate_id
		)`)
	if err != nil {
		return fmt.Errorf("prepare candidate analysis: %w", err)
	}
	defer analysisStmt.Close()

	for _, rec := range recs {
		c := candidates[rec.ID]

		row := candidateRow{
			ID:               rec.ID,
			Name:             rec.Name,
			NameDisplay:      displayName(rec.Name),
			UniversityID:     rec.UniversityID,
			Department:       c.Department,
			Advisor:          rec.Advisor,
			ResearchAreas:    mustJSON(c.ResearchAreas),
			TotalCitations:   rec.TotalCitations,
			HIndex:           rec.HIndex,
			GraduationYear:   nonZero(rec.GraduationYear),
			Email:            rec.Email,
			Website:          rec.Website(),
			RankingScore:     c.RankingScore,
			PublicationCount: len(c.Publications),
		}
		if _, err := candStmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("insert candidate %s: %w", rec.ID, err)
		}

		for i, r := range c.RadarData {
			radar := radarRow{
				ID:          fmt.Sprintf("%s-radar-%d", rec.ID, i),
				Subject:     r.Subject,
				Value:       r.Value,
				FullMark:    r.FullMark,
				Source:      radarSource,
				CandidateID: rec.ID,
			}
			if _, err := radarStmt.ExecContext(ctx, radar); err != nil {
				return fmt.Errorf("insert radar data for %s: %w", rec.ID, err)
			}
		}

		if a := c.Analysis; a != nil {
			analysis := analysisRow{
				ID:                rec.ID,
				Bio:               a.Bio,
				ResearchSummary:   a.ResearchSummary,
				ScoreExplanation:  mustJSON(a.ScoreExplanation),
				KeyStrengths:      mustJSON(a.KeyStrengths),
				PotentialConcerns: mustJSON(a.PotentialConcerns),
				CandidateID:       rec.ID,
			}
			if _, err := analysisStmt.ExecContext(ctx, analysis); err != nil {
				return fmt.Errorf("insert analysis for %s: %w", rec.ID, err)
			}
		}
	}
	return nil
}

type publicationRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Authors     string `db:"authors"`
	Venue       string `db:"venue"`
	Year        *int   `db:"year"`
	Citations   int    `db:"citations"`
	Type        string `db:"type"`
	CandidateID string `db:"candidate_id"`
}

// writePublications keeps the first row of each (id, candidate_id) pair.
func writePublications(ctx context.Context, tx *sqlx.Tx, pubs []domain.Publication) error {
	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR IGNORE INTO publications (id, title, authors, venue, year, citations, type, candidate_id)
		VALUES (:id, :title, :authors, :venue, :year, :citations, :type, :candidate_id)`)
	if err != nil {
		return fmt.Errorf("prepare publications: %w", err)
	}
	defer stmt.Close()

	for _, p := range pubs {
		row := publicationRow{
			ID:          p.ID,
			Title:       p.Title,
			Authors:     mustJSON(p.Authors),
			Venue:       p.Venue,
			Year:        nonZero(p.Year),
			Citations:   p.Citations,
			Type:        string(p.Type),
			CandidateID: p.CandidateID,
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("insert publication %s: %w", p.ID, err)
		}
	}
	return nil
}

type metricRow struct {
	UniversityID      string `db:"university_id"`
	Year              int    `db:"year"`
	PublicationsCount int    `db:"publications_count"`
	TotalCitations    int    `db:"total_citations"`
}

func writeMetrics(ctx context.Context, tx *sqlx.Tx, metrics []domain.AcademicMetricRecord) error {
	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO academic_metrics (university_id, year, publications_count, total_citations)
		VALUES (:university_id, :year, :publications_count, :total_citations)`)
	if err != nil {
		return fmt.Errorf("prepare academic metrics: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		row := metricRow{
			UniversityID:      m.UniversityID,
			Year:              m.Year,
			PublicationsCount: m.PublicationsCount,
			TotalCitations:    m.TotalCitations,
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("insert academic metric %s/%d: %w", m.UniversityID, m.Year, err)
		}
	}
	return nil
}

// displayName collapses whitespace runs in a candidate name.
func displayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func nonZero(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// mustJSON encodes values that cannot fail to marshal (strings, slices and
// plain structs).
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
