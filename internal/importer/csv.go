package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/pipeline"
)

// CSV file names read from a data directory.
const (
	UniversitiesFile    = "universities.csv"
	CandidatesFile      = "candidates.csv"
	PublicationsFile    = "publications.csv"
	AcademicMetricsFile = "academic_metrics.csv"
)

// Dataset is the parsed content of a data directory.
type Dataset struct {
	Universities    []domain.UniversityRecord
	Candidates      []domain.CandidateRecord
	Publications    []domain.Publication
	AcademicMetrics []domain.AcademicMetricRecord

	// Skipped counts rows dropped because a required reference was missing.
	Skipped map[string]int
	// Missing lists the expected files that were not present.
	Missing []string
}

// IDFunc generates identifiers for rows that carry none.
type IDFunc func() string

// NewUUID returns a random UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// row is one CSV record keyed by lower-cased header name.
type row map[string]string

func (r row) get(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r[n]); v != "" {
			return v
		}
	}
	return ""
}

// LoadDir reads every known CSV file in dir. Absent files are recorded in
// Dataset.Missing rather than treated as errors.
func LoadDir(dir string, newID IDFunc) (*Dataset, error) {
	ds := &Dataset{Skipped: make(map[string]int)}

	load := func(name string, parse func(io.Reader) error) error {
		f, err := os.Open(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			ds.Missing = append(ds.Missing, name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer f.Close()

		if err := parse(f); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		return nil
	}

	err := load(UniversitiesFile, func(r io.Reader) (err error) {
		ds.Universities, err = ParseUniversities(r, newID)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = load(CandidatesFile, func(r io.Reader) (err error) {
		ds.Candidates, err = ParseCandidates(r, newID)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = load(PublicationsFile, func(r io.Reader) error {
		pubs, skipped, err := ParsePublications(r, newID)
		ds.Publications = pubs
		ds.Skipped["publications"] = skipped
		return err
	})
	if err != nil {
		return nil, err
	}

	err = load(AcademicMetricsFile, func(r io.Reader) error {
		metrics, skipped, err := ParseAcademicMetrics(r)
		ds.AcademicMetrics = metrics
		ds.Skipped["academic_metrics"] = skipped
		return err
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// ParseUniversities reads universities.csv. The country column may also be
// named location.
func ParseUniversities(r io.Reader, newID IDFunc) ([]domain.UniversityRecord, error) {
	var out []domain.UniversityRecord
	err := readRows(r, func(rec row) {
		u := domain.UniversityRecord{
			ID:      rec.get("id"),
			Name:    rec.get("name"),
			Country: rec.get("country", "location"),
		}
		if u.ID == "" {
			u.ID = newID()
		}
		if n, ok := parseInt(rec.get("ranking")); ok {
			u.Ranking = &n
		}
		out = append(out, u)
	})
	return out, err
}

// ParseCandidates reads candidates.csv. A single website column is routed to
// the LinkedIn or Google Scholar field by host.
func ParseCandidates(r io.Reader, newID IDFunc) ([]domain.CandidateRecord, error) {
	var out []domain.CandidateRecord
	err := readRows(r, func(rec row) {
		c := domain.CandidateRecord{
			ID:                rec.get("id"),
			Name:              rec.get("name"),
			UniversityID:      rec.get("university_id"),
			Department:        rec.get("department"),
			Advisor:           rec.get("advisor"),
			ResearchInterests: ParseResearchAreas(rec.get("research_areas", "research_interests")),
			TotalCitations:    intOrZero(rec.get("total_citations")),
			HIndex:            intOrZero(rec.get("h_index")),
			GraduationYear:    intOrZero(rec.get("graduation_year")),
			Email:             rec.get("email"),
			GoogleScholarURL:  rec.get("google_scholar_url"),
			LinkedInURL:       rec.get("linkedin_url"),
		}
		if c.ID == "" {
			c.ID = newID()
		}
		if site := rec.get("website"); site != "" && c.GoogleScholarURL == "" && c.LinkedInURL == "" {
			if strings.Contains(strings.ToLower(site), "linkedin.com") {
				c.LinkedInURL = site
			} else {
				c.GoogleScholarURL = site
			}
		}
		out = append(out, c)
	})
	return out, err
}

// ParsePublications reads publications.csv through the row normalizer.
// Rows without a candidate_id cannot be attached to anyone and are skipped.
func ParsePublications(r io.Reader, newID IDFunc) ([]domain.Publication, int, error) {
	var out []domain.Publication
	skipped := 0
	err := readRows(r, func(rec row) {
		if rec.get("candidate_id") == "" {
			skipped++
			return
		}
		raw := make(domain.RawPublication, len(rec))
		for k, v := range rec {
			if v = strings.TrimSpace(v); v != "" {
				raw[k] = v
			}
		}
		p := pipeline.Normalize(raw)
		if p.ID == "" {
			p.ID = newID()
		}
		out = append(out, p)
	})
	return out, skipped, err
}

// ParseAcademicMetrics reads academic_metrics.csv. Rows missing the
// university or the year are skipped.
func ParseAcademicMetrics(r io.Reader) ([]domain.AcademicMetricRecord, int, error) {
	var out []domain.AcademicMetricRecord
	skipped := 0
	err := readRows(r, func(rec row) {
		year, ok := parseInt(rec.get("year"))
		universityID := rec.get("university_id")
		if !ok || universityID == "" {
			skipped++
			return
		}
		out = append(out, domain.AcademicMetricRecord{
			UniversityID:      universityID,
			Year:              year,
			PublicationsCount: intOrZero(rec.get("publications_count")),
			TotalCitations:    intOrZero(rec.get("total_citations")),
		})
	})
	return out, skipped, err
}

// ParseResearchAreas accepts a JSON array or a list separated by ';' or ','.
func ParseResearchAreas(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return []string{}
	}

	var vals []any
	if err := json.Unmarshal([]byte(s), &vals); err == nil {
		areas := make([]string, 0, len(vals))
		for _, v := range vals {
			if v == nil {
				continue
			}
			if a := strings.TrimSpace(fmt.Sprint(v)); a != "" {
				areas = append(areas, a)
			}
		}
		return areas
	}

	parts := strings.Split(strings.ReplaceAll(s, ";", ","), ",")
	areas := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			areas = append(areas, p)
		}
	}
	return areas
}

// readRows reads a header line and calls fn for every following record.
// Short records are padded with empty fields.
func readRows(r io.Reader, fn func(row)) error {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		rec := make(row, len(header))
		for i, h := range header {
			if i < len(record) {
				rec[h] = record[i]
			}
		}
		fn(rec)
	}
}

// parseInt accepts integers and integral floats such as "12.0".
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func intOrZero(s string) int {
	n, _ := parseInt(s)
	return n
}
