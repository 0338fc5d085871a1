package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/phd-talent-service/internal/domain"
)

func TestNormalize_Defaults(t *testing.T) {
	p := Normalize(domain.RawPublication{})

	assert.Equal(t, "Untitled", p.Title)
	assert.Equal(t, "", p.Venue)
	assert.Equal(t, 0, p.Year)
	assert.Equal(t, 0, p.Citations)
	assert.NotNil(t, p.Authors)
	assert.Empty(t, p.Authors)
	assert.Equal(t, domain.PublicationTypeConference, p.Type)
}

func TestNormalize_Fields(t *testing.T) {
	raw := domain.RawPublication{
		"id":           "pub-1",
		"paper_id":     "S2:123",
		"candidate_id": "cand-1",
		"title":        "Attention Is All You Need",
		"venue":        "NeurIPS",
		"year":         float64(2017),
		"citations":    "90000",
		"authors":      []any{"Ashish Vaswani", "Noam Shazeer"},
		"type":         "Conference",
	}

	p := Normalize(raw)

	assert.Equal(t, "pub-1", p.ID)
	assert.Equal(t, "S2:123", p.PaperID)
	assert.Equal(t, "cand-1", p.CandidateID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "NeurIPS", p.Venue)
	assert.Equal(t, 2017, p.Year)
	assert.Equal(t, 90000, p.Citations)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, p.Authors)
	assert.Equal(t, domain.PublicationTypeConference, p.Type)
}

func TestNormalize_Authors(t *testing.T) {
	tests := []struct {
		name     string
		raw      domain.RawPublication
		expected []string
	}{
		{
			name:     "sequence of strings",
			raw:      domain.RawPublication{"authors": []string{"A", "B"}},
			expected: []string{"A", "B"},
		},
		{
			name:     "sequence of mixed values is stringified",
			raw:      domain.RawPublication{"authors": []any{"A", float64(7), true}},
			expected: []string{"A", "7", "true"},
		},
		{
			name:     "JSON array string",
			raw:      domain.RawPublication{"authors_json": `["Ada Lovelace", "Alan Turing"]`},
			expected: []string{"Ada Lovelace", "Alan Turing"},
		},
		{
			name:     "comma separated string",
			raw:      domain.RawPublication{"authors_text": " Ada Lovelace , , Alan Turing "},
			expected: []string{"Ada Lovelace", "Alan Turing"},
		},
		{
			name:     "malformed JSON falls back to comma split",
			raw:      domain.RawPublication{"author_list": `["Ada, Alan`},
			expected: []string{`["Ada`, "Alan"},
		},
		{
			name:     "JSON scalar falls back to comma split",
			raw:      domain.RawPublication{"author_names": `"solo"`},
			expected: []string{`"solo"`},
		},
		{
			name:     "priority order prefers authors over later fields",
			raw:      domain.RawPublication{"authors": "First", "author_names": "Second"},
			expected: []string{"First"},
		},
		{
			name:     "blank field falls through to the next one",
			raw:      domain.RawPublication{"authors": "  ", "authors_json": `["Next"]`},
			expected: []string{"Next"},
		},
		{
			name:     "nil field falls through to the next one",
			raw:      domain.RawPublication{"authors": nil, "author_list": []any{"Listed"}},
			expected: []string{"Listed"},
		},
		{
			name:     "unsupported shape yields empty list",
			raw:      domain.RawPublication{"authors": map[string]any{"name": "x"}},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw).Authors)
		})
	}
}

func TestNormalize_Type(t *testing.T) {
	tests := []struct {
		name     string
		raw      domain.RawPublication
		expected domain.PublicationType
	}{
		{"journal from type", domain.RawPublication{"type": "JOURNAL"}, domain.PublicationTypeJournal},
		{"workshop from category", domain.RawPublication{"category": "workshop"}, domain.PublicationTypeWorkshop},
		{"journal from publication_type", domain.RawPublication{"publication_type": "Journal"}, domain.PublicationTypeJournal},
		{"unknown defaults to conference", domain.RawPublication{"type": "preprint"}, domain.PublicationTypeConference},
		{"non-string defaults to conference", domain.RawPublication{"type": float64(3)}, domain.PublicationTypeConference},
		{"type wins over category", domain.RawPublication{"type": "workshop", "category": "journal"}, domain.PublicationTypeWorkshop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw).Type)
		})
	}
}

func TestNormalize_Numbers(t *testing.T) {
	tests := []struct {
		name              string
		year, citations   any
		expectedYear      int
		expectedCitations int
	}{
		{"ints", 2020, 15, 2020, 15},
		{"floats", float64(2021), float64(3.9), 2021, 3},
		{"numeric strings", " 2019 ", "42", 2019, 42},
		{"json numbers", json.Number("2018"), json.Number("7"), 2018, 7},
		{"non numeric strings", "n/a", "unknown", 0, 0},
		{"booleans", true, false, 0, 0},
		{"negative citations clamp", 2020, -5, 2020, 0},
		{"NaN string", "NaN", "Inf", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(domain.RawPublication{"year": tt.year, "citations": tt.citations})
			assert.Equal(t, tt.expectedYear, p.Year)
			assert.Equal(t, tt.expectedCitations, p.Citations)
		})
	}
}

func TestNormalize_Title(t *testing.T) {
	assert.Equal(t, "Untitled", Normalize(domain.RawPublication{"title": "   "}).Title)
	assert.Equal(t, "Untitled", Normalize(domain.RawPublication{"title": nil}).Title)
	assert.Equal(t, "42", Normalize(domain.RawPublication{"title": float64(42)}).Title)
}

func TestNormalize_PaperIDAlias(t *testing.T) {
	assert.Equal(t, "abc", Normalize(domain.RawPublication{"paperId": "abc"}).PaperID)
	assert.Equal(t, "first", Normalize(domain.RawPublication{"paper_id": "first", "paperId": "second"}).PaperID)
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	pubs := NormalizeAll([]domain.RawPublication{
		{"id": "a"},
		{"id": "b"},
	})
	assert.Len(t, pubs, 2)
	assert.Equal(t, "a", pubs[0].ID)
	assert.Equal(t, "b", pubs[1].ID)
}
