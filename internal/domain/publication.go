package domain

import "strings"

// PublicationType classifies where a publication appeared.
type PublicationType string

const (
	PublicationTypeConference PublicationType = "conference"
	PublicationTypeJournal    PublicationType = "journal"
	PublicationTypeWorkshop   PublicationType = "workshop"
)

// ParsePublicationType returns the publication type named by s, or
// PublicationTypeConference when s is not one of the known types. Matching
// is case-insensitive but otherwise exact, so padded values are unknown.
func ParsePublicationType(s string) PublicationType {
	switch t := PublicationType(strings.ToLower(s)); t {
	case PublicationTypeJournal, PublicationTypeWorkshop, PublicationTypeConference:
		return t
	default:
		return PublicationTypeConference
	}
}

// Publication is the canonical publication record. Absent source data is
// represented by empty strings, empty slices and zero values, never nil.
type Publication struct {
	ID          string          `json:"id"`
	PaperID     string          `json:"paperId,omitempty"`
	CandidateID string          `json:"-"`
	Title       string          `json:"title"`
	Venue       string          `json:"venue"`
	Year        int             `json:"year"`
	Citations   int             `json:"citations"`
	Authors     []string        `json:"authors"`
	Type        PublicationType `json:"type"`
}

// HasPaperID reports whether the publication carries a non-blank external identifier.
func (p Publication) HasPaperID() bool {
	return strings.TrimSpace(p.PaperID) != ""
}

// NormalizeText normalizes free text for comparison by:
// - Trimming leading/trailing whitespace
// - Converting to lowercase
// - Collapsing Unicode whitespace runs (including NBSP and \v) into a single space
//
// Punctuation is preserved, so "A-B" and "A B" stay distinct.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
