// Package domain provides the domain models shared by the PhD talent service.
package domain

import "fmt"

// UnknownRanking is the sentinel ranking given to universities without one.
// It sorts after every real ranking.
const UnknownRanking = 999

// RadarFullMark is the maximum value of every radar chart dimension.
const RadarFullMark = 100

// Radar chart dimensions in their fixed output order.
const (
	DimensionOverallCitations  = "Overall Citations"
	DimensionPublicationVolume = "Publication Volume"
	DimensionTopVenuePresence  = "Top Venue Presence"
	DimensionFirstAuthorImpact = "First Author Impact"
	DimensionHotTopicCitations = "Hot Topic Citations"
)

// ViewMode selects how search results are presented.
type ViewMode string

const (
	ViewModeByUniversity ViewMode = "by-university"
	ViewModeByRanking    ViewMode = "by-ranking"
)

// IsValid reports whether the view mode is one of the known modes.
func (m ViewMode) IsValid() bool {
	return m == ViewModeByUniversity || m == ViewModeByRanking
}

// YearRange is an inclusive range of years.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// Len returns the number of years in the range, or 0 if it is inverted.
func (r YearRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Validate checks that the range is ordered.
func (r YearRange) Validate() error {
	if r.End < r.Start {
		return NewValidationError("year_range", fmt.Sprintf("end year %d is before start year %d", r.End, r.Start))
	}
	return nil
}

// SearchFilters are the user-controlled filters of the browse view.
type SearchFilters struct {
	SearchQuery    string
	YearRange      YearRange
	MinCitations   int
	SelectedTopics []string
	ViewMode       ViewMode
	TopPercentile  int
}

// RawPublication is a publication row as read from the data source. Field
// names and value shapes vary between sources; the pipeline normalizer is the
// only consumer that interprets it.
type RawPublication map[string]any

// UniversityRecord is a university row from the data source.
type UniversityRecord struct {
	ID      string
	Name    string
	Country string
	Ranking *int
}

// CandidateRecord is a candidate row from the data source.
type CandidateRecord struct {
	ID                string
	Name              string
	UniversityID      string
	Department        string
	Advisor           string
	ResearchInterests []string
	TotalCitations    int
	HIndex            int
	GraduationYear    int
	Email             string
	GoogleScholarURL  string
	LinkedInURL       string
}

// Website returns the candidate's preferred public profile URL.
func (c CandidateRecord) Website() string {
	if c.GoogleScholarURL != "" {
		return c.GoogleScholarURL
	}
	return c.LinkedInURL
}

// AcademicMetricRecord is a yearly per-university output row from the data source.
type AcademicMetricRecord struct {
	UniversityID      string
	Year              int
	PublicationsCount int
	TotalCitations    int
}

// RadarEntry is one dimension of a candidate's radar chart.
type RadarEntry struct {
	Subject  string `json:"subject"`
	Value    int    `json:"value"`
	FullMark int    `json:"fullMark"`
}

// ScoreComponent explains a single part of the ranking score.
type ScoreComponent struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// ScoreExplanation breaks the ranking score into its components.
type ScoreExplanation struct {
	TotalScore int                       `json:"totalScore"`
	Breakdown  map[string]ScoreComponent `json:"breakdown"`
}

// CandidateAnalysis is the narrative summary attached to each candidate.
type CandidateAnalysis struct {
	Bio               string           `json:"bio"`
	ResearchSummary   string           `json:"researchSummary"`
	ScoreExplanation  ScoreExplanation `json:"scoreExplanation"`
	KeyStrengths      []string         `json:"keyStrengths"`
	PotentialConcerns []string         `json:"potentialConcerns"`
}

// Candidate is a PhD graduate with publications and derived metrics.
type Candidate struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	University     string             `json:"university"`
	Department     string             `json:"department"`
	Advisor        string             `json:"advisor"`
	ResearchAreas  []string           `json:"researchAreas"`
	Publications   []Publication      `json:"publications"`
	TotalCitations int                `json:"totalCitations"`
	HIndex         int                `json:"hIndex"`
	GraduationYear int                `json:"graduationYear"`
	Email          string             `json:"email"`
	Website        string             `json:"website,omitempty"`
	RadarData      []RadarEntry       `json:"radarData"`
	RankingScore   int                `json:"rankingScore"`
	Analysis       *CandidateAnalysis `json:"analysis,omitempty"`
}

// University groups candidates under an institution.
type University struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Ranking    int         `json:"ranking"`
	Location   string      `json:"location"`
	Candidates []Candidate `json:"candidates"`
}

// RankedCandidate is an entry of the flat by-ranking view.
type RankedCandidate struct {
	Rank      int       `json:"rank"`
	Candidate Candidate `json:"candidate"`
}

// AcademicOutputPoint is one point of the per-university output time series.
type AcademicOutputPoint struct {
	University        string `json:"university_name"`
	Year              int    `json:"year"`
	PublicationsCount int    `json:"publications_count"`
	TotalCitations    int    `json:"total_citations"`
}

// ConferenceCount is one conference row of the distribution table.
type ConferenceCount struct {
	Conference   string         `json:"conference"`
	Universities map[string]int `json:"universities"`
	Total        int            `json:"total"`
}

// HeatmapCell is one (university, year, topic) cell of the topic heatmap.
type HeatmapCell struct {
	University string `json:"university"`
	Year       int    `json:"year"`
	Topic      string `json:"topic"`
	Papers     int    `json:"papers"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Z          int    `json:"z"`
}

// EmergingTopicCount is one label row of the emerging topics table.
type EmergingTopicCount struct {
	Topic        string         `json:"topic"`
	Universities map[string]int `json:"universities"`
	Total        int            `json:"total"`
}
