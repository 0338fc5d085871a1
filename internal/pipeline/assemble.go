package pipeline

import (
	"math"
	"strings"

	"github.com/helixir/phd-talent-service/internal/domain"
)

const defaultDepartment = "Computer Science"

// SearchRows is the row set behind the browse view.
type SearchRows struct {
	Universities []domain.UniversityRecord
	Candidates   []domain.CandidateRecord
	Publications []domain.RawPublication
}

// SearchResult is the output of the browse view. Ranked is only populated in
// by-ranking view mode. DuplicatesRemoved counts publications dropped by the
// deduplicator across every assembled candidate.
type SearchResult struct {
	Universities      []domain.University
	Ranked            []domain.RankedCandidate
	TotalCandidates   int
	DuplicatesRemoved int
}

// Aggregate runs the full pipeline over rows: publications are normalized,
// deduplicated and summarized per candidate, candidates are scored and
// grouped under their university, the search query is applied, and the
// result is sorted. Candidates whose university is unknown are skipped.
// Aggregate holds no state; identical input always yields identical output.
func Aggregate(rows SearchRows, filters domain.SearchFilters) SearchResult {
	pubsByCandidate := make(map[string][]domain.Publication)
	for _, raw := range rows.Publications {
		p := Normalize(raw)
		pubsByCandidate[p.CandidateID] = append(pubsByCandidate[p.CandidateID], p)
	}

	uniRecords := make(map[string]domain.UniversityRecord, len(rows.Universities))
	for _, u := range rows.Universities {
		uniRecords[u.ID] = u
	}

	var universities []domain.University
	removed := 0
	position := make(map[string]int)
	for _, rec := range rows.Candidates {
		uniRec, ok := uniRecords[rec.UniversityID]
		if !ok {
			continue
		}
		i, seen := position[uniRec.ID]
		if !seen {
			i = len(universities)
			position[uniRec.ID] = i
			universities = append(universities, newUniversity(uniRec))
		}
		c := BuildCandidate(rec, uniRec.Name, pubsByCandidate[rec.ID])
		removed += len(pubsByCandidate[rec.ID]) - len(c.Publications)
		universities[i].Candidates = append(universities[i].Candidates, c)
	}

	universities = applySearchQuery(universities, filters.SearchQuery)

	total := 0
	for i := range universities {
		SortCandidates(universities[i].Candidates)
		total += len(universities[i].Candidates)
	}
	SortUniversities(universities)

	result := SearchResult{Universities: universities, TotalCandidates: total, DuplicatesRemoved: removed}
	if result.Universities == nil {
		result.Universities = []domain.University{}
	}
	if filters.ViewMode == domain.ViewModeByRanking {
		result.Ranked = RankCandidates(result.Universities, filters.TopPercentile)
	}
	return result
}

// BuildCandidate runs the per-candidate pipeline stages for one candidate
// record and its raw-normalized publications.
func BuildCandidate(rec domain.CandidateRecord, universityName string, pubs []domain.Publication) domain.Candidate {
	deduped := Deduplicate(pubs)
	metrics := Summarize(deduped)
	score := ScoreCandidate(rec.TotalCitations, rec.HIndex, metrics.PublicationCount, metrics.TopVenueCount)

	areas := make([]string, len(rec.ResearchInterests))
	copy(areas, rec.ResearchInterests)

	department := rec.Department
	if strings.TrimSpace(department) == "" {
		department = defaultDepartment
	}

	return domain.Candidate{
		ID:             rec.ID,
		Name:           rec.Name,
		University:     universityName,
		Department:     department,
		Advisor:        rec.Advisor,
		ResearchAreas:  areas,
		Publications:   deduped,
		TotalCitations: rec.TotalCitations,
		HIndex:         rec.HIndex,
		GraduationYear: rec.GraduationYear,
		Email:          rec.Email,
		Website:        rec.Website(),
		RadarData:      score.RadarData(),
		RankingScore:   score.RankingScore,
		Analysis:       BuildAnalysis(areas, score, metrics),
	}
}

// RankCandidates flattens candidates across universities, orders them by
// ranking score (stable with respect to university order) and, when
// topPercentile is positive, keeps the top ceil(topPercentile% of n).
func RankCandidates(universities []domain.University, topPercentile int) []domain.RankedCandidate {
	var all []domain.Candidate
	for _, u := range universities {
		all = append(all, u.Candidates...)
	}
	SortCandidates(all)

	if topPercentile > 0 && topPercentile < 100 {
		cutoff := int(math.Ceil(float64(topPercentile) / 100 * float64(len(all))))
		if cutoff < len(all) {
			all = all[:cutoff]
		}
	}

	ranked := make([]domain.RankedCandidate, len(all))
	for i, c := range all {
		ranked[i] = domain.RankedCandidate{Rank: i + 1, Candidate: c}
	}
	return ranked
}

func newUniversity(rec domain.UniversityRecord) domain.University {
	ranking := domain.UnknownRanking
	if rec.Ranking != nil {
		ranking = *rec.Ranking
	}
	return domain.University{
		ID:         rec.ID,
		Name:       rec.Name,
		Ranking:    ranking,
		Location:   rec.Country,
		Candidates: []domain.Candidate{},
	}
}

// applySearchQuery keeps candidates whose name or research areas contain the
// query, and universities whose name contains it or that still have
// candidates. An empty query keeps everything.
func applySearchQuery(universities []domain.University, query string) []domain.University {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return universities
	}

	out := universities[:0]
	for _, u := range universities {
		kept := u.Candidates[:0]
		for _, c := range u.Candidates {
			if candidateMatches(c, q) {
				kept = append(kept, c)
			}
		}
		u.Candidates = kept
		if strings.Contains(strings.ToLower(u.Name), q) || len(u.Candidates) > 0 {
			out = append(out, u)
		}
	}
	return out
}

func candidateMatches(c domain.Candidate, q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) {
		return true
	}
	for _, area := range c.ResearchAreas {
		if strings.Contains(strings.ToLower(area), q) {
			return true
		}
	}
	return false
}
