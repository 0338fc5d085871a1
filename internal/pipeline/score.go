package pipeline

import (
	"math"
	"sort"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Dimension weights of the composite ranking score.
const (
	weightOverallCitations  = 0.50
	weightPublicationVolume = 0.10
	weightTopVenuePresence  = 0.10
	weightFirstAuthorImpact = 0.05
	weightHotTopicCitations = 0.25
)

// Any candidate with at least floorCitations total citations scores at least
// floorScore. The floor is applied after rounding the weighted sum.
const (
	floorCitations = 50
	floorScore     = 60
)

// Score is the scorer output for one candidate.
type Score struct {
	OverallCitations  int
	PublicationVolume int
	TopVenuePresence  int
	FirstAuthorImpact int
	HotTopicCitations int
	RankingScore      int
}

// ScoreCandidate computes the five radar dimensions and the composite ranking
// score for a candidate.
func ScoreCandidate(totalCitations, hIndex, publicationCount, topVenueCount int) Score {
	s := Score{
		OverallCitations:  clampScore(round(float64(totalCitations) * 1.6)),
		PublicationVolume: clampScore(publicationCount * 12),
		TopVenuePresence:  clampScore(topVenueCount * 25),
		FirstAuthorImpact: clampScore(round(float64(hIndex) * 5)),
		HotTopicCitations: clampScore(round(float64(totalCitations) * 0.8)),
	}

	raw := float64(s.OverallCitations)*weightOverallCitations +
		float64(s.PublicationVolume)*weightPublicationVolume +
		float64(s.TopVenuePresence)*weightTopVenuePresence +
		float64(s.FirstAuthorImpact)*weightFirstAuthorImpact +
		float64(s.HotTopicCitations)*weightHotTopicCitations

	s.RankingScore = clampScore(round(raw))
	if totalCitations >= floorCitations && s.RankingScore < floorScore {
		s.RankingScore = floorScore
	}
	return s
}

// RadarData returns the radar chart entries in their fixed order.
func (s Score) RadarData() []domain.RadarEntry {
	return []domain.RadarEntry{
		{Subject: domain.DimensionOverallCitations, Value: s.OverallCitations, FullMark: domain.RadarFullMark},
		{Subject: domain.DimensionPublicationVolume, Value: s.PublicationVolume, FullMark: domain.RadarFullMark},
		{Subject: domain.DimensionTopVenuePresence, Value: s.TopVenuePresence, FullMark: domain.RadarFullMark},
		{Subject: domain.DimensionFirstAuthorImpact, Value: s.FirstAuthorImpact, FullMark: domain.RadarFullMark},
		{Subject: domain.DimensionHotTopicCitations, Value: s.HotTopicCitations, FullMark: domain.RadarFullMark},
	}
}

// SortCandidates stable-sorts candidates by ranking score descending.
func SortCandidates(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RankingScore > candidates[j].RankingScore
	})
}

// SortUniversities stable-sorts universities by ranking ascending. Unknown
// rankings carry domain.UnknownRanking and therefore sort last.
func SortUniversities(universities []domain.University) {
	sort.SliceStable(universities, func(i, j int) bool {
		return universities[i].Ranking < universities[j].Ranking
	})
}

// round rounds half up, matching the rounding used for displayed scores.
func round(f float64) int {
	return int(math.Floor(f + 0.5))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > domain.RadarFullMark {
		return domain.RadarFullMark
	}
	return v
}
