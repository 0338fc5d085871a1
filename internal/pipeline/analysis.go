package pipeline

import (
	"strings"

	"github.com/helixir/phd-talent-service/internal/domain"
)

const (
	defaultBio          = "Recent PhD graduate with research spanning multiple areas."
	maxSummaryAreas     = 3
	strongDimensionMark = 60
)

// BuildAnalysis produces the narrative analysis block for a candidate from
// its score and publication metrics.
func BuildAnalysis(researchAreas []string, score Score, metrics CandidateMetrics) *domain.CandidateAnalysis {
	return &domain.CandidateAnalysis{
		Bio:             defaultBio,
		ResearchSummary: researchSummary(researchAreas),
		ScoreExplanation: domain.ScoreExplanation{
			TotalScore: score.RankingScore,
			Breakdown: map[string]domain.ScoreComponent{
				"citations":    {Score: score.OverallCitations, Explanation: "Citations relative to peers."},
				"publications": {Score: score.PublicationVolume, Explanation: "Publication volume in recent years."},
				"topVenues":    {Score: score.TopVenuePresence, Explanation: "Papers at top-tier venues."},
				"hIndex":       {Score: score.FirstAuthorImpact, Explanation: "H-index based impact."},
				"hotTopics":    {Score: score.HotTopicCitations, Explanation: "Citation momentum in active research areas."},
			},
		},
		KeyStrengths:      keyStrengths(researchAreas, score),
		PotentialConcerns: potentialConcerns(metrics),
	}
}

func researchSummary(areas []string) string {
	focus := make([]string, 0, maxSummaryAreas)
	for _, a := range areas {
		if a = strings.TrimSpace(a); a != "" {
			focus = append(focus, a)
		}
		if len(focus) == maxSummaryAreas {
			break
		}
	}
	if len(focus) == 0 {
		return "Focus areas not specified."
	}
	return "Focus areas: " + strings.Join(focus, ", ") + "."
}

func keyStrengths(areas []string, score Score) []string {
	strengths := []string{}
	if score.OverallCitations >= strongDimensionMark {
		strengths = append(strengths, "High citation impact")
	}
	if score.TopVenuePresence >= strongDimensionMark {
		strengths = append(strengths, "Strong presence at top-tier venues")
	}
	if score.PublicationVolume >= strongDimensionMark {
		strengths = append(strengths, "Consistent publication record")
	}
	if score.FirstAuthorImpact >= strongDimensionMark {
		strengths = append(strengths, "Solid h-index")
	}
	if len(areas) > 0 && len(areas) <= maxSummaryAreas {
		strengths = append(strengths, "Clear research focus")
	}
	return strengths
}

func potentialConcerns(metrics CandidateMetrics) []string {
	concerns := []string{}
	switch {
	case metrics.PublicationCount == 0:
		concerns = append(concerns, "No publications on record")
	case metrics.TopVenueCount == 0:
		concerns = append(concerns, "No papers at top-tier venues")
	}
	return concerns
}
