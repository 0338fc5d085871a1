package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/phd-talent-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func newSearchRows() SearchRows {
	return SearchRows{
		Universities: []domain.UniversityRecord{
			{ID: "u-two", Name: "Second University", Country: "UK", Ranking: intPtr(2)},
			{ID: "u-none", Name: "Unranked Institute", Country: "DE"},
			{ID: "u-one", Name: "First University", Country: "US", Ranking: intPtr(1)},
		},
		Candidates: []domain.CandidateRecord{
			{ID: "c1", Name: "Ada", UniversityID: "u-two", ResearchInterests: []string{"Graph Neural Networks"}, TotalCitations: 120, HIndex: 8},
			{ID: "c2", Name: "Grace", UniversityID: "u-none", ResearchInterests: []string{"Compilers"}, TotalCitations: 10, HIndex: 2},
			{ID: "c3", Name: "Alan", UniversityID: "u-one", ResearchInterests: []string{"Number Theory"}, TotalCitations: 5},
			{ID: "c4", Name: "Barbara", UniversityID: "u-one", Department: "EECS", TotalCitations: 60, HIndex: 4},
			{ID: "c5", Name: "Lost", UniversityID: "u-missing", TotalCitations: 900},
		},
		Publications: []domain.RawPublication{
			{"id": "p1", "candidate_id": "c1", "title": "GNNs at Scale", "venue": "NeurIPS", "year": float64(2022), "citations": float64(70)},
			{"id": "p2", "candidate_id": "c1", "title": "GNNs at scale", "venue": "NeurIPS", "year": float64(2022), "citations": float64(50)},
			{"id": "p3", "candidate_id": "c1", "title": "Older Work", "venue": "Workshop", "year": float64(2019), "citations": float64(5)},
			{"id": "p4", "candidate_id": "c4", "title": "Secure Things", "venue": "USENIX Security", "year": float64(2021), "citations": float64(60)},
		},
	}
}

func TestAggregate_SortsUniversitiesByRanking(t *testing.T) {
	res := Aggregate(newSearchRows(), domain.SearchFilters{ViewMode: domain.ViewModeByUniversity})

	require.Len(t, res.Universities, 3)
	assert.Equal(t, []int{1, 2, domain.UnknownRanking}, []int{
		res.Universities[0].Ranking,
		res.Universities[1].Ranking,
		res.Universities[2].Ranking,
	})
	assert.Equal(t, 4, res.TotalCandidates, "candidates of unknown universities are skipped")
	assert.Nil(t, res.Ranked)
}

func TestAggregate_CandidatePipeline(t *testing.T) {
	res := Aggregate(newSearchRows(), domain.SearchFilters{})

	second := res.Universities[1]
	require.Equal(t, "Second University", second.Name)
	require.Len(t, second.Candidates, 1)

	ada := second.Candidates[0]
	assert.Equal(t, "Second University", ada.University)
	assert.Equal(t, "UK", second.Location)
	assert.Equal(t, defaultDepartment, ada.Department)

	// The two title variants collapse into the higher-cited record.
	require.Len(t, ada.Publications, 2)
	assert.Equal(t, "p1", ada.Publications[0].ID)
	assert.Equal(t, "p3", ada.Publications[1].ID)

	assert.Equal(t, ScoreCandidate(120, 8, 2, 1).RankingScore, ada.RankingScore)
	require.Len(t, ada.RadarData, 5)
	require.NotNil(t, ada.Analysis)
	assert.Equal(t, ada.RankingScore, ada.Analysis.ScoreExplanation.TotalScore)
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestAggregate_CandidatesSortedWithinUniversity(t *testing.T) {
	res := Aggregate(newSearchRows(), domain.SearchFilters{})

	first := res.Universities[0]
	require.Len(t, first.Candidates, 2)
	assert.Equal(t, "c4", first.Candidates[0].ID)
	assert.Equal(t, "EECS", first.Candidates[0].Department)
	assert.Equal(t, "c3", first.Candidates[1].ID)
	assert.GreaterOrEqual(t, first.Candidates[0].RankingScore, first.Candidates[1].RankingScore)
}

func TestAggregate_ByRanking(t *testing.T) {
	res := Aggregate(newSearchRows(), domain.SearchFilters{ViewMode: domain.ViewModeByRanking})

	require.Len(t, res.Ranked, 4)
	for i, r := range res.Ranked {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Ranked[i-1].Candidate.RankingScore, r.Candidate.RankingScore)
		}
	}
	assert.Equal(t, "c1", res.Ranked[0].Candidate.ID)
}

func TestAggregate_SearchQuery(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		universities []string
		candidateIDs []string
	}{
		{"candidate name", "grace", []string{"Unranked Institute"}, []string{"c2"}},
		{"research area", "GRAPH", []string{"Second University"}, []string{"c1"}},
		{"university name keeps empty university", "first", []string{"First University"}, nil},
		{"blank query keeps everything", "  ", []string{"First University", "Second University", "Unranked Institute"}, []string{"c4", "c3", "c1", "c2"}},
		{"no match", "zzz", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(newSearchRows(), domain.SearchFilters{SearchQuery: tt.query})

			var names, ids []string
			for _, u := range res.Universities {
				names = append(names, u.Name)
				for _, c := range u.Candidates {
					ids = append(ids, c.ID)
				}
			}
			assert.Equal(t, tt.universities, names)
			assert.Equal(t, tt.candidateIDs, ids)
			assert.Equal(t, len(tt.candidateIDs), res.TotalCandidates)
			assert.NotNil(t, res.Universities)
		})
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	rows := newSearchRows()
	filters := domain.SearchFilters{ViewMode: domain.ViewModeByRanking, TopPercentile: 50}

	assert.Equal(t, Aggregate(rows, filters), Aggregate(rows, filters))
}

func TestRankCandidates_TopPercentile(t *testing.T) {
	unis := []domain.University{
		{Name: "a", Candidates: []domain.Candidate{{ID: "1", RankingScore: 10}, {ID: "2", RankingScore: 90}}},
		{Name: "b", Candidates: []domain.Candidate{{ID: "3", RankingScore: 50}}},
	}

	tests := []struct {
		pct      int
		expected []string
	}{
		{0, []string{"2", "3", "1"}},
		{100, []string{"2", "3", "1"}},
		{50, []string{"2", "3"}},
		{10, []string{"2"}},
	}

	for _, tt := range tests {
		ranked := RankCandidates(unis, tt.pct)
		var ids []string
		for _, r := range ranked {
			ids = append(ids, r.Candidate.ID)
		}
		assert.Equal(t, tt.expected, ids, "percentile %d", tt.pct)
	}

	// The input universities are not reordered.
	assert.Equal(t, "1", unis[0].Candidates[0].ID)
}

func TestBuildAnalysis(t *testing.T) {
	score := ScoreCandidate(200, 2, 0, 0)
	a := BuildAnalysis([]string{"Robotics", "", "Vision", "Control", "Planning"}, score, CandidateMetrics{})

	assert.Equal(t, defaultBio, a.Bio)
	assert.Equal(t, "Focus areas: Robotics, Vision, Control.", a.ResearchSummary)
	assert.Contains(t, a.KeyStrengths, "High citation impact")
	assert.NotContains(t, a.KeyStrengths, "Clear research focus")
	assert.Equal(t, []string{"No publications on record"}, a.PotentialConcerns)
	assert.Len(t, a.ScoreExplanation.Breakdown, 5)

	b := BuildAnalysis(nil, ScoreCandidate(0, 0, 1, 0), CandidateMetrics{PublicationCount: 1})
	assert.Equal(t, "Focus areas not specified.", b.ResearchSummary)
	assert.Empty(t, b.KeyStrengths)
	assert.Equal(t, []string{"No papers at top-tier venues"}, b.PotentialConcerns)
}
