package pipeline

import (
	"sort"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Result sizes of the ranked comparison tables.
const (
	TopConferenceCount     = 12
	TopEmergingTopicsCount = 8
)

// ComparisonInput is the row set behind the cross-university views.
// UniversityNames fixes the order universities appear in; when it is empty
// the order of Universities is used.
type ComparisonInput struct {
	UniversityNames []string
	Years           domain.YearRange
	Universities    []domain.UniversityRecord
	Candidates      []domain.CandidateRecord
	Publications    []domain.RawPublication
	Metrics         []domain.AcademicMetricRecord
}

// comparisonIndex resolves candidates to their university and holds the
// deduplicated in-range publications of each known candidate.
type comparisonIndex struct {
	universityOrder []string
	universityName  map[string]string
	candidates      map[string]domain.CandidateRecord
	candidateUni    map[string]string
	publications    []domain.Publication
}

func buildComparisonIndex(in ComparisonInput) *comparisonIndex {
	idx := &comparisonIndex{
		universityName: make(map[string]string, len(in.Universities)),
		candidates:     make(map[string]domain.CandidateRecord, len(in.Candidates)),
		candidateUni:   make(map[string]string, len(in.Candidates)),
	}

	for _, u := range in.Universities {
		idx.universityName[u.ID] = u.Name
	}
	names := in.UniversityNames
	if len(names) == 0 {
		for _, u := range in.Universities {
			names = append(names, u.Name)
		}
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		idx.universityOrder = append(idx.universityOrder, name)
	}

	for _, c := range in.Candidates {
		name, ok := idx.universityName[c.UniversityID]
		if !ok {
			continue
		}
		idx.candidates[c.ID] = c
		idx.candidateUni[c.ID] = name
	}

	// Group by candidate in first-seen order, then deduplicate each group.
	var order []string
	grouped := make(map[string][]domain.Publication)
	for _, raw := range in.Publications {
		p := Normalize(raw)
		if _, known := idx.candidateUni[p.CandidateID]; !known {
			continue
		}
		if !in.Years.Contains(p.Year) {
			continue
		}
		if _, seen := grouped[p.CandidateID]; !seen {
			order = append(order, p.CandidateID)
		}
		grouped[p.CandidateID] = append(grouped[p.CandidateID], p)
	}
	for _, id := range order {
		idx.publications = append(idx.publications, Deduplicate(grouped[id])...)
	}

	return idx
}

// tally counts (label, university) pairs and remembers the order in which
// labels were first seen so that ranking ties are deterministic.
type tally struct {
	order  []string
	counts map[string]map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]map[string]int)}
}

func (t *tally) add(label, university string) {
	byUni, ok := t.counts[label]
	if !ok {
		byUni = make(map[string]int)
		t.counts[label] = byUni
		t.order = append(t.order, label)
	}
	byUni[university]++
}

type rankedLabel struct {
	label        string
	universities map[string]int
	total        int
}

func (t *tally) top(n int) []rankedLabel {
	ranked := make([]rankedLabel, 0, len(t.order))
	for _, label := range t.order {
		r := rankedLabel{label: label, universities: t.counts[label]}
		for _, c := range r.universities {
			r.total += c
		}
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total > ranked[j].total
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ConferenceDistribution counts publications per standardized conference and
// university, returning the TopConferenceCount conferences with the highest
// totals. Publications whose venue matches no known conference are excluded.
func ConferenceDistribution(in ComparisonInput) []domain.ConferenceCount {
	idx := buildComparisonIndex(in)
	t := newTally()
	for _, p := range idx.publications {
		label, ok := ConferenceLabel(p.Venue)
		if !ok {
			continue
		}
		t.add(label, idx.candidateUni[p.CandidateID])
	}

	ranked := t.top(TopConferenceCount)
	out := make([]domain.ConferenceCount, len(ranked))
	for i, r := range ranked {
		out[i] = domain.ConferenceCount{Conference: r.label, Universities: r.universities, Total: r.total}
	}
	return out
}

// EmergingTopics attributes each publication to the emerging topic labels of
// its candidate's research interests and returns the TopEmergingTopicsCount
// labels with the highest totals.
func EmergingTopics(in ComparisonInput) []domain.EmergingTopicCount {
	idx := buildComparisonIndex(in)
	t := newTally()
	for _, p := range idx.publications {
		uni := idx.candidateUni[p.CandidateID]
		for _, topic := range idx.candidates[p.CandidateID].ResearchInterests {
			if label, ok := MatchEmergingTopic(topic); ok {
				t.add(label, uni)
			}
		}
	}

	ranked := t.top(TopEmergingTopicsCount)
	out := make([]domain.EmergingTopicCount, len(ranked))
	for i, r := range ranked {
		out[i] = domain.EmergingTopicCount{Topic: r.label, Universities: r.universities, Total: r.total}
	}
	return out
}

// TopicHeatmap counts publications per university, year and research topic.
// Each publication counts once for every topic of its candidate. Cells are
// emitted topic by topic (sorted), then university (in request order, skipping
// universities without data), then year across the whole range, with zero
// counts for empty cells.
func TopicHeatmap(in ComparisonInput) []domain.HeatmapCell {
	idx := buildComparisonIndex(in)

	// university -> year -> topic -> count
	counts := make(map[string]map[int]map[string]int)
	topicSet := make(map[string]struct{})
	for _, p := range idx.publications {
		uni := idx.candidateUni[p.CandidateID]
		for _, topic := range idx.candidates[p.CandidateID].ResearchInterests {
			byYear, ok := counts[uni]
			if !ok {
				byYear = make(map[int]map[string]int)
				counts[uni] = byYear
			}
			byTopic, ok := byYear[p.Year]
			if !ok {
				byTopic = make(map[string]int)
				byYear[p.Year] = byTopic
			}
			byTopic[topic]++
			topicSet[topic] = struct{}{}
		}
	}

	topics := make([]string, 0, len(topicSet))
	for topic := range topicSet {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	var cells []domain.HeatmapCell
	for y, topic := range topics {
		for _, uni := range idx.universityOrder {
			byYear, ok := counts[uni]
			if !ok {
				continue
			}
			for x := 0; x < in.Years.Len(); x++ {
				year := in.Years.Start + x
				papers := byYear[year][topic]
				cells = append(cells, domain.HeatmapCell{
					University: uni,
					Year:       year,
					Topic:      topic,
					Papers:     papers,
					X:          x,
					Y:          y,
					Z:          papers,
				})
			}
		}
	}
	return cells
}

// AcademicOutput maps yearly per-university metrics onto university names,
// ordered by year and then by university order. Rows for unknown universities
// or years outside the range are skipped.
func AcademicOutput(in ComparisonInput) []domain.AcademicOutputPoint {
	idx := buildComparisonIndex(in)
	rank := make(map[string]int, len(idx.universityOrder))
	for i, name := range idx.universityOrder {
		rank[name] = i
	}

	var points []domain.AcademicOutputPoint
	for _, m := range in.Metrics {
		name, ok := idx.universityName[m.UniversityID]
		if !ok || !in.Years.Contains(m.Year) {
			continue
		}
		points = append(points, domain.AcademicOutputPoint{
			University:        name,
			Year:              m.Year,
			PublicationsCount: m.PublicationsCount,
			TotalCitations:    m.TotalCitations,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return rankOf(rank, points[i].University) < rankOf(rank, points[j].University)
	})
	return points
}

func rankOf(rank map[string]int, name string) int {
	if r, ok := rank[name]; ok {
		return r
	}
	return len(rank)
}
