package pipeline

import (
	"strings"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// TopVenues is the allow-list of venues counted as top-tier.
var TopVenues = []string{
	"ICML", "NeurIPS", "ICLR", "AAAI", "IJCAI", "CVPR", "ICCV",
	"ECCV", "ACL", "EMNLP", "KDD", "SIGGRAPH", "CHI",
}

var topVenuesLower = lowerAll(TopVenues)

// CandidateMetrics are the per-candidate figures derived from a
// deduplicated publication list.
type CandidateMetrics struct {
	PublicationCount int
	TopVenueCount    int
	MostCited        *domain.Publication
}

// Summarize computes CandidateMetrics for a deduplicated publication list.
func Summarize(pubs []domain.Publication) CandidateMetrics {
	m := CandidateMetrics{PublicationCount: len(pubs)}
	best := -1
	for i, p := range pubs {
		if IsTopVenue(p.Venue) {
			m.TopVenueCount++
		}
		if best < 0 || p.Citations > pubs[best].Citations {
			best = i
		}
	}
	if best >= 0 {
		mostCited := pubs[best]
		m.MostCited = &mostCited
	}
	return m
}

// IsTopVenue reports whether venue contains any allow-listed venue name,
// ignoring case.
func IsTopVenue(venue string) bool {
	if venue == "" {
		return false
	}
	v := strings.ToLower(venue)
	for _, top := range topVenuesLower {
		if strings.Contains(v, top) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
