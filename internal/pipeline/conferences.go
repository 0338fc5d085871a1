package pipeline

import (
	"sort"
	"strings"
)

// conferencePattern maps a lower-case venue substring to a standardized
// conference label.
type conferencePattern struct {
	pattern string
	label   string
}

var conferencePatterns = sortedPatterns([]conferencePattern{
	{"icml", "ICML"},
	{"neurips", "NeurIPS"},
	{"nips", "NeurIPS"},
	{"iclr", "ICLR"},
	{"aaai", "AAAI"},
	{"ijcai", "IJCAI"},
	{"acl", "ACL"},
	{"emnlp", "EMNLP"},
	{"cvpr", "CVPR"},
	{"iccv", "ICCV"},
	{"eccv", "ECCV"},
	{"sigmod", "SIGMOD"},
	{"vldb", "VLDB"},
	{"kdd", "KDD"},
	{"www", "WWW"},
	{"chi", "CHI"},
	{"uist", "UIST"},
	{"usenix", "USENIX"},
	{"osdi", "OSDI"},
	{"sosp", "SOSP"},
	{"ccs", "CCS"},
	{"ndss", "NDSS"},
})

// sortedPatterns orders patterns longest first so that the most specific
// pattern wins. Patterns of equal length keep their table order.
func sortedPatterns(patterns []conferencePattern) []conferencePattern {
	sort.SliceStable(patterns, func(i, j int) bool {
		return len(patterns[i].pattern) > len(patterns[j].pattern)
	})
	return patterns
}

// ConferenceLabel returns the standardized conference label for a venue, or
// "" and false when the venue matches no known conference.
func ConferenceLabel(venue string) (string, bool) {
	if venue == "" {
		return "", false
	}
	v := strings.ToLower(venue)
	for _, p := range conferencePatterns {
		if strings.Contains(v, p.pattern) {
			return p.label, true
		}
	}
	return "", false
}
