package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// DedupKey derives the identity key of a publication. An external paper ID is
// the strongest key; otherwise the normalized title, venue and year are used.
func DedupKey(p domain.Publication) string {
	if id := strings.TrimSpace(p.PaperID); id != "" {
		return "paper_id:" + cases.Fold().String(id)
	}

	var sb strings.Builder
	sb.WriteString("content:")
	sb.WriteString(domain.NormalizeText(p.Title))
	sb.WriteByte('|')
	sb.WriteString(domain.NormalizeText(p.Venue))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(p.Year))
	return sb.String()
}

// Deduplicate collapses publications that share a DedupKey, keeping the best
// representative of each group, and returns the survivors sorted by year
// descending then citations descending. The input slice is not modified.
//
// A later record replaces the kept one when it has strictly more citations,
// or the same citations and a paper ID the kept record lacks. A replacement
// takes over the position of the record it replaces.
func Deduplicate(pubs []domain.Publication) []domain.Publication {
	kept := make([]domain.Publication, 0, len(pubs))
	index := make(map[string]int, len(pubs))

	for _, p := range pubs {
		key := DedupKey(p)
		i, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, p)
			continue
		}
		if preferOver(p, kept[i]) {
			kept[i] = p
		}
	}

	SortPublications(kept)
	return kept
}

func preferOver(candidate, current domain.Publication) bool {
	if candidate.Citations != current.Citations {
		return candidate.Citations > current.Citations
	}
	return candidate.HasPaperID() && !current.HasPaperID()
}

// SortPublications stable-sorts publications by year descending, then
// citations descending.
func SortPublications(pubs []domain.Publication) {
	sort.SliceStable(pubs, func(i, j int) bool {
		if pubs[i].Year != pubs[j].Year {
			return pubs[i].Year > pubs[j].Year
		}
		return pubs[i].Citations > pubs[j].Citations
	})
}
