package llm

import (
	"fmt"
	"strings"

	"github.com/helixir/phd-talent-service/internal/domain"
)

const (
	promptTopPublications = 5
	promptVenueHints      = 5
	promptTitleClues      = 3

	unknownUniversity = "University information not available"
)

// BuildCandidateSystemPrompt renders the system prompt for a conversation
// about c. The prompt embeds the candidate profile block and, when the
// university is unknown, venue hints the model may use to infer affiliation.
func BuildCandidateSystemPrompt(c domain.Candidate) string {
	name := c.Name
	if strings.TrimSpace(name) == "" {
		name = "[Name not available]"
	}

	var sb strings.Builder
	sb.WriteString("You are a professional recruitment assistant with access to both a database and your own knowledge. " +
		"Your role is to give detailed, informative answers about PhD candidates.\n\n")
	fmt.Fprintf(&sb, "DATABASE INFORMATION FOR %q:\n", name)
	sb.WriteString(CandidateProfile(c))
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	fmt.Fprintf(&sb, "1. Use the name %q as the primary key and combine it with the publications, research areas, "+
		"graduation year and citation counts above to identify this person.\n", name)
	sb.WriteString("2. If the university is unknown, try to identify the actual institution from the name, " +
		"publications, venues and research areas instead of stating that it is unknown.\n")
	sb.WriteString("3. Start with concrete facts (institution, research focus), then list publications with venue, " +
		"year and impact, then give context that is useful for recruitment.\n")
	sb.WriteString("4. Respond in the same language as the user's question.\n\n")
	fmt.Fprintf(&sb, "Known publication titles: %s.", titleClues(c.Publications))

	return sb.String()
}

// CandidateProfile renders the plain-text profile block of c.
func CandidateProfile(c domain.Candidate) string {
	university := strings.TrimSpace(c.University)
	if university == "" {
		university = unknownUniversity
	}
	unknown := isUnknownUniversity(university)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate Name: %s\n\n", orPlaceholder(c.Name, "[Name not available]"))

	sb.WriteString("Basic Information:\n")
	fmt.Fprintf(&sb, "- University: %s", university)
	if unknown {
		sb.WriteString(" (marked as unknown in database)")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Department: %s\n", orPlaceholder(c.Department, "[Not specified]"))
	fmt.Fprintf(&sb, "- Advisor: %s\n", orPlaceholder(c.Advisor, "[Information not available]"))
	fmt.Fprintf(&sb, "- Research Areas: %s\n", orPlaceholder(strings.Join(c.ResearchAreas, ", "), "[Not specified]"))
	if c.GraduationYear > 0 {
		fmt.Fprintf(&sb, "- Graduation Year: %d\n", c.GraduationYear)
	} else {
		sb.WriteString("- Graduation Year: [Not specified]\n")
	}

	sb.WriteString("\nAcademic Metrics:\n")
	fmt.Fprintf(&sb, "- Total Citations: %d\n", c.TotalCitations)
	fmt.Fprintf(&sb, "- H-index: %d\n", c.HIndex)
	fmt.Fprintf(&sb, "- Ranking Score: %d/100\n", c.RankingScore)
	fmt.Fprintf(&sb, "- Number of Publications: %d papers\n\n", len(c.Publications))

	var summary string
	var strengths, concerns []string
	if c.Analysis != nil {
		summary = c.Analysis.ResearchSummary
		strengths = c.Analysis.KeyStrengths
		concerns = c.Analysis.PotentialConcerns
	}
	fmt.Fprintf(&sb, "Research Summary: %s\n", orPlaceholder(summary, "[Not available]"))
	fmt.Fprintf(&sb, "Key Strengths: %s\n", orPlaceholder(strings.Join(strengths, "; "), "[Not specified]"))
	fmt.Fprintf(&sb, "Potential Concerns: %s\n", orPlaceholder(strings.Join(concerns, "; "), "[None listed]"))

	sb.WriteString("\n")
	sb.WriteString(publicationList(c.Publications))

	if unknown {
		if venues := venueHints(c.Publications); len(venues) > 0 {
			fmt.Fprintf(&sb, "\n\nNote: While the university is marked as %q, the candidate has published in the "+
				"following venues: %s. You may infer potential institutional affiliations from these venues.",
				university, strings.Join(venues, ", "))
		}
	}

	return sb.String()
}

func publicationList(pubs []domain.Publication) string {
	if len(pubs) == 0 {
		return "Publications: No publications listed."
	}

	n := min(len(pubs), promptTopPublications)
	lines := make([]string, 0, n+1)
	lines = append(lines, "Top Publications:")
	for i, p := range pubs[:n] {
		year := "Unknown year"
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		lines = append(lines, fmt.Sprintf("%d. %q - %s (%s), %d citations",
			i+1, orPlaceholder(p.Title, "Untitled"), orPlaceholder(p.Venue, "Unknown venue"), year, p.Citations))
	}
	return strings.Join(lines, "\n")
}

// venueHints returns up to promptVenueHints distinct venues in publication
// order, skipping demo tracks.
func venueHints(pubs []domain.Publication) []string {
	seen := make(map[string]struct{})
	var venues []string
	for _, p := range pubs {
		v := strings.TrimSpace(p.Venue)
		if v == "" || strings.Contains(strings.ToLower(v), "demo") {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		venues = append(venues, v)
		if len(venues) == promptVenueHints {
			break
		}
	}
	return venues
}

func titleClues(pubs []domain.Publication) string {
	var titles []string
	for _, p := range pubs {
		if len(titles) == promptTitleClues {
			break
		}
		titles = append(titles, p.Title)
	}
	if len(titles) == 0 {
		return "none"
	}
	return strings.Join(titles, ", ")
}

func isUnknownUniversity(university string) bool {
	return university == unknownUniversity || strings.Contains(strings.ToLower(university), "unknown")
}

func orPlaceholder(s, placeholder string) string {
	if s = strings.TrimSpace(s); s == "" {
		return placeholder
	}
	return s
}
