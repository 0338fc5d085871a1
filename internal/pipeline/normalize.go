package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/helixir/phd-talent-service/internal/domain"
)

// Source field names tried in priority order. The first present, non-blank
// field wins.
var (
	authorFields  = []string{"authors", "authors_json", "authors_text", "author_list", "author_names"}
	typeFields    = []string{"type", "category", "publication_type"}
	paperIDFields = []string{"paper_id", "paperId"}
)

const untitled = "Untitled"

// Normalize converts a raw publication row into a canonical Publication.
// It never fails: malformed or missing fields fall back to defaults.
func Normalize(raw domain.RawPublication) domain.Publication {
	title := stringValue(raw["title"])
	if strings.TrimSpace(title) == "" {
		title = untitled
	}

	citations := intValue(raw["citations"])
	if citations < 0 {
		citations = 0
	}

	return domain.Publication{
		ID:          stringValue(raw["id"]),
		PaperID:     stringValue(firstPresent(raw, paperIDFields)),
		CandidateID: stringValue(raw["candidate_id"]),
		Title:       title,
		Venue:       stringValue(raw["venue"]),
		Year:        intValue(raw["year"]),
		Citations:   citations,
		Authors:     ParseAuthors(firstPresent(raw, authorFields)),
		Type:        domain.ParsePublicationType(stringValue(firstPresent(raw, typeFields))),
	}
}

// NormalizeAll normalizes every row, preserving order.
func NormalizeAll(rows []domain.RawPublication) []domain.Publication {
	pubs := make([]domain.Publication, 0, len(rows))
	for _, row := range rows {
		pubs = append(pubs, Normalize(row))
	}
	return pubs
}

// ParseAuthors converts an author field of unknown shape into a list of names.
// Sequences are stringified element by element; strings are parsed as a JSON
// array, falling back to a comma split.
func ParseAuthors(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		return stringifyAll(val)
	case string:
		return parseAuthorString(val)
	case []byte:
		return parseAuthorString(string(val))
	default:
		return []string{}
	}
}

func parseAuthorString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	var arr []any
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return stringifyAll(arr)
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringifyAll(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		out = append(out, stringValue(v))
	}
	return out
}

// firstPresent returns the value of the first field in names that is present
// in raw and not nil or a blank string.
func firstPresent(raw domain.RawPublication, names []string) any {
	for _, name := range names {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// intValue coerces numeric values and numeric strings to int. Anything else,
// including NaN and infinities, becomes 0.
func intValue(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float32:
		return floatToInt(float64(val))
	case float64:
		return floatToInt(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0
	default:
		return 0
	}
}

func floatToInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}
