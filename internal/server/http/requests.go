package httpserver

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/phd-talent-service/internal/domain"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// validate is shared by every handler; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// searchParams are the query parameters of GET /universities.
type searchParams struct {
	Query         string   `query:"q" validate:"max=200"`
	YearStart     int      `query:"year_start" validate:"omitempty,min=1900,max=2100"`
	YearEnd       int      `query:"year_end" validate:"omitempty,min=1900,max=2100,gtefield=YearStart"`
	MinCitations  int      `query:"min_citations" validate:"min=0"`
	Topics        []string `query:"topics" validate:"max=50,dive,min=1,max=200"`
	ViewMode      string   `query:"view_mode" validate:"omitempty,oneof=by-university by-ranking"`
	TopPercentile int      `query:"top_percentile" validate:"min=0,max=100"`
}

// comparisonParams are the query parameters of the comparison endpoints.
type comparisonParams struct {
	Universities []string `query:"universities" validate:"required,min=1,max=20,dive,min=1,max=200"`
	StartYear    int      `query:"start_year" validate:"omitempty,min=1900,max=2100"`
	EndYear      int      `query:"end_year" validate:"omitempty,min=1900,max=2100,gtefield=StartYear"`
}

// chatRequest is the JSON request body of POST /candidates/{candidateID}/chat.
type chatRequest struct {
	Messages []chatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=8000"`
}

func parseSearchParams(q url.Values) (searchParams, error) {
	var p searchParams
	var err error

	p.Query = strings.TrimSpace(q.Get("q"))
	if p.YearStart, err = intParam(q, "year_start"); err != nil {
		return p, err
	}
	if p.YearEnd, err = intParam(q, "year_end"); err != nil {
		return p, err
	}
	if p.MinCitations, err = intParam(q, "min_citations"); err != nil {
		return p, err
	}
	if p.TopPercentile, err = intParam(q, "top_percentile"); err != nil {
		return p, err
	}
	p.Topics = listParam(q, "topics")
	p.ViewMode = strings.TrimSpace(q.Get("view_mode"))

	if err := checkYearPair("year_start", p.YearStart, "year_end", p.YearEnd); err != nil {
		return p, err
	}
	return p, validateStruct(p)
}

func (p searchParams) filters() domain.SearchFilters {
	return domain.SearchFilters{
		SearchQuery:    p.Query,
		YearRange:      domain.YearRange{Start: p.YearStart, End: p.YearEnd},
		MinCitations:   p.MinCitations,
		SelectedTopics: p.Topics,
		ViewMode:       domain.ViewMode(p.ViewMode),
		TopPercentile:  p.TopPercentile,
	}
}

func parseComparisonParams(q url.Values) (comparisonParams, error) {
	var p comparisonParams
	var err error

	p.Universities = listParam(q, "universities")
	if p.StartYear, err = intParam(q, "start_year"); err != nil {
		return p, err
	}
	if p.EndYear, err = intParam(q, "end_year"); err != nil {
		return p, err
	}

	if err := checkYearPair("start_year", p.StartYear, "end_year", p.EndYear); err != nil {
		return p, err
	}
	return p, validateStruct(p)
}

func (p comparisonParams) years() domain.YearRange {
	return domain.YearRange{Start: p.StartYear, End: p.EndYear}
}

// intParam parses an optional integer query parameter. A missing or blank
// value yields 0.
func intParam(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

// listParam reads a comma-separated list parameter. Repeated parameters are
// merged and blank items dropped.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func checkYearPair(startName string, start int, endName string, end int) error {
	if (start == 0) != (end == 0) {
		return domain.NewValidationError(startName, fmt.Sprintf("%s and %s must be given together", startName, endName))
	}
	return nil
}

// validateStruct runs validator tags on v and converts the first failure into
// a domain.ValidationError naming the offending parameter.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("request", err.Error())
	}

	fe := verrs[0]
	field := fe.Field()
	if ns := fe.Namespace(); strings.Contains(ns, ".") {
		_, field, _ = strings.Cut(ns, ".")
	}
	return domain.NewValidationError(field, validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s items or characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s items or characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gtefield":
		return "must not be before the start year"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
