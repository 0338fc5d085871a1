package httpserver

import (
	"errors"
	"net/http"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/pipeline"
)

// searchResponse is the JSON body of GET /universities. Ranked is only set in
// by-ranking view mode.
type searchResponse struct {
	Universities    []domain.University      `json:"universities"`
	Ranked          []domain.RankedCandidate `json:"ranked,omitempty"`
	TotalCandidates int                      `json:"total_candidates"`
}

func toSearchResponse(res pipeline.SearchResult) searchResponse {
	universities := res.Universities
	if universities == nil {
		universities = []domain.University{}
	}
	return searchResponse{
		Universities:    universities,
		Ranked:          res.Ranked,
		TotalCandidates: res.TotalCandidates,
	}
}

// writeDomainError maps domain errors to appropriate HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "not configured")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
