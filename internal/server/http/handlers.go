package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/llm"
	"github.com/helixir/phd-talent-service/internal/observability"
)

// searchUniversities handles GET /universities.
func (s *Server) searchUniversities(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.service.Search(r.Context(), params.filters())
	if err != nil {
		s.logFailure(r, err, "search failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSearchResponse(res))
}

// getCandidate handles GET /candidates/{candidateID}.
func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := strings.TrimSpace(chi.URLParam(r, "candidateID"))
	if candidateID == "" {
		writeError(w, http.StatusBadRequest, "candidate ID is required")
		return
	}

	c, err := s.service.GetCandidate(r.Context(), candidateID)
	if err != nil {
		s.logFailure(r, err, "get candidate failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// chatWithCandidate handles POST /candidates/{candidateID}/chat.
// Provider failures still answer 200 with the failure text as the reply.
func (s *Server) chatWithCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := strings.TrimSpace(chi.URLParam(r, "candidateID"))
	if candidateID == "" {
		writeError(w, http.StatusBadRequest, "candidate ID is required")
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := validateStruct(req); err != nil {
		writeDomainError(w, err)
		return
	}

	messages := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	reply, err := s.service.Chat(r.Context(), candidateID, messages)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "chat is not configured")
			return
		}
		s.logFailure(r, err, "chat failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// logFailure logs unexpected handler errors. Client errors are not logged.
func (s *Server) logFailure(r *http.Request, err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return
	}
	logger := observability.WithRequestContext(r.Context(), s.logger)
	logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
}
