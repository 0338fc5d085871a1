package httpserver

import (
	"context"
	"net/http"

	"github.com/helixir/phd-talent-service/internal/service"
)

// academicOutput handles GET /comparison/academic-output.
func (s *Server) academicOutput(w http.ResponseWriter, r *http.Request) {
	serveComparison(s, w, r, s.service.AcademicOutput)
}

// conferenceDistribution handles GET /comparison/conferences.
func (s *Server) conferenceDistribution(w http.ResponseWriter, r *http.Request) {
	serveComparison(s, w, r, s.service.ConferenceDistribution)
}

// topicHeatmap handles GET /comparison/topic-heatmap.
func (s *Server) topicHeatmap(w http.ResponseWriter, r *http.Request) {
	serveComparison(s, w, r, s.service.TopicHeatmap)
}

// emergingTopics handles GET /comparison/emerging-topics.
func (s *Server) emergingTopics(w http.ResponseWriter, r *http.Request) {
	serveComparison(s, w, r, s.service.EmergingTopics)
}

// serveComparison parses the shared comparison parameters, runs view and
// writes its rows.
func serveComparison[T any](
	s *Server,
	w http.ResponseWriter,
	r *http.Request,
	view func(context.Context, service.ComparisonQuery) ([]T, error),
) {
	params, err := parseComparisonParams(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	q := service.ComparisonQuery{Universities: params.Universities, Years: params.years()}
	rows, err := view(r.Context(), q)
	if err != nil {
		s.logFailure(r, err, "comparison failed")
		writeDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}

	writeJSON(w, http.StatusOK, rows)
}
