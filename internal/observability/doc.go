// Package observability provides structured logging, Prometheus metrics and
// request context helpers for the PhD talent service.
//
// Create a logger from configuration and tag it per component:
//
//	logger := observability.NewLogger(observability.DefaultLoggingConfig())
//	logger = observability.WithComponent(logger, "search-service")
//
// Metrics are registered with the default Prometheus registry on creation:
//
//	metrics := observability.NewMetrics("phd_talent")
//	metrics.RecordFetchError("candidates")
//
// Standard log fields: component, correlation_id, request_id, candidate_id,
// view, table, provider.
package observability
