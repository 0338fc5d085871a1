package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (e.g., "openai", "anthropic").
	Provider string
	// StatusCode is the HTTP status code returned by the API.
	// Zero means no HTTP response was received.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error type classification from the API.
	Type string
	// Code is the provider-specific error code (if available).
	Code string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsAuthError reports whether the provider rejected the credentials.
func (e *APIError) IsAuthError() bool {
	if e.StatusCode == http.StatusUnauthorized {
		return true
	}
	return e.Code == "invalid_api_key" || strings.Contains(e.Type, "authentication")
}

// IsRateLimited reports whether the provider throttled the request.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
