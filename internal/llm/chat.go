// Package llm provides chat completion clients used to answer free-form
// questions about a single candidate.
package llm

import (
	"context"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a conversation to complete. SystemPrompt is sent ahead of
// Messages using whatever mechanism the provider offers for system text.
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// ChatProvider completes a conversation with a single request. Providers
// never retry; failures are returned to the caller as is.
type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Provider returns the name of the LLM provider.
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
