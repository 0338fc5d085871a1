package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/llm"
	"github.com/helixir/phd-talent-service/internal/observability"
)

const (
	maxChatMessages  = 50
	emptyChatReply   = "Sorry, I could not generate a response."
	invalidKeyReply  = "Invalid API key. Please check the chat provider API key configured for this service."
	failedReplyLabel = "Failed to generate response"
)

// ChatReply is the outcome of one chat turn. When the provider fails, Reply
// carries a user-facing message and Error the provider's error text.
type ChatReply struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// Chat answers the conversation about the candidate with candidateID. The
// candidate's profile is sent as the system prompt and the provider is called
// exactly once. Provider failures are returned as a reply, not as an error.
func (s *TalentService) Chat(ctx context.Context, candidateID string, messages []llm.Message) (*ChatReply, error) {
	if s.chat == nil {
		return nil, fmt.Errorf("chat is not configured: %w", domain.ErrNotConfigured)
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}

	candidate, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	logger := observability.WithCandidateContext(observability.WithRequestContext(ctx, s.logger), candidateID)
	provider := s.chat.Provider()

	start := time.Now()
	resp, err := s.chat.Chat(ctx, llm.ChatRequest{
		SystemPrompt: llm.BuildCandidateSystemPrompt(*candidate),
		Messages:     messages,
	})
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RecordChatRequest(provider, "error", elapsed.Seconds())
		logger.Warn().Err(err).Str("provider", provider).Dur("duration", elapsed).Msg("chat completion failed")
		return &ChatReply{Reply: chatFailureReply(err), Error: err.Error()}, nil
	}

	s.metrics.RecordChatRequest(provider, "success", elapsed.Seconds())
	logger.Debug().
		Str("provider", provider).
		Str("model", resp.Model).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Dur("duration", elapsed).
		Msg("chat completion succeeded")

	reply := resp.Content
	if strings.TrimSpace(reply) == "" {
		reply = emptyChatReply
	}
	return &ChatReply{Reply: reply}, nil
}

func chatFailureReply(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.IsAuthError() {
		return invalidKeyReply
	}
	return fmt.Sprintf("%s: %s", failedReplyLabel, err.Error())
}

func validateMessages(messages []llm.Message) error {
	if len(messages) == 0 {
		return domain.NewValidationError("messages", "at least one message is required")
	}
	if len(messages) > maxChatMessages {
		return domain.NewValidationError("messages", fmt.Sprintf("at most %d messages are allowed", maxChatMessages))
	}
	for i, m := range messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return domain.NewValidationError("messages", fmt.Sprintf("message %d has unsupported role %q", i, m.Role))
		}
		if strings.TrimSpace(m.Content) == "" {
			return domain.NewValidationError("messages", fmt.Sprintf("message %d has empty content", i))
		}
	}
	if messages[len(messages)-1].Role != llm.RoleUser {
		return domain.NewValidationError("messages", "the last message must come from the user")
	}
	return nil
}
