package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 2000
)

// AnthropicMessager is the subset of the Anthropic SDK client used by the
// provider.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicProvider implements ChatProvider using the Anthropic Messages API.
type AnthropicProvider struct {
	messages    AnthropicMessager
	model       string
	temperature float64
	maxTokens   int
}

// AnthropicConfig holds the parameters needed to create an Anthropic provider.
// This is defined in the llm package to avoid importing the config package.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string
	// Model is the model identifier (e.g., "claude-3-5-haiku-latest").
	Model string
	// BaseURL is the API base URL (empty means the SDK default).
	BaseURL string
}

// NewAnthropicProvider creates a new AnthropicProvider with the given
// configuration. The SDK's built-in retries are disabled so that each Chat
// call issues exactly one request.
func NewAnthropicProvider(cfg AnthropicConfig, temperature float64, maxTokens int, timeout time.Duration) *AnthropicProvider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return newAnthropicProvider(&client.Messages, cfg.Model, temperature, maxTokens)
}

func newAnthropicProvider(messages AnthropicMessager, model string, temperature float64, maxTokens int) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicProvider{
		messages:    messages,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Chat sends the conversation to the Messages API. System-role turns in
// req.Messages are appended to the system prompt since the API only accepts
// user and assistant turns.
func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var system []string
	if req.SystemPrompt != "" {
		system = append(system, req.SystemPrompt)
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(p.maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(p.temperature),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	resp, err := p.messages.New(ctx, params)
	if err != nil {
		return nil, toAnthropicAPIError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	model := string(resp.Model)
	if model == "" {
		model = p.model
	}

	return &ChatResponse{
		Content:      sb.String(),
		Model:        model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Provider returns the provider name.
func (p *AnthropicProvider) Provider() string {
	return "anthropic"
}

// Model returns the model identifier being used.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// toAnthropicAPIError converts an SDK error into an *APIError. Errors that
// carry no HTTP status are reported as network errors.
func toAnthropicAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("anthropic: %w", err)
	}

	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		apiErr := &APIError{
			Provider:   "anthropic",
			StatusCode: sdkErr.StatusCode,
			Message:    sdkErr.Error(),
		}
		switch sdkErr.StatusCode {
		case http.StatusUnauthorized:
			apiErr.Type = "authentication_error"
		case http.StatusTooManyRequests:
			apiErr.Type = "rate_limit_error"
		}
		return apiErr
	}

	return &APIError{
		Provider: "anthropic",
		Message:  err.Error(),
		Type:     "network_error",
	}
}
