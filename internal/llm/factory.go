package llm

import (
	"fmt"
	"strings"
	"time"
)

// FactoryConfig holds the parameters needed to create a ChatProvider.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("openai" or "anthropic").
	Provider string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxTokens caps the length of each reply.
	MaxTokens int
	// Timeout is the timeout for a single chat request.
	Timeout time.Duration
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewChatProvider creates a ChatProvider based on the configuration.
// Supports "openai" and "anthropic" providers. Returns an error for unsupported
// or empty provider values.
func NewChatProvider(cfg FactoryConfig) (ChatProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
