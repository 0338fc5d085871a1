package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time check that OpenAIProvider implements ChatProvider.
var _ ChatProvider = (*OpenAIProvider)(nil)

// newOpenAITestServer creates an httptest server that responds with the given handler.
func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// newOpenAITestProvider creates an OpenAIProvider configured to use the test server.
func newOpenAITestProvider(t *testing.T, serverURL string) *OpenAIProvider {
	t.Helper()
	cfg := OpenAIConfig{
		APIKey:  "test-api-key",
		Model:   "gpt-4o-mini",
		BaseURL: serverURL,
	}
	return NewOpenAIProvider(cfg, 0.8, 2000, 10*time.Second)
}

func TestOpenAIProvider_Chat(t *testing.T) {
	t.Run("sends system prompt first and returns the first choice", func(t *testing.T) {
		var receivedReq chatRequest
		var receivedAuthHeader string
		var receivedPath string

		server := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
			receivedAuthHeader = r.Header.Get("Authorization")
			receivedPath = r.URL.Path

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &receivedReq))

			resp := chatResponse{
				ID:    "chatcmpl-abc123",
				Model: "gpt-4o-mini-2024-07-18",
				Choices: []chatChoice{
					{Message: chatMessage{Role: RoleAssistant, Content: "Jane studies graph learning."}, FinishReason: "stop"},
				},
				Usage: chatUsage{PromptTokens: 320, CompletionTokens: 12, TotalTokens: 332},
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		})

		provider := newOpenAITestProvider(t, server.URL)
		resp, err := provider.Chat(context.Background(), ChatRequest{
			SystemPrompt: "You are a recruitment assistant.",
			Messages: []Message{
				{Role: RoleUser, Content: "Who is Jane?"},
				{Role: RoleAssistant, Content: "A PhD candidate."},
				{Role: RoleUser, Content: "What does she study?"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "Jane studies graph learning.", resp.Content)
		assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
		assert.Equal(t, 320, resp.InputTokens)
		assert.Equal(t, 12, resp.OutputTokens)

		assert.Equal(t, "/chat/completions", receivedPath)
		assert.Equal(t, "Bearer test-api-key", receivedAuthHeader)
		assert.Equal(t, "gpt-4o-mini", receivedReq.Model)
		assert.InDelta(t, 0.8, receivedReq.Temperature, 1e-9)
		assert.Equal(t, 2000, receivedReq.MaxTokens)
		require.Len(t, receivedReq.Messages, 4)
		assert.Equal(t, RoleSystem, receivedReq.Messages[0].Role)
		assert.Equal(t, "You are a recruitment assistant.", receivedReq.Messages[0].Content)
		assert.Equal(t, RoleUser, receivedReq.Messages[1].Role)
		assert.Equal(t, RoleAssistant, receivedReq.Messages[2].Role)
		assert.Equal(t, "What does she study?", receivedReq.Messages[3].Content)
	})

	t.Run("omits system message when prompt is empty", func(t *testing.T) {
		var receivedReq chatRequest
		server := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &receivedReq)
			_ = json.NewEncoder(w).Encode(chatResponse{
				Choices: []chatChoice{{Message: chatMessage{Role: RoleAssistant, Content: "ok"}}},
			})
		})

		provider := newOpenAITestProvider(t, server.URL)
		resp, err := provider.Chat(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hello"}},
		})

		require.NoError(t, err)
		require.Len(t, receivedReq.Messages, 1)
		assert.Equal(t, RoleUser, receivedReq.Messages[0].Role)
		assert.Equal(t, "gpt-4o-mini", resp.Model, "falls back to the configured model")
	})
}

func TestOpenAIProvider_Chat_APIError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantType   string
		wantCode   string
		wantMsg    string
		wantAuth   bool
		wantLimit  bool
	}{
		{
			name:       "invalid api key",
			statusCode: http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			wantType:   "invalid_request_error",
			wantCode:   "invalid_api_key",
			wantMsg:    "Incorrect API key provided",
			wantAuth:   true,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			wantType:   "requests",
			wantCode:   "rate_limit_exceeded",
			wantMsg:    "Rate limit reached",
			wantLimit:  true,
		},
		{
			name:       "server error with plain body",
			statusCode: http.StatusInternalServerError,
			body:       "upstream exploded",
			wantMsg:    "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})

			provider := newOpenAITestProvider(t, server.URL)
			_, err := provider.Chat(context.Background(), ChatRequest{
				Messages: []Message{{Role: RoleUser, Content: "hi"}},
			})

			require.Error(t, err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "openai", apiErr.Provider)
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantAuth, apiErr.IsAuthError())
			assert.Equal(t, tt.wantLimit, apiErr.IsRateLimited())
			assert.Equal(t, int32(1), hits.Load(), "provider must not retry")
		})
	}
}

func TestOpenAIProvider_Chat_EmptyChoices(t *testing.T) {
	server := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{ID: "chatcmpl-empty"})
	})

	provider := newOpenAITestProvider(t, server.URL)
	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestOpenAIProvider_Chat_InvalidJSON(t *testing.T) {
	server := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	provider := newOpenAITestProvider(t, server.URL)
	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal response")
}

func TestOpenAIProvider_Chat_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := newOpenAITestProvider(t, url)
	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "network_error", apiErr.Type)
	assert.Zero(t, apiErr.StatusCode)
}

func TestOpenAIProvider_Chat_ContextCancelled(t *testing.T) {
	server := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	provider := newOpenAITestProvider(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Chat(ctx, ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
}

func TestOpenAIProvider_Provider(t *testing.T) {
	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "k"}, 0.5, 0, 0)
	assert.Equal(t, "openai", provider.Provider())
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "k"}, 0.5, 0, 0)

	assert.Equal(t, defaultOpenAIModel, provider.Model())
	assert.Equal(t, defaultOpenAIBaseURL, provider.baseURL)
	assert.Equal(t, defaultOpenAIMaxTokens, provider.maxTokens)
	assert.Equal(t, defaultTimeout, provider.httpClient.Timeout)
}

func TestNewOpenAIProvider_Custom(t *testing.T) {
	provider := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "k",
		Model:   "gpt-4o",
		BaseURL: "https://proxy.example.com/v1",
	}, 0.2, 512, 15*time.Second)

	assert.Equal(t, "gpt-4o", provider.Model())
	assert.Equal(t, "https://proxy.example.com/v1", provider.baseURL)
	assert.Equal(t, 512, provider.maxTokens)
	assert.InDelta(t, 0.2, provider.temperature, 1e-9)
	assert.Equal(t, 15*time.Second, provider.httpClient.Timeout)
}
