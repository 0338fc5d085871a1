package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		cfg := DefaultLoggingConfig()
		logger := NewLogger(cfg)

		// Logger should be valid (non-zero)
		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with debug level", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "stdout",
		}
		logger := NewLogger(cfg)

		// Debug level should be enabled
		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with console format", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with pretty format", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "info",
			Format: "pretty",
			Output: "stderr",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"FATAL", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"PANIC", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func decodeLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	return logEntry
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComponent(logger, "search-service")
	enriched.Info().Msg("test message")

	logEntry := decodeLogEntry(t, &buf)
	assert.Equal(t, "search-service", logEntry["component"])
	assert.Equal(t, "test message", logEntry["message"])
}

func TestWithCandidateContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithCandidateContext(logger, "cand-42")
	enriched.Info().Msg("candidate loaded")

	assert.Equal(t, "cand-42", decodeLogEntry(t, &buf)["candidate_id"])
}

func TestWithRequestContext(t *testing.T) {
	t.Run("adds ids present in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithCorrelationID(ctx, "corr-1")
		enriched := WithRequestContext(ctx, logger)
		enriched.Info().Msg("handled")

		logEntry := decodeLogEntry(t, &buf)
		assert.Equal(t, "req-1", logEntry["request_id"])
		assert.Equal(t, "corr-1", logEntry["correlation_id"])
	})

	t.Run("omits missing ids", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		enriched := WithRequestContext(context.Background(), logger)
		enriched.Info().Msg("handled")

		logEntry := decodeLogEntry(t, &buf)
		assert.NotContains(t, logEntry, "request_id")
		assert.NotContains(t, logEntry, "correlation_id")
	})
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComponent(logger, "chat-service")
	enriched = WithCandidateContext(enriched, "cand-1")
	enriched = WithRequestContext(WithCorrelationID(context.Background(), "corr-9"), enriched)
	enriched.Info().Msg("chained context")

	logEntry := decodeLogEntry(t, &buf)
	assert.Equal(t, "chat-service", logEntry["component"])
	assert.Equal(t, "cand-1", logEntry["candidate_id"])
	assert.Equal(t, "corr-9", logEntry["correlation_id"])
}
