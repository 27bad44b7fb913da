package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"ptcoach/pt-server/internal/metrics"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicGenerator_Generate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [{"type": "text", "text": "{\"ok\":true}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	metricsManager := metrics.NewTestManager()
	generator, err := NewAnthropicGenerator(AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, metricsManager)
	require.NoError(t, err)

	text, err := generator.Generate(context.Background(), Request{
		Operation: "chat",
		System:    "be brief",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "again"},
		},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)

	assert.Equal(t, "test-model", captured["model"])
	assert.EqualValues(t, 100, captured["max_tokens"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])
	assert.NotNil(t, captured["system"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterLLMCalls.WithLabelValues("chat", "success")))
}

func TestAnthropicGenerator_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	metricsManager := metrics.NewTestManager()
	generator, err := NewAnthropicGenerator(AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, metricsManager)
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(), Request{Operation: "chat", Messages: UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterLLMCalls.WithLabelValues("chat", "error")))
}

func TestNewAnthropicGenerator_RequiresConfig(t *testing.T) {
	_, err := NewAnthropicGenerator(AnthropicConfig{Model: "m"}, nil)
	assert.Error(t, err)
	_, err = NewAnthropicGenerator(AnthropicConfig{APIKey: "k"}, nil)
	assert.Error(t, err)
}
