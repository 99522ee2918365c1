package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(req openai.ChatCompletionRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAdapter(url string) *OpenRouterAdapter {
	cfg := DefaultConfig("test-key", "test/model")
	cfg.BaseURL = url
	cfg.Logger = logger.NewNop()
	return NewOpenRouterAdapter(cfg)
}

func TestChat(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newTestServer(t, func(req openai.ChatCompletionRequest) (int, any) {
		got = req
		return http.StatusOK, openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: "Opening it now <|action|>navigate(url=https://youtube.com)",
				},
			}},
		}
	})

	adapter := newTestAdapter(srv.URL)
	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: "be nice"},
			{Role: entity.RoleUser, Content: "open youtube"},
		},
		Temperature: 0.7,
		MaxTokens:   256,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	assert.Contains(t, resp.Message.Content, "<|action|>navigate")

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "open youtube", got.Messages[1].Content)
}

func TestChat_NoChoices(t *testing.T) {
	srv := newTestServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusOK, openai.ChatCompletionResponse{}
	})

	_, err := newTestAdapter(srv.URL).Chat(context.Background(), output.ChatRequest{})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestChat_APIError(t *testing.T) {
	srv := newTestServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"message": "invalid key", "type": "auth_error"},
		}
	})

	_, err := newTestAdapter(srv.URL).Chat(context.Background(), output.ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestConvertResponseMessage_DefaultsRole(t *testing.T) {
	msg := convertResponseMessage(openai.ChatCompletionMessage{Content: "hi"})
	assert.Equal(t, entity.RoleAssistant, msg.Role)
	assert.Equal(t, "hi", msg.Content)
}

func TestConvertMessages(t *testing.T) {
	result := convertMessages([]entity.Message{
		{Role: entity.RoleUser, Content: "Hello"},
		{Role: entity.RoleAssistant, Content: "Hi there"},
	})

	require.Len(t, result, 2)
	assert.Equal(t, "user", result[0].Role)
	assert.Equal(t, "Hello", result[0].Content)
	assert.Equal(t, "assistant", result[1].Role)
}
