package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var openAIInfo = Info{ID: "openai", Label: "OpenAI", Name: "OpenAI gpt-3.5-turbo", MaxTokens: 4000}

func completionServer(t *testing.T, handle func(key string, body map[string]any) (int, string)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		status, payload := handle(r.Header.Get("Authorization"), body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

const completion = `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":30,"completion_tokens":12,"total_tokens":42}}`

const rateLimited = `{"error":{"message":"rate limited","type":"requests"}}`

func TestOpenAIChat(t *testing.T) {
	srv, calls := completionServer(t, func(key string, body map[string]any) (int, string) {
		assert.Equal(t, "Bearer primary", key)
		assert.Equal(t, "gpt-3.5-turbo", body["model"])
		assert.EqualValues(t, 1000, body["max_tokens"])
		messages, _ := body["messages"].([]any)
		if assert.Len(t, messages, 2) {
			system, _ := messages[0].(map[string]any)
			user, _ := messages[1].(map[string]any)
			assert.Equal(t, "system", system["role"])
			assert.Equal(t, "be brief", system["content"])
			assert.Equal(t, "user", user["role"])
			assert.Equal(t, "hello", user["content"])
		}
		return http.StatusOK, completion
	})

	c := NewOpenAIClient(OpenAIConfig{
		Info: openAIInfo, APIKey: "primary", BackupAPIKey: "backup",
		Model: "gpt-3.5-turbo", BaseURL: srv.URL + "/", SystemPrompt: "be brief",
	}, zerolog.Nop())

	result, err := c.Chat(context.Background(), &ChatRequest{Message: "hello", MaxTokens: 1000, Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", result.Text)
	assert.Equal(t, "OpenAI gpt-3.5-turbo", result.ModelUsed)
	require.NotNil(t, result.TokensUsed)
	assert.Equal(t, 42, *result.TokensUsed)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenAIChatFallsBackToBackupKey(t *testing.T) {
	srv, calls := completionServer(t, func(key string, _ map[string]any) (int, string) {
		if key == "Bearer primary" {
			return http.StatusTooManyRequests, rateLimited
		}
		return http.StatusOK, completion
	})

	c := NewOpenAIClient(OpenAIConfig{Info: openAIInfo, APIKey: "primary", BackupAPIKey: "backup", Model: "gpt-3.5-turbo", BaseURL: srv.URL}, zerolog.Nop())

	result, err := c.Chat(context.Background(), &ChatRequest{Message: "hello", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "OpenAI gpt-3.5-turbo (backup)", result.ModelUsed)
	assert.EqualValues(t, 2, calls.Load())
}

func TestOpenAIChatReturnsPrimaryErrorWhenBackupFails(t *testing.T) {
	srv, calls := completionServer(t, func(key string, _ map[string]any) (int, string) {
		if key == "Bearer primary" {
			return http.StatusTooManyRequests, rateLimited
		}
		return http.StatusUnauthorized, `{"error":{"message":"bad key"}}`
	})

	c := NewOpenAIClient(OpenAIConfig{Info: openAIInfo, APIKey: "primary", BackupAPIKey: "backup", Model: "gpt-3.5-turbo", BaseURL: srv.URL}, zerolog.Nop())

	_, err := c.Chat(context.Background(), &ChatRequest{Message: "hello", MaxTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.EqualValues(t, 2, calls.Load())
}

func TestOpenAIChatWithoutBackupTriesOnce(t *testing.T) {
	srv, calls := completionServer(t, func(string, map[string]any) (int, string) {
		return http.StatusInternalServerError, `{"error":{"message":"boom"}}`
	})

	c := NewOpenAIClient(OpenAIConfig{Info: openAIInfo, APIKey: "primary", Model: "gpt-3.5-turbo", BaseURL: srv.URL}, zerolog.Nop())
	assert.False(t, c.HasBackup())

	_, err := c.Chat(context.Background(), &ChatRequest{Message: "hello", MaxTokens: 10})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenAIChatEmptyCompletion(t *testing.T) {
	srv, _ := completionServer(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"  "}}]}`
	})

	c := NewOpenAIClient(OpenAIConfig{Info: openAIInfo, APIKey: "primary", Model: "gpt-3.5-turbo", BaseURL: srv.URL}, zerolog.Nop())

	_, err := c.Chat(context.Background(), &ChatRequest{Message: "hello", MaxTokens: 10})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIUnavailableWithoutKey(t *testing.T) {
	c := NewOpenAIClient(OpenAIConfig{Info: openAIInfo, BackupAPIKey: "backup"}, zerolog.Nop())

	assert.False(t, c.Available())
	_, err := c.Chat(context.Background(), &ChatRequest{Message: "hello"})
	assert.EqualError(t, err, "OpenAI API key is not configured")
}
