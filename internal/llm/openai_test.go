package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	t.Run("sends messages and returns first choice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

			var body struct {
				Model       string  `json:"model"`
				Temperature float32 `json:"temperature"`
				MaxTokens   int     `json:"max_tokens"`
				Messages    []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-4o-mini", body.Model)
			assert.InDelta(t, 0.3, body.Temperature, 0.001)
			assert.Equal(t, 2000, body.MaxTokens)
			require.Len(t, body.Messages, 2)
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "분석해줘", body.Messages[1].Content)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"model": "gpt-4o-mini",
				"choices": [
					{"index": 0, "message": {"role": "assistant", "content": "안녕~"}, "finish_reason": "stop"}
				]
			}`))
		}))
		defer server.Close()

		client := NewOpenAIClient("test-api-key", server.URL+"/")
		text, err := client.Complete(context.Background(), Request{
			Model: "gpt-4o-mini",
			Messages: []Message{
				{Role: RoleSystem, Content: "you are an analyst"},
				{Role: RoleUser, Content: "분석해줘"},
			},
			Temperature: 0.3,
			MaxTokens:   2000,
		})

		require.NoError(t, err)
		assert.Equal(t, "안녕~", text)
	})

	t.Run("returns error on API failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
		}))
		defer server.Close()

		client := NewOpenAIClient("bad-key", server.URL)
		_, err := client.Complete(context.Background(), Request{Model: "gpt-4o-mini"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "chat completion failed")
	})

	t.Run("returns error when no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
		}))
		defer server.Close()

		client := NewOpenAIClient("test-api-key", server.URL)
		_, err := client.Complete(context.Background(), Request{Model: "gpt-4o-mini"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}
