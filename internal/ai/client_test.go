package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCompletionServer(t *testing.T, reply string, choices bool) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []any{},
		}
		if choices {
			resp["choices"] = []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Complete(t *testing.T) {
	server := setupCompletionServer(t, `[{"label":"1 Main St"}]`, true)
	c := NewClient("test-key", "test-model", server.URL+"/v1")

	reply, err := c.Complete(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `[{"label":"1 Main St"}]`, reply)
}

func TestClient_Complete_NoChoices(t *testing.T) {
	server := setupCompletionServer(t, "", false)
	c := NewClient("test-key", "test-model", server.URL+"/v1")

	_, err := c.Complete(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestClient_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	c := NewClient("test-key", "test-model", server.URL+"/v1")
	_, err := c.Complete(context.Background(), "system", "prompt")
	assert.Error(t, err)
}
