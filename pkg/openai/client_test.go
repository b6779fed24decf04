package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven/pkg/session"
)

func TestNewClient_KeyParsing(t *testing.T) {
	c := NewClient("key1, key2 ,,key3", 0.8, 1.0, nil)
	require.Len(t, c.keys, 3)
	assert.Equal(t, "key1", c.keys[0].Key)
	assert.Equal(t, "key2", c.keys[1].Key)
	assert.Equal(t, "key3", c.keys[2].Key)
	assert.Equal(t, DefaultModels, c.models)

	empty := NewClient("", 0.8, 1.0, nil)
	assert.Empty(t, empty.keys)
}

func TestGetBestKey_LeastFailuresFirst(t *testing.T) {
	c := NewClient("key1,key2", 0.8, 1.0, nil)

	best := c.getBestKey()
	require.NotNil(t, best)
	assert.Equal(t, "key1", best.Key)

	c.recordFailure(c.keys[0])
	assert.Equal(t, "key2", c.getBestKey().Key)

	// Success decays the failure count back down.
	c.recordSuccess(c.keys[0])
	assert.Equal(t, "key1", c.getBestKey().Key)
}

func TestIsRateLimitOrAuthError(t *testing.T) {
	assert.True(t, isRateLimitOrAuthError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, isRateLimitOrAuthError(errors.New("401 unauthorized")))
	assert.True(t, isRateLimitOrAuthError(errors.New("rate limit exceeded")))
	assert.False(t, isRateLimitOrAuthError(errors.New("connection refused")))
	assert.False(t, isRateLimitOrAuthError(errors.New("HTTP 500 Internal Server Error")))
}

func TestChatCompletion_NoKeys(t *testing.T) {
	c := NewClient("", 0.8, 1.0, nil)
	_, err := c.ChatCompletion(context.Background(), []session.Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestChatCompletion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "  hello there  "}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", 0.8, 1.0, nil)
	c.SetBaseURL(srv.URL)

	reply, err := c.ChatCompletion(context.Background(), []session.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply, "replies are trimmed")
}

func TestChatCompletion_AllModelsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "bad request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("test-key", 0.8, 1.0, []ModelConfig{{ID: "model-a", MaxTokens: 100}})
	c.SetBaseURL(srv.URL)

	_, err := c.ChatCompletion(context.Background(), []session.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all models exhausted")
}
