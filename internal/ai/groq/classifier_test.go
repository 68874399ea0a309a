package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClassifyTokenMeme(t *testing.T) {
	srv := chatServer(t, `{"is_meme": true, "confidence": 88, "reasoning": "dog themed community token"}`, http.StatusOK)
	defer srv.Close()

	c := NewGroqClassifier("test-key", srv.URL, "")
	verdict, err := c.ClassifyToken(context.Background(), "WOOF", "Woof Coin", "0x1")
	require.NoError(t, err)
	assert.True(t, verdict.IsMeme)
	assert.Equal(t, 88, verdict.Confidence)
	assert.NotEmpty(t, verdict.Reasoning)
}

func TestClassifyTokenSerious(t *testing.T) {
	srv := chatServer(t, `{"is_meme": false, "confidence": 92, "reasoning": "lending protocol governance token"}`, http.StatusOK)
	defer srv.Close()

	c := NewGroqClassifier("test-key", srv.URL, "custom-model")
	verdict, err := c.ClassifyToken(context.Background(), "LEND", "Lend Protocol", "0x2")
	require.NoError(t, err)
	assert.False(t, verdict.IsMeme)
}

func TestClassifyTokenMalformedJSON(t *testing.T) {
	srv := chatServer(t, `probably a meme, hard to say`, http.StatusOK)
	defer srv.Close()

	c := NewGroqClassifier("test-key", srv.URL, "")
	_, err := c.ClassifyToken(context.Background(), "X", "X", "0x3")
	assert.Error(t, err)
}

func TestClassifyTokenConfidenceOutOfRange(t *testing.T) {
	srv := chatServer(t, `{"is_meme": true, "confidence": 400, "reasoning": "sure"}`, http.StatusOK)
	defer srv.Close()

	c := NewGroqClassifier("test-key", srv.URL, "")
	_, err := c.ClassifyToken(context.Background(), "X", "X", "0x3")
	assert.Error(t, err)
}

func TestClassifyTokenAPIError(t *testing.T) {
	srv := chatServer(t, "", http.StatusTooManyRequests)
	defer srv.Close()

	c := NewGroqClassifier("test-key", srv.URL, "")
	_, err := c.ClassifyToken(context.Background(), "X", "X", "0x3")
	assert.Error(t, err)
}
