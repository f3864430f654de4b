package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIEmbedderRequiresKeyOrURL(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIOptions{})
	assert.Error(t, err)

	e, err := NewOpenAIEmbedder(OpenAIOptions{BaseURL: "http://tei:8080/v1"})
	require.NoError(t, err)
	assert.EqualValues(t, "text-embedding-3-small", e.model)
}

func TestOpenAIEmbedderAgainstCompatibleServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), "path %s", r.URL.Path)

		var body struct {
			Input string `json:"input"`
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", body.Model)

		if body.Input == "fail" {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "sentence-transformers/all-MiniLM-L6-v2",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1.0]}],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIOptions{
		BaseURL: srv.URL + "/v1",
		Model:   "sentence-transformers/all-MiniLM-L6-v2",
	})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Vector{0.25, -0.5, 1.0}, vec)

	calls.Store(0)
	_, err = e.Embed(context.Background(), "fail")
	assert.Error(t, err)
	assert.EqualValues(t, 1, calls.Load(), "inference failures must not be retried")
}

func TestOpenAIEmbedderNil(t *testing.T) {
	var e *OpenAIEmbedder
	_, err := e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}
