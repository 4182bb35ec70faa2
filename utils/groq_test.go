package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short stays whole", "hello", 10, "hello"},
		{"ascii cut", "hello world", 5, "hello..."},
		{"exact length stays whole", "hello", 5, "hello"},
		// "héllo" is h(1) é(2) l l o; a cut at byte 2 lands mid-é and must
		// back up to the boundary.
		{"multibyte boundary", "héllo", 2, "h..."},
		{"multibyte kept when it fits", "héllo", 3, "hé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateForLog(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestGroqCreateCompletionSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"a\":1}  "}}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewGroqClient("key-1", server.URL)

	text, err := client.CreateCompletion(context.Background(), "model-a", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text, "completion text is trimmed")
}

func TestGroqCreateCompletionRelaysProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"The model has been decommissioned","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(server.Close)

	client := NewGroqClient("key-1", server.URL)

	_, err := client.CreateCompletion(context.Background(), "model-a", "prompt")
	require.Error(t, err)
	// The provider's message survives verbatim so the fallback loop can
	// classify it.
	assert.True(t, strings.Contains(err.Error(), "decommissioned"))
	assert.Equal(t, failureDeprecated, classifyFailure(err))
}

func TestGroqCreateCompletionEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(server.Close)

	client := NewGroqClient("key-1", server.URL)

	_, err := client.CreateCompletion(context.Background(), "model-a", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
