package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProdigyRahul/Codojo/internal/port"
)

// fakeEmbeddingServer mimics the OpenAI embeddings endpoint with a
// deterministic 3-dimensional vector, counting requests it served.
func fakeEmbeddingServer(t *testing.T, counter *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		resp := map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float64{0.1, 0.2, 0.3}},
			},
			"model": "test-model",
			"usage": map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Embed(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	p := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		EmbeddingModel: "test-model",
	})

	vec, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, int64(1), counter.Load())
}

func TestOpenAIProvider_Embed_RateLimitedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{APIKey: "k", BaseURL: srv.URL + "/v1", EmbeddingModel: "m"})

	_, err := p.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrRateLimited)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)

		resp := map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-chat",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]string{"role": "assistant", "content": "two files changed"},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{APIKey: "k", BaseURL: srv.URL + "/v1", ChatModel: "test-chat"})

	out, err := p.Complete(context.Background(), "you summarize diffs", "diff text")
	require.NoError(t, err)
	assert.Equal(t, "two files changed", out)
}

func TestOpenAIProvider_CompleteStream_DeliversDeltasThenCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Hel", "lo, ", " world"} {
			payload, _ := json.Marshal(map[string]interface{}{
				"id":     "chatcmpl-1",
				"object": "chat.completion.chunk",
				"model":  "test-chat",
				"choices": []map[string]interface{}{
					{"index": 0, "delta": map[string]string{"content": chunk}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{APIKey: "k", BaseURL: srv.URL + "/v1", ChatModel: "test-chat"})

	ch, err := p.CompleteStream(context.Background(), "sys", "user")
	require.NoError(t, err)

	var got []string
	for delta := range ch {
		require.NoError(t, delta.Err)
		got = append(got, delta.Content)
	}
	assert.Equal(t, []string{"Hel", "lo, ", " world"}, got)
}

func TestOpenAIProvider_CompleteStream_MidStreamFailureIsTerminalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		payload, _ := json.Marshal(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion.chunk",
			"model":  "test-chat",
			"choices": []map[string]interface{}{
				{"index": 0, "delta": map[string]string{"content": "partial"}},
			},
		})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		// Malformed frame, then the connection drops without [DONE].
		fmt.Fprint(w, "data: {not json\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{APIKey: "k", BaseURL: srv.URL + "/v1", ChatModel: "test-chat"})

	ch, err := p.CompleteStream(context.Background(), "sys", "user")
	require.NoError(t, err)

	var contents []string
	var terminal error
	for delta := range ch {
		if delta.Err != nil {
			terminal = delta.Err
			continue
		}
		contents = append(contents, delta.Content)
	}

	assert.Equal(t, []string{"partial"}, contents)
	require.Error(t, terminal, "mid-stream failure must not look like normal completion")
}
