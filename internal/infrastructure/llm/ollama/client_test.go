package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/ragline/ragline/internal/core/domain"
)

func TestEmbedQuery(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", nil))
	vector, err := embedder.EmbedQuery(context.Background(), "retry backoff")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Fatalf("unexpected vector %v", vector)
	}
	if gotBody["model"] != "nomic-embed-text" {
		t.Fatalf("expected the embedding model, got %v", gotBody["model"])
	}
}

func TestEmbedQueryEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", nil))
	_, err := embedder.EmbedQuery(context.Background(), "retry backoff")
	if !domain.IsKind(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("expected ErrEmbeddingFailure, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response": "  The breaker opens at half failures [1].\n",
		})
	}))
	defer server.Close()

	gateway := NewGateway(New(server.URL, "llama3", "nomic-embed-text", nil), rate.NewLimiter(rate.Inf, 1))
	answer, err := gateway.Generate(context.Background(), "prompt text", 250, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "The breaker opens at half failures [1]." {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}

	if gotBody["model"] != "llama3" {
		t.Fatalf("expected the generation model, got %v", gotBody["model"])
	}
	if gotBody["stream"] != false {
		t.Fatal("streaming must be disabled")
	}
	options, ok := gotBody["options"].(map[string]any)
	if !ok || options["num_predict"] != float64(250) {
		t.Fatalf("expected the token budget forwarded, got %v", gotBody["options"])
	}
}

func TestGenerateErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model 'llama3' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	gateway := NewGateway(New(server.URL, "llama3", "nomic-embed-text", nil), nil)
	_, err := gateway.Generate(context.Background(), "prompt", 100, 0.2)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected the upstream body surfaced, got %v", err)
	}
}

func TestGenerateRespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gateway := NewGateway(New("http://localhost:11434", "llama3", "nomic-embed-text", nil), rate.NewLimiter(rate.Limit(1), 1))
	if _, err := gateway.Generate(ctx, "prompt", 100, 0.2); err == nil {
		t.Fatal("expected a context error before any request")
	}
}

func TestClassifyOllamaError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"nil", nil, false, false},
		{"deadline", context.DeadlineExceeded, false, false},
		{"overloaded", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, true, true},
		{"bad_request", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
		{"unknown", errors.New("boom"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOllamaError(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("classifyOllamaError(%v) = %+v", tt.err, got)
			}
		})
	}
}
