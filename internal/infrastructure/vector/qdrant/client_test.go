package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragline/ragline/internal/core/domain"
)

func TestNearVectorParsesResponse(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.91,
					"payload": map[string]any{
						"chunk_id":    "chunk-1",
						"doc_id":      "doc-1",
						"chunk_index": 3,
						"text":        "retry backoff doubles each attempt",
					},
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "chunks", nil)
	candidates, err := client.NearVector(context.Background(), []float32{0.1, 0.2}, 0.3, 10, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/collections/chunks/points/search" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotBody["score_threshold"] != 0.3 {
		t.Fatalf("expected the certainty floor forwarded, got %v", gotBody["score_threshold"])
	}
	if _, hasFilter := gotBody["filter"]; hasFilter {
		t.Fatal("empty filter must not be sent")
	}

	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ChunkID != "chunk-1" || c.DocumentID != "doc-1" || c.ChunkIndex != 3 {
		t.Fatalf("unexpected candidate identity %+v", c)
	}
	if c.SemanticScore != 0.91 {
		t.Fatalf("expected the dense score on SemanticScore, got %v", c.SemanticScore)
	}
	if c.KeywordScore != 0 {
		t.Fatalf("dense retrieval must not set the keyword score, got %v", c.KeywordScore)
	}
}

func TestNearVectorEmptyVectorRejected(t *testing.T) {
	client := New("http://localhost:6333", "chunks", nil)
	if _, err := client.NearVector(context.Background(), nil, 0.3, 10, domain.SearchFilter{}); err == nil {
		t.Fatal("expected an error for an empty query vector")
	}
}

func TestBM25QueryParsesResponse(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{
						"score": 7.4,
						"payload": map[string]any{
							"chunk_id": "chunk-2",
							"doc_id":   "doc-1",
							"text":     "circuit breaker opens on failure ratio",
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "chunks", nil)
	candidates, err := client.BM25Query(context.Background(), "circuit breaker", 5, domain.SearchFilter{DocumentIDs: []string{"doc-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["using"] != sparseVectorName {
		t.Fatalf("expected the sparse vector name, got %v", gotBody["using"])
	}
	if _, hasFilter := gotBody["filter"]; !hasFilter {
		t.Fatal("document filter must be forwarded")
	}
	if len(candidates) != 1 || candidates[0].KeywordScore != 7.4 {
		t.Fatalf("unexpected candidates %+v", candidates)
	}
	if candidates[0].SemanticScore != 0 {
		t.Fatalf("keyword retrieval must not set the semantic score, got %v", candidates[0].SemanticScore)
	}
}

func TestBM25QueryEmptyAfterTokenization(t *testing.T) {
	client := New("http://localhost:6333", "chunks", nil)
	candidates, err := client.BM25Query(context.Background(), "!!! ???", 5, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected no candidates without sending a request, got %+v", candidates)
	}
}

func TestPostJSONIncludesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":{"error":"collection not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "missing", nil)
	_, err := client.NearVector(context.Background(), []float32{0.1}, 0.3, 10, domain.SearchFilter{})
	if err == nil {
		t.Fatal("expected an error")
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected an HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if statusErr.Body == "" {
		t.Fatal("expected the response body captured")
	}
}

func TestClassifyQdrantError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"nil", nil, false, false},
		{"context_canceled", context.Canceled, false, false},
		{"server_error", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, true, true},
		{"client_error", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
		{"index_unavailable", domain.WrapError(domain.ErrIndexUnavailable, "near vector", errors.New("connection refused")), true, true},
		{"unknown", errors.New("boom"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyQdrantError(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("classifyQdrantError(%v) = %+v", tt.err, got)
			}
		})
	}
}

func TestFilterClause(t *testing.T) {
	if got := filterClause(domain.SearchFilter{}); got != nil {
		t.Fatalf("empty filter must yield nil, got %v", got)
	}

	clause := filterClause(domain.SearchFilter{
		DocumentIDs: []string{"doc-1"},
		ChunkIDs:    []string{"chunk-1", "chunk-2"},
	})
	must, ok := clause["must"].([]map[string]any)
	if !ok || len(must) != 2 {
		t.Fatalf("expected two must conditions, got %v", clause)
	}
	if must[0]["key"] != "doc_id" || must[1]["key"] != "chunk_id" {
		t.Fatalf("unexpected condition keys %v", must)
	}
}
