// Package qdrant adapts a qdrant collection to the pipeline's vector and
// keyword index ports. Dense queries hit the similarity search endpoint;
// keyword queries run BM25-style over the collection's sparse vectors.
package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ragline/ragline/internal/core/domain"
	"github.com/ragline/ragline/internal/infrastructure/resilience"
)

const sparseVectorName = "lexical"

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// NearVector runs a dense similarity query bounded by the certainty
// floor. Returned similarities are already in [0,1] (cosine).
func (c *Client) NearVector(ctx context.Context, vector []float32, certainty float64, limit int, filter domain.SearchFilter) ([]domain.Candidate, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("near vector: empty query vector")
	}

	reqBody := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": certainty,
		"with_payload":    true,
	}
	if clause := filterClause(filter); clause != nil {
		reqBody["filter"] = clause
	}

	var searchResp struct {
		Result []scoredPoint `json:"result"`
	}
	err := c.execute(ctx, "qdrant_near_vector", func(ctx context.Context) error {
		return c.postJSON(ctx, "/points/search", reqBody, &searchResp, "near vector")
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(searchResp.Result))
	for _, p := range searchResp.Result {
		candidate := p.toCandidate()
		candidate.SemanticScore = p.Score
		out = append(out, candidate)
	}
	return out, nil
}

// BM25Query encodes the query as a sparse vector and searches the
// collection's lexical vectors. Scores are unbounded, >= 0.
func (c *Client) BM25Query(ctx context.Context, query string, limit int, filter domain.SearchFilter) ([]domain.Candidate, error) {
	sparse := encodeSparseQuery(query)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"query":        sparse,
		"using":        sparseVectorName,
		"limit":        limit,
		"with_payload": true,
	}
	if clause := filterClause(filter); clause != nil {
		reqBody["filter"] = clause
	}

	var queryResp struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	err := c.execute(ctx, "qdrant_bm25_query", func(ctx context.Context) error {
		return c.postJSON(ctx, "/points/query", reqBody, &queryResp, "bm25 query")
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(queryResp.Result.Points))
	for _, p := range queryResp.Result.Points {
		candidate := p.toCandidate()
		candidate.KeywordScore = p.Score
		out = append(out, candidate)
	}
	return out, nil
}

type scoredPoint struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (p scoredPoint) toCandidate() domain.Candidate {
	return domain.Candidate{
		ChunkID:    payloadString(p.Payload, "chunk_id"),
		DocumentID: payloadString(p.Payload, "doc_id"),
		ChunkIndex: payloadInt(p.Payload, "chunk_index"),
		Content:    payloadString(p.Payload, "text"),
	}
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyQdrantError)
}

func filterClause(filter domain.SearchFilter) map[string]any {
	must := make([]map[string]any, 0, 2)
	if len(filter.DocumentIDs) > 0 {
		must = append(must, map[string]any{
			"key":   "doc_id",
			"match": map[string]any{"any": filter.DocumentIDs},
		})
	}
	if len(filter.ChunkIDs) > 0 {
		must = append(must, map[string]any{
			"key":   "chunk_id",
			"match": map[string]any{"any": filter.ChunkIDs},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
