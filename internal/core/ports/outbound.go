package ports

import (
	"context"
	"time"

	"github.com/ragline/ragline/internal/core/domain"
)

// VectorIndex answers near-vector queries against an external dense index.
// Returned candidates carry SemanticScore in [0,1]; ranks are assigned by
// the caller from list position.
type VectorIndex interface {
	NearVector(ctx context.Context, vector []float32, certainty float64, limit int, filter domain.SearchFilter) ([]domain.Candidate, error)
}

// KeywordIndex answers BM25-style queries against an external inverted
// index. Returned KeywordScore values are unbounded, >= 0.
type KeywordIndex interface {
	BM25Query(ctx context.Context, query string, limit int, filter domain.SearchFilter) ([]domain.Candidate, error)
}

// Embedder builds the query vector for semantic retrieval.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SpellChecker is an optional query-processing collaborator. A failing
// implementation degrades that stage, never the request.
type SpellChecker interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Thesaurus is an optional synonym-expansion collaborator.
type Thesaurus interface {
	Expand(ctx context.Context, text string) (string, error)
}

// LLMGateway produces raw answer text. This is the single long-latency
// suspension point of the pipeline; implementations must honor ctx.
type LLMGateway interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// ResultCache is the read-through TTL cache for fused search responses.
// Gets on one key must not block behind writes to unrelated keys;
// duplicate concurrent writes to the same key are tolerated.
type ResultCache interface {
	Get(key string) (*domain.SearchResponse, bool)
	Set(key string, response *domain.SearchResponse, ttl time.Duration)
	Invalidate(key string)
	Purge()
}
