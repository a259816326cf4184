package ports

import (
	"context"

	"github.com/ragline/ragline/internal/core/domain"
)

// SearchService is the inbound contract for hybrid retrieval.
type SearchService interface {
	Search(ctx context.Context, query string, cfg domain.SearchConfig) (*domain.SearchResponse, error)
}

// AnswerService is the inbound contract for cited answer generation.
// Generate never fails mid-pipeline: any stage failure after config
// validation degrades into a fallback GenerationResponse.
type AnswerService interface {
	Generate(ctx context.Context, query string, cfg domain.SearchConfig) (*domain.GenerationResponse, error)
}
