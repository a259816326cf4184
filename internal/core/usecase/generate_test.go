package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ragline/ragline/internal/core/domain"
)

type searchServiceFake struct {
	response *domain.SearchResponse
	err      error
}

func (f *searchServiceFake) Search(_ context.Context, _ string, _ domain.SearchConfig) (*domain.SearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type gatewayFake struct {
	answer string
	err    error
	prompt string
}

func (f *gatewayFake) Generate(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func generationSearchResponse() *domain.SearchResponse {
	return &domain.SearchResponse{
		RequestID: "search-1",
		Results: []domain.SearchResult{
			{
				Candidate: domain.Candidate{
					ChunkID:    "chunk-1",
					DocumentID: "doc-1",
					Content:    "the breaker opens after half of the recent requests fail",
				},
				HybridScore: 0.9,
				Rank:        1,
			},
		},
		StrategyUsed:     domain.StrategyHybrid,
		AverageRelevance: 0.9,
	}
}

func TestGenerateCitedAnswer(t *testing.T) {
	gateway := &gatewayFake{
		answer: "The breaker opens after half of the recent requests fail [1].",
	}
	uc := NewAnswerUseCase(&searchServiceFake{response: generationSearchResponse()}, gateway, nil, nil)

	resp, err := uc.Generate(context.Background(), "when does the breaker open", domain.DefaultSearchConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.State != domain.StateComplete {
		t.Fatalf("expected complete state, got %s", resp.State)
	}
	if !resp.HasCitations || !resp.CitationsVerified {
		t.Fatalf("expected a verified citation, got %+v", resp)
	}
	if resp.CitationAccuracy != 1.0 {
		t.Fatalf("expected full citation accuracy, got %v", resp.CitationAccuracy)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].ChunkID != "chunk-1" {
		t.Fatalf("unexpected citations %+v", resp.Citations)
	}
	if resp.QualityLevel != domain.QualityGood {
		t.Fatalf("expected GOOD, got %s", resp.QualityLevel)
	}
	if resp.ConfidenceScore < 0.6 {
		t.Fatalf("expected confidence above the GOOD floor, got %v", resp.ConfidenceScore)
	}
	if resp.AnswerLength != len(gateway.answer) {
		t.Fatalf("answer length mismatch: %d vs %d", resp.AnswerLength, len(gateway.answer))
	}
}

func TestGeneratePromptLayout(t *testing.T) {
	gateway := &gatewayFake{answer: "ok"}
	uc := NewAnswerUseCase(&searchServiceFake{response: generationSearchResponse()}, gateway, nil, nil)

	if _, err := uc.Generate(context.Background(), "when does the breaker open", domain.DefaultSearchConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gateway.prompt, "[1] document=doc-1 chunk=chunk-1") {
		t.Fatalf("expected a numbered context block, got:\n%s", gateway.prompt)
	}
	if !strings.Contains(gateway.prompt, "Cite sources as [n]") {
		t.Fatalf("expected the numbered citation directive, got:\n%s", gateway.prompt)
	}
	if !strings.HasSuffix(strings.TrimSpace(gateway.prompt), "when does the breaker open") {
		t.Fatalf("question must come last, got:\n%s", gateway.prompt)
	}
}

func TestGenerateGatewayFailureFallsBack(t *testing.T) {
	gateway := &gatewayFake{err: errors.New("model overloaded")}
	uc := NewAnswerUseCase(&searchServiceFake{response: generationSearchResponse()}, gateway, nil, nil)

	resp, err := uc.Generate(context.Background(), "when does the breaker open", domain.DefaultSearchConfig())
	if err != nil {
		t.Fatalf("gateway failure must degrade, not error: %v", err)
	}
	if resp.State != domain.StateFailedFallback {
		t.Fatalf("expected the fallback terminal state, got %s", resp.State)
	}
	if resp.QualityLevel != domain.QualityPoor || resp.ConfidenceScore != 0 {
		t.Fatalf("fallback must score POOR with zero confidence, got %+v", resp)
	}
	if len(resp.Citations) != 0 {
		t.Fatalf("fallback must carry no citations, got %d", len(resp.Citations))
	}
	if resp.Answer == "" {
		t.Fatal("fallback must still answer")
	}
}

func TestGenerateEmptyRetrievalStillAnswers(t *testing.T) {
	gateway := &gatewayFake{answer: "The sources do not contain information about this topic, so nothing can be confirmed."}
	empty := &domain.SearchResponse{RequestID: "search-2", StrategyUsed: domain.StrategyHybrid}
	uc := NewAnswerUseCase(&searchServiceFake{response: empty}, gateway, nil, nil)

	resp, err := uc.Generate(context.Background(), "unknown topic", domain.DefaultSearchConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gateway.prompt, "(no sources available)") {
		t.Fatalf("expected the empty-context placeholder, got:\n%s", gateway.prompt)
	}
	if resp.State != domain.StateComplete || resp.HasCitations {
		t.Fatalf("expected a complete, uncited response, got %+v", resp)
	}
	if resp.CitationAccuracy != 0 {
		t.Fatalf("zero markers must score zero citation accuracy, got %v", resp.CitationAccuracy)
	}
	if resp.QualityLevel == domain.QualityExcellent || resp.QualityLevel == domain.QualityGood {
		t.Fatalf("uncited answer over empty context must not score well, got %s", resp.QualityLevel)
	}
}

func TestGenerateInvalidConfigRejected(t *testing.T) {
	uc := NewAnswerUseCase(&searchServiceFake{response: generationSearchResponse()}, &gatewayFake{answer: "ok"}, nil, nil)

	cfg := domain.DefaultSearchConfig()
	cfg.Limit = -1

	_, err := uc.Generate(context.Background(), "anything", cfg)
	if !domain.IsKind(err, domain.ErrConfigValidation) {
		t.Fatalf("expected ErrConfigValidation, got %v", err)
	}
}
