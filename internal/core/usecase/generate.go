package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ragline/ragline/internal/core/domain"
	"github.com/ragline/ragline/internal/core/ports"
	"github.com/ragline/ragline/internal/observability/metrics"
)

const fallbackAnswer = "I could not produce a grounded answer for this question right now. " +
	"Please retry, or rephrase the question."

// Rough character-per-token budget used to translate the configured
// response length into the gateway's max_tokens parameter.
const charsPerToken = 4

const generationTemperature = 0.2

// AnswerUseCase drives one generation request through its state machine:
// retrieve, assemble context, generate, parse citations, score, package.
// Any stage failure after config validation lands in the fallback
// terminal state; the caller always receives a valid response.
type AnswerUseCase struct {
	search  ports.SearchService
	gateway ports.LLMGateway
	metrics *metrics.PipelineMetrics
	logger  *slog.Logger
}

func NewAnswerUseCase(search ports.SearchService, gateway ports.LLMGateway, pipelineMetrics *metrics.PipelineMetrics, logger *slog.Logger) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		search:  search,
		gateway: gateway,
		metrics: pipelineMetrics,
		logger:  logger,
	}
}

func (uc *AnswerUseCase) Generate(ctx context.Context, query string, cfg domain.SearchConfig) (*domain.GenerationResponse, error) {
	cfg, err := domain.NewSearchConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	requestID := uuid.NewString()
	state := domain.StateReceived
	uc.metrics.StartGeneration()

	fail := func(err error) (*domain.GenerationResponse, error) {
		uc.logger.Warn("generation_fallback",
			"request_id", requestID,
			"failed_state", state,
			"error", err,
		)
		response := fallbackResponse(requestID)
		uc.metrics.FinishGeneration(string(response.QualityLevel))
		return response, nil
	}

	state = domain.StateRetrieving
	retrievalStart := time.Now()
	searchResponse, err := uc.search.Search(ctx, query, cfg)
	if err != nil {
		return nil, err
	}
	retrievalTime := time.Since(retrievalStart)

	state = domain.StateAssemblingContext
	entries := assembleContext(searchResponse.Results, cfg)
	prompt := buildGenerationPrompt(query, entries, cfg.CitationFormat)

	state = domain.StateGenerating
	generationStart := time.Now()
	answer, err := uc.gateway.Generate(ctx, prompt, cfg.MaxResponseLength/charsPerToken, generationTemperature)
	if err != nil {
		return fail(domain.WrapError(domain.ErrGenerationFailure, "generate answer", err))
	}
	generationTime := time.Since(generationStart)

	state = domain.StateParsingCitations
	parsed := parseCitations(answer, entries, cfg.CitationFormat)
	report := validateCitations(parsed, cfg)

	state = domain.StateScoring
	confidence := scoreConfidence(answer, report, entries, cfg)
	quality := qualityLevel(confidence, len(report.Included))

	state = domain.StateComplete
	response := &domain.GenerationResponse{
		RequestID:         requestID,
		Answer:            answer,
		Citations:         report.Included,
		ConfidenceScore:   confidence,
		QualityLevel:      quality,
		CitationAccuracy:  report.Accuracy,
		RetrievalTime:     retrievalTime,
		GenerationTime:    generationTime,
		AnswerLength:      len(answer),
		HasCitations:      report.Total > 0,
		CitationsVerified: report.Total > 0 && report.Accuracy == 1.0,
		State:             state,
	}

	uc.metrics.FinishGeneration(string(quality))
	uc.logger.Info("generation_complete",
		"request_id", requestID,
		"confidence", confidence,
		"quality", quality,
		"citations", len(report.Included),
		"citation_accuracy", report.Accuracy,
		"retrieval_ms", float64(retrievalTime.Microseconds())/1000.0,
		"generation_ms", float64(generationTime.Microseconds())/1000.0,
	)
	return response, nil
}

func fallbackResponse(requestID string) *domain.GenerationResponse {
	return &domain.GenerationResponse{
		RequestID:       requestID,
		Answer:          fallbackAnswer,
		Citations:       []domain.SourceCitation{},
		ConfidenceScore: 0,
		QualityLevel:    domain.QualityPoor,
		State:           domain.StateFailedFallback,
		AnswerLength:    len(fallbackAnswer),
	}
}
