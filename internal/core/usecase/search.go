package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ragline/ragline/internal/core/domain"
	"github.com/ragline/ragline/internal/core/ports"
	"github.com/ragline/ragline/internal/observability/metrics"
)

// SearchUseCase owns one hybrid retrieval pipeline: query processing,
// strategy selection, concurrent retrieval fan-out, score fusion and the
// read-through result cache. It is safe for concurrent use; the cache is
// the only cross-request shared state.
type SearchUseCase struct {
	processor *QueryProcessor
	embedder  ports.Embedder
	vector    ports.VectorIndex
	keyword   ports.KeywordIndex
	cache     ports.ResultCache
	metrics   *metrics.PipelineMetrics
	logger    *slog.Logger
}

func NewSearchUseCase(
	processor *QueryProcessor,
	embedder ports.Embedder,
	vector ports.VectorIndex,
	keyword ports.KeywordIndex,
	cache ports.ResultCache,
	pipelineMetrics *metrics.PipelineMetrics,
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		processor: processor,
		embedder:  embedder,
		vector:    vector,
		keyword:   keyword,
		cache:     cache,
		metrics:   pipelineMetrics,
		logger:    logger,
	}
}

// Search runs one retrieval pass. The only error it can return is a
// config validation failure; retrieval degradation shows up as fewer (or
// zero) results, never as an error.
func (uc *SearchUseCase) Search(ctx context.Context, query string, cfg domain.SearchConfig) (*domain.SearchResponse, error) {
	cfg, err := domain.NewSearchConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	processed := uc.processor.Process(ctx, query, cfg)

	strategy := cfg.Strategy
	if strategy == domain.StrategyAuto {
		strategy = selectStrategy(processed)
	}

	var key string
	if cfg.EnableCaching && uc.cache != nil {
		key = searchCacheKey(processed, cfg)
		if cached, ok := uc.cache.Get(key); ok {
			uc.metrics.CacheHit()
			uc.logger.Debug("cache_hit", "key", key, "strategy", cached.StrategyUsed)
			return cached, nil
		}
		uc.metrics.CacheMiss()
	}

	candidates := uc.retrieve(ctx, processed, strategy, cfg)
	results := fuseCandidates(candidates, cfg)

	response := &domain.SearchResponse{
		RequestID:        uuid.NewString(),
		Results:          results,
		StrategyUsed:     strategy,
		SearchTime:       time.Since(start),
		AverageRelevance: averageRelevance(results),
	}

	if key != "" {
		// A concurrent miss on the same key may also write; last write
		// wins. Serializing that race is not worth a cross-key lock.
		uc.cache.Set(key, response, cfg.CacheTTL)
	}

	uc.metrics.ObserveSearch(string(strategy), time.Since(start), len(results))
	uc.logger.Info("search_complete",
		"request_id", response.RequestID,
		"strategy", strategy,
		"results", len(results),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return response, nil
}

// retrieve fans out to the configured branches. A failed branch degrades
// to an empty candidate list for that branch; both branches failing means
// an empty response, not an error.
func (uc *SearchUseCase) retrieve(ctx context.Context, query string, strategy domain.SearchStrategy, cfg domain.SearchConfig) []domain.Candidate {
	switch strategy {
	case domain.StrategySemantic:
		semantic := uc.semanticBranch(ctx, query, cfg)
		return joinCandidates(semantic, nil)
	case domain.StrategyKeyword:
		keyword := uc.keywordBranch(ctx, query, cfg)
		return joinCandidates(nil, keyword)
	default:
		var semantic, keyword []domain.Candidate
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			semantic = uc.semanticBranch(gctx, query, cfg)
			return nil
		})
		g.Go(func() error {
			keyword = uc.keywordBranch(gctx, query, cfg)
			return nil
		})
		// Branch errors never propagate into the group, so Wait only
		// reflects context cancellation.
		_ = g.Wait()
		return joinCandidates(semantic, keyword)
	}
}

func (uc *SearchUseCase) semanticBranch(ctx context.Context, query string, cfg domain.SearchConfig) []domain.Candidate {
	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		uc.logBranchFailure("semantic", domain.WrapError(domain.ErrEmbeddingFailure, "embed query", err))
		return nil
	}
	certainty := cfg.MinRelevanceScore * cfg.SemanticThreshold
	candidates, err := uc.vector.NearVector(ctx, vector, certainty, cfg.Limit+cfg.Offset, cfg.Filter)
	if err != nil {
		uc.logBranchFailure("semantic", classifyRetrievalError("near vector", err))
		return nil
	}
	return candidates
}

func (uc *SearchUseCase) keywordBranch(ctx context.Context, query string, cfg domain.SearchConfig) []domain.Candidate {
	candidates, err := uc.keyword.BM25Query(ctx, query, cfg.Limit+cfg.Offset, cfg.Filter)
	if err != nil {
		uc.logBranchFailure("keyword", classifyRetrievalError("bm25 query", err))
		return nil
	}
	return candidates
}

func (uc *SearchUseCase) logBranchFailure(branch string, err error) {
	uc.metrics.BranchFailure(branch)
	uc.logger.Warn("retrieval_branch_failed", "branch", branch, "error", err)
}

func classifyRetrievalError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrRetrievalTimeout, operation, err)
	}
	if domain.IsKind(err, domain.ErrIndexUnavailable) {
		return err
	}
	return domain.WrapError(domain.ErrIndexUnavailable, operation, err)
}

func searchCacheKey(processedQuery string, cfg domain.SearchConfig) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(processedQuery))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(cfg.Fingerprint()))
	return fmt.Sprintf("%016x", h.Sum64())
}

func averageRelevance(results []domain.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.HybridScore
	}
	return sum / float64(len(results))
}
