package bootstrap

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/internal/core/domain"
	"github.com/ragline/ragline/internal/core/ports"
	"github.com/ragline/ragline/internal/core/usecase"
	"github.com/ragline/ragline/internal/infrastructure/cache"
	"github.com/ragline/ragline/internal/infrastructure/lexicon"
	"github.com/ragline/ragline/internal/infrastructure/llm/ollama"
	"github.com/ragline/ragline/internal/infrastructure/resilience"
	"github.com/ragline/ragline/internal/infrastructure/vector/qdrant"
	"github.com/ragline/ragline/internal/observability/logging"
	"github.com/ragline/ragline/internal/observability/metrics"
)

// App owns one wired pipeline instance: collaborator handles, the result
// cache and the use cases, constructed once at startup and injected into
// every stage. No module-level mutable state exists.
type App struct {
	Config         config.Config
	SearchDefaults domain.SearchConfig

	SearchUC ports.SearchService
	AnswerUC ports.AnswerService
	Cache    *cache.ResultCache
	Metrics  *metrics.PipelineMetrics

	cancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(cfg.ServiceName, cfg.LogLevel)

	defaults, err := config.LoadSearchDefaults(cfg.SearchDefaultsPath)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	limiter := rate.NewLimiter(rate.Limit(cfg.LLMRequestsPerSecond), cfg.LLMBurst)
	gateway := ollama.NewGateway(ollamaClient, limiter)

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor)

	spell := lexicon.NewSpellChecker(defaults.Vocabulary)
	thesaurus := lexicon.NewThesaurus(defaults.Synonyms)
	processor := usecase.NewQueryProcessor(spell, thesaurus, logging.ForComponent(logger, "query_processor"))

	pipelineMetrics := metrics.NewPipelineMetrics(cfg.ServiceName)
	resultCache := cache.New()

	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	resultCache.StartSweeper(sweepCtx, cfg.CacheSweepInterval)

	searchUC := usecase.NewSearchUseCase(
		processor,
		embedder,
		index,
		index,
		resultCache,
		pipelineMetrics,
		logging.ForComponent(logger, "search"),
	)
	answerUC := usecase.NewAnswerUseCase(
		searchUC,
		gateway,
		pipelineMetrics,
		logging.ForComponent(logger, "answer"),
	)

	return &App{
		Config:         cfg,
		SearchDefaults: defaults.Search,
		SearchUC:       searchUC,
		AnswerUC:       answerUC,
		Cache:          resultCache,
		Metrics:        pipelineMetrics,
		cancel:         cancel,
	}, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}
