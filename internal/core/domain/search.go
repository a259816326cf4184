package domain

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

type SearchStrategy string

const (
	StrategyAuto     SearchStrategy = "auto"
	StrategySemantic SearchStrategy = "semantic"
	StrategyKeyword  SearchStrategy = "keyword"
	StrategyHybrid   SearchStrategy = "hybrid"
)

type RankingMethod string

const (
	RankWeightedSum     RankingMethod = "weighted_sum"
	RankNormalizedScore RankingMethod = "normalized_score"
	RankRRF             RankingMethod = "rrf"
	RankAdaptive        RankingMethod = "adaptive"
)

type CitationFormat string

const (
	CitationNumbered  CitationFormat = "numbered"
	CitationBracketed CitationFormat = "bracketed"
	CitationInline    CitationFormat = "inline"
	CitationAcademic  CitationFormat = "academic"
)

// SearchFilter restricts retrieval to specific documents or chunks.
// Empty slices mean no restriction.
type SearchFilter struct {
	DocumentIDs []string `json:"document_ids,omitempty" yaml:"document_ids"`
	ChunkIDs    []string `json:"chunk_ids,omitempty" yaml:"chunk_ids"`
}

// SearchConfig carries every per-request knob of the retrieval and
// generation pipeline. It is immutable for the lifetime of a request:
// NewSearchConfig applies defaults and validates once, and nothing
// re-validates mid-query.
type SearchConfig struct {
	Strategy          SearchStrategy `json:"strategy"`
	Limit             int            `json:"limit"`
	Offset            int            `json:"offset"`
	SemanticWeight    float64        `json:"semantic_weight"`
	KeywordWeight     float64        `json:"keyword_weight"`
	MinRelevanceScore float64        `json:"min_relevance_score"`
	RankingMethod     RankingMethod  `json:"ranking_method"`
	RRFK              int            `json:"rrf_k"`
	SemanticThreshold float64        `json:"semantic_threshold"`
	KeywordThreshold  float64        `json:"keyword_threshold"`

	EnableQueryExpansion  bool `json:"enable_query_expansion"`
	EnableSpellCorrection bool `json:"enable_spell_correction"`
	EnableStemming        bool `json:"enable_stemming"`

	Timeout       time.Duration `json:"timeout_ns"`
	EnableCaching bool          `json:"enable_caching"`
	CacheTTL      time.Duration `json:"cache_ttl_ns"`

	Filter SearchFilter `json:"filter"`

	CitationFormat          CitationFormat `json:"citation_format"`
	MaxContextLength        int            `json:"max_context_length"`
	MaxResponseLength       int            `json:"max_response_length"`
	MinCitationConfidence   float64        `json:"min_citation_confidence"`
	MaxCitationsPerResponse int            `json:"max_citations_per_response"`
	RequireCitations        bool           `json:"require_citations"`

	// Set by NewSearchConfig. A validated config passes through further
	// NewSearchConfig calls untouched, so the pipeline validates each
	// request exactly once no matter how many stages receive the config.
	validated bool
}

// DefaultSearchConfig returns the documented defaults for every knob.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Strategy:          StrategyAuto,
		Limit:             10,
		Offset:            0,
		SemanticWeight:    0.7,
		KeywordWeight:     0.3,
		MinRelevanceScore: 0.5,
		RankingMethod:     RankWeightedSum,
		RRFK:              60,
		SemanticThreshold: 0.6,
		KeywordThreshold:  0.4,

		EnableQueryExpansion:  true,
		EnableSpellCorrection: true,
		EnableStemming:        true,

		Timeout:       30 * time.Second,
		EnableCaching: true,
		CacheTTL:      300 * time.Second,

		CitationFormat:          CitationNumbered,
		MaxContextLength:        4000,
		MaxResponseLength:       1000,
		MinCitationConfidence:   0.7,
		MaxCitationsPerResponse: 10,
		RequireCitations:        true,
	}
}

// NewSearchConfig fills zero-valued numeric fields from the defaults and
// validates the result. Boolean flags are taken as given; callers that
// want the default toggles should start from DefaultSearchConfig. A
// config that already went through NewSearchConfig is returned as is.
func NewSearchConfig(cfg SearchConfig) (SearchConfig, error) {
	if cfg.validated {
		return cfg, nil
	}
	def := DefaultSearchConfig()

	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.Limit == 0 {
		cfg.Limit = def.Limit
	}
	if cfg.SemanticWeight == 0 && cfg.KeywordWeight == 0 {
		cfg.SemanticWeight = def.SemanticWeight
		cfg.KeywordWeight = def.KeywordWeight
	}
	if cfg.MinRelevanceScore == 0 {
		cfg.MinRelevanceScore = def.MinRelevanceScore
	}
	if cfg.RankingMethod == "" {
		cfg.RankingMethod = def.RankingMethod
	}
	if cfg.RRFK == 0 {
		cfg.RRFK = def.RRFK
	}
	if cfg.SemanticThreshold == 0 {
		cfg.SemanticThreshold = def.SemanticThreshold
	}
	if cfg.KeywordThreshold == 0 {
		cfg.KeywordThreshold = def.KeywordThreshold
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.CitationFormat == "" {
		cfg.CitationFormat = def.CitationFormat
	}
	if cfg.MaxContextLength == 0 {
		cfg.MaxContextLength = def.MaxContextLength
	}
	if cfg.MaxResponseLength == 0 {
		cfg.MaxResponseLength = def.MaxResponseLength
	}
	if cfg.MinCitationConfidence == 0 {
		cfg.MinCitationConfidence = def.MinCitationConfidence
	}
	if cfg.MaxCitationsPerResponse == 0 {
		cfg.MaxCitationsPerResponse = def.MaxCitationsPerResponse
	}

	if err := cfg.validate(); err != nil {
		return SearchConfig{}, err
	}
	cfg.validated = true
	return cfg, nil
}

func (c SearchConfig) validate() error {
	fail := func(format string, args ...any) error {
		return WrapError(ErrConfigValidation, "search config", fmt.Errorf(format, args...))
	}

	switch c.Strategy {
	case StrategyAuto, StrategySemantic, StrategyKeyword, StrategyHybrid:
	default:
		return fail("unknown strategy %q", c.Strategy)
	}
	switch c.RankingMethod {
	case RankWeightedSum, RankNormalizedScore, RankRRF, RankAdaptive:
	default:
		return fail("unknown ranking method %q", c.RankingMethod)
	}
	switch c.CitationFormat {
	case CitationNumbered, CitationBracketed, CitationInline, CitationAcademic:
	default:
		return fail("unknown citation format %q", c.CitationFormat)
	}

	if c.Limit <= 0 {
		return fail("limit must be positive, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fail("offset must not be negative, got %d", c.Offset)
	}
	if c.SemanticWeight < 0 || c.SemanticWeight > 1 {
		return fail("semantic weight %.3f outside [0,1]", c.SemanticWeight)
	}
	if c.KeywordWeight < 0 || c.KeywordWeight > 1 {
		return fail("keyword weight %.3f outside [0,1]", c.KeywordWeight)
	}
	sum := c.SemanticWeight + c.KeywordWeight
	if sum <= 0 || sum > 1 {
		return fail("strategy weights must sum into (0,1], got %.3f", sum)
	}
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 1 {
		return fail("min relevance score %.3f outside [0,1]", c.MinRelevanceScore)
	}
	if c.RRFK <= 0 {
		return fail("rrf_k must be positive, got %d", c.RRFK)
	}
	if c.SemanticThreshold <= 0 || c.KeywordThreshold <= 0 {
		return fail("score thresholds must be positive")
	}
	if c.Timeout <= 0 {
		return fail("timeout must be positive")
	}
	if c.CacheTTL <= 0 {
		return fail("cache ttl must be positive")
	}
	if c.MaxContextLength <= 0 {
		return fail("max context length must be positive, got %d", c.MaxContextLength)
	}
	if c.MaxResponseLength <= 0 {
		return fail("max response length must be positive, got %d", c.MaxResponseLength)
	}
	if c.MinCitationConfidence < 0 || c.MinCitationConfidence > 1 {
		return fail("min citation confidence %.3f outside [0,1]", c.MinCitationConfidence)
	}
	if c.MaxCitationsPerResponse <= 0 {
		return fail("max citations per response must be positive, got %d", c.MaxCitationsPerResponse)
	}
	return nil
}

// Fingerprint returns a stable hash of the full configuration, used as
// part of the result cache key. Struct field order is fixed, so the JSON
// encoding is canonical.
func (c SearchConfig) Fingerprint() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the cache usable anyway.
		raw = []byte(fmt.Sprintf("%+v", c))
	}
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Candidate is a score-annotated chunk returned by one retrieval branch.
// A zero rank means the candidate was absent from that branch's list;
// ranks are 1-based within the originating list.
type Candidate struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`

	SemanticScore float64 `json:"semantic_score,omitempty"`
	SemanticRank  int     `json:"semantic_rank,omitempty"`
	KeywordScore  float64 `json:"keyword_score,omitempty"`
	KeywordRank   int     `json:"keyword_rank,omitempty"`
}

// SearchResult is a fused candidate with its final score and rank.
type SearchResult struct {
	Candidate
	HybridScore float64 `json:"hybrid_score"`
	Rank        int     `json:"rank"`
}

// SearchResponse is the ordered output of one retrieval pass. Results are
// sorted descending by hybrid score; ties break by ascending chunk index
// then lexicographic document id.
type SearchResponse struct {
	RequestID        string         `json:"request_id"`
	Results          []SearchResult `json:"results"`
	StrategyUsed     SearchStrategy `json:"strategy_used"`
	SearchTime       time.Duration  `json:"search_time_ns"`
	AverageRelevance float64        `json:"average_relevance"`
}
