package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ragline/ragline/internal/core/domain"
)

// SearchDefaults is the optional YAML-declared baseline: per-deployment
// search knobs plus the lexicon feeding the spell checker and thesaurus.
type SearchDefaults struct {
	Search     domain.SearchConfig
	Vocabulary []string
	Synonyms   map[string][]string
}

type searchDefaultsFile struct {
	Search struct {
		Strategy          string  `yaml:"strategy"`
		Limit             int     `yaml:"limit"`
		Offset            int     `yaml:"offset"`
		SemanticWeight    float64 `yaml:"semantic_weight"`
		KeywordWeight     float64 `yaml:"keyword_weight"`
		MinRelevanceScore float64 `yaml:"min_relevance_score"`
		RankingMethod     string  `yaml:"ranking_method"`
		RRFK              int     `yaml:"rrf_k"`

		EnableQueryExpansion  *bool `yaml:"enable_query_expansion"`
		EnableSpellCorrection *bool `yaml:"enable_spell_correction"`
		EnableStemming        *bool `yaml:"enable_stemming"`

		TimeoutSeconds  int   `yaml:"timeout_seconds"`
		EnableCaching   *bool `yaml:"enable_caching"`
		CacheTTLSeconds int   `yaml:"cache_ttl_seconds"`

		CitationFormat          string  `yaml:"citation_format"`
		MaxContextLength        int     `yaml:"max_context_length"`
		MaxResponseLength       int     `yaml:"max_response_length"`
		MinCitationConfidence   float64 `yaml:"min_citation_confidence"`
		MaxCitationsPerResponse int     `yaml:"max_citations_per_response"`
		RequireCitations        *bool   `yaml:"require_citations"`
	} `yaml:"search"`
	Vocabulary []string            `yaml:"vocabulary"`
	Synonyms   map[string][]string `yaml:"synonyms"`
}

// LoadSearchDefaults reads and validates the defaults file. An empty path
// yields the documented defaults and an empty lexicon.
func LoadSearchDefaults(path string) (SearchDefaults, error) {
	defaults := SearchDefaults{Search: domain.DefaultSearchConfig()}
	if path == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return SearchDefaults{}, fmt.Errorf("read search defaults: %w", err)
	}

	var file searchDefaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return SearchDefaults{}, fmt.Errorf("parse search defaults: %w", err)
	}

	cfg := defaults.Search
	s := file.Search
	if s.Strategy != "" {
		cfg.Strategy = domain.SearchStrategy(s.Strategy)
	}
	if s.Limit != 0 {
		cfg.Limit = s.Limit
	}
	if s.Offset != 0 {
		cfg.Offset = s.Offset
	}
	if s.SemanticWeight != 0 || s.KeywordWeight != 0 {
		cfg.SemanticWeight = s.SemanticWeight
		cfg.KeywordWeight = s.KeywordWeight
	}
	if s.MinRelevanceScore != 0 {
		cfg.MinRelevanceScore = s.MinRelevanceScore
	}
	if s.RankingMethod != "" {
		cfg.RankingMethod = domain.RankingMethod(s.RankingMethod)
	}
	if s.RRFK != 0 {
		cfg.RRFK = s.RRFK
	}
	if s.EnableQueryExpansion != nil {
		cfg.EnableQueryExpansion = *s.EnableQueryExpansion
	}
	if s.EnableSpellCorrection != nil {
		cfg.EnableSpellCorrection = *s.EnableSpellCorrection
	}
	if s.EnableStemming != nil {
		cfg.EnableStemming = *s.EnableStemming
	}
	if s.TimeoutSeconds != 0 {
		cfg.Timeout = time.Duration(s.TimeoutSeconds) * time.Second
	}
	if s.EnableCaching != nil {
		cfg.EnableCaching = *s.EnableCaching
	}
	if s.CacheTTLSeconds != 0 {
		cfg.CacheTTL = time.Duration(s.CacheTTLSeconds) * time.Second
	}
	if s.CitationFormat != "" {
		cfg.CitationFormat = domain.CitationFormat(s.CitationFormat)
	}
	if s.MaxContextLength != 0 {
		cfg.MaxContextLength = s.MaxContextLength
	}
	if s.MaxResponseLength != 0 {
		cfg.MaxResponseLength = s.MaxResponseLength
	}
	if s.MinCitationConfidence != 0 {
		cfg.MinCitationConfidence = s.MinCitationConfidence
	}
	if s.MaxCitationsPerResponse != 0 {
		cfg.MaxCitationsPerResponse = s.MaxCitationsPerResponse
	}
	if s.RequireCitations != nil {
		cfg.RequireCitations = *s.RequireCitations
	}

	// Fail fast at load time; nothing re-validates per query.
	cfg, err = domain.NewSearchConfig(cfg)
	if err != nil {
		return SearchDefaults{}, err
	}

	return SearchDefaults{
		Search:     cfg,
		Vocabulary: file.Vocabulary,
		Synonyms:   file.Synonyms,
	}, nil
}
