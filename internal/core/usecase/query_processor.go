package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ragline/ragline/internal/core/domain"
	"github.com/ragline/ragline/internal/core/ports"
)

// QueryProcessor runs the fixed normalization pipeline over the raw query:
// whitespace normalization, optional spell correction, optional synonym
// expansion, optional stemming. Collaborator failure degrades the stage,
// never the request.
type QueryProcessor struct {
	spell     ports.SpellChecker
	thesaurus ports.Thesaurus
	logger    *slog.Logger
}

func NewQueryProcessor(spell ports.SpellChecker, thesaurus ports.Thesaurus, logger *slog.Logger) *QueryProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryProcessor{
		spell:     spell,
		thesaurus: thesaurus,
		logger:    logger,
	}
}

func (p *QueryProcessor) Process(ctx context.Context, raw string, cfg domain.SearchConfig) string {
	query := strings.Join(strings.Fields(raw), " ")

	if cfg.EnableSpellCorrection && p.spell != nil {
		corrected, err := p.spell.Correct(ctx, query)
		if err != nil {
			p.logger.Warn("spell_correction_skipped", "error", err)
		} else if strings.TrimSpace(corrected) != "" {
			query = corrected
		}
	}

	if cfg.EnableQueryExpansion && p.thesaurus != nil {
		expanded, err := p.thesaurus.Expand(ctx, query)
		if err != nil {
			p.logger.Warn("query_expansion_skipped", "error", err)
		} else if strings.TrimSpace(expanded) != "" {
			query = expanded
		}
	}

	if cfg.EnableStemming {
		query = stemText(query)
	}

	return query
}
