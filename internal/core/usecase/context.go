package usecase

import (
	"unicode/utf8"

	"github.com/ragline/ragline/internal/core/domain"
)

// ContextEntry is one numbered block of generation context. Index is the
// 1-based citation number the prompt and the citation parser share.
type ContextEntry struct {
	Index  int
	Result domain.SearchResult
	Text   string
}

// assembleContext walks results in rank order, accumulating content into
// the character budget. The budget counts runes, not bytes, so multibyte
// content is never cut mid-rune. The chunk that would overflow the budget
// is truncated to fit exactly and still included, unless zero characters
// remain for it.
func assembleContext(results []domain.SearchResult, cfg domain.SearchConfig) []ContextEntry {
	entries := make([]ContextEntry, 0, len(results))
	remaining := cfg.MaxContextLength

	for _, result := range results {
		if result.HybridScore < cfg.MinRelevanceScore {
			continue
		}
		if remaining <= 0 {
			break
		}

		text := result.Content
		length := utf8.RuneCountInString(text)
		if length > remaining {
			text = string([]rune(text)[:remaining])
			length = remaining
		}
		if text == "" {
			continue
		}

		entries = append(entries, ContextEntry{
			Index:  len(entries) + 1,
			Result: result,
			Text:   text,
		})
		remaining -= length
	}
	return entries
}
