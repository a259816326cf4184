package usecase

import (
	"regexp"
	"strings"

	"github.com/ragline/ragline/internal/core/domain"
)

var (
	quotedPhrasePattern = regexp.MustCompile(`"[^"]+"|'[^']+'`)

	// Identifier-shaped tokens: bare numeric IDs ("4471"), code-like IDs
	// with a numeric part ("doc-4471", "RFC_2616").
	identifierPattern = regexp.MustCompile(`^(?:[A-Za-z]+[-_])*\d[\w-]*$`)

	// field:value exact-match syntax.
	fieldValuePattern = regexp.MustCompile(`^[A-Za-z][\w.-]*:\S+$`)
)

// selectStrategy resolves StrategyAuto against the processed query.
// The rule order is a documented contract: short queries go semantic,
// exact-match markers go keyword, long queries go semantic, everything
// else is hybrid. First match wins.
func selectStrategy(query string) domain.SearchStrategy {
	tokens := splitAlphaNumLower(query)

	if len(tokens) <= 2 {
		return domain.StrategySemantic
	}
	if hasExactMatchMarker(query) {
		return domain.StrategyKeyword
	}
	if len(tokens) > 3 {
		return domain.StrategySemantic
	}
	return domain.StrategyHybrid
}

func hasExactMatchMarker(query string) bool {
	if quotedPhrasePattern.MatchString(query) {
		return true
	}
	for _, field := range strings.Fields(query) {
		field = strings.Trim(field, `"'`)
		if identifierPattern.MatchString(field) || fieldValuePattern.MatchString(field) {
			return true
		}
	}
	return false
}
