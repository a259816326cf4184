// Package lexicon provides in-process implementations of the optional
// query-processing collaborators: a vocabulary-backed spell checker and
// a synonym-table thesaurus. Both are deterministic; the processed query
// feeds the result cache key.
package lexicon

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

type SpellChecker struct {
	vocabulary map[string]struct{}
	words      []string
}

func NewSpellChecker(words []string) *SpellChecker {
	vocabulary := make(map[string]struct{}, len(words))
	sorted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := vocabulary[w]; ok {
			continue
		}
		vocabulary[w] = struct{}{}
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)
	return &SpellChecker{vocabulary: vocabulary, words: sorted}
}

// Correct replaces each out-of-vocabulary word with its closest
// vocabulary entry at edit distance one; ties resolve lexicographically.
// Words with no close entry pass through unchanged.
func (s *SpellChecker) Correct(_ context.Context, text string) (string, error) {
	if len(s.vocabulary) == 0 {
		return text, nil
	}

	fields := strings.Fields(text)
	for i, field := range fields {
		lower := strings.ToLower(field)
		if !isLetterWord(lower) {
			continue
		}
		if _, ok := s.vocabulary[lower]; ok {
			continue
		}
		if fixed, ok := s.closest(lower); ok {
			fields[i] = fixed
		}
	}
	return strings.Join(fields, " "), nil
}

func (s *SpellChecker) closest(word string) (string, bool) {
	// words is sorted, so the first hit is the lexicographic winner.
	for _, candidate := range s.words {
		if withinEditDistanceOne(word, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func withinEditDistanceOne(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}

	i, j, edits := 0, 0, 0
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		edits++
		if edits > 1 {
			return false
		}
		if la == lb {
			i++
		}
		j++
	}
	edits += lb - j + la - i
	return edits <= 1
}

func isLetterWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

type Thesaurus struct {
	synonyms map[string][]string
}

func NewThesaurus(synonyms map[string][]string) *Thesaurus {
	table := make(map[string][]string, len(synonyms))
	for term, alternatives := range synonyms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || len(alternatives) == 0 {
			continue
		}
		cleaned := make([]string, 0, len(alternatives))
		for _, alt := range alternatives {
			alt = strings.ToLower(strings.TrimSpace(alt))
			if alt != "" && alt != term {
				cleaned = append(cleaned, alt)
			}
		}
		sort.Strings(cleaned)
		table[term] = cleaned
	}
	return &Thesaurus{synonyms: table}
}

// Expand appends synonyms of known query terms that the query does not
// already contain, keeping the original text first.
func (t *Thesaurus) Expand(_ context.Context, text string) (string, error) {
	if len(t.synonyms) == 0 {
		return text, nil
	}

	present := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		present[field] = struct{}{}
	}

	additions := make([]string, 0, 4)
	for term := range present {
		for _, alt := range t.synonyms[term] {
			if _, ok := present[alt]; ok {
				continue
			}
			present[alt] = struct{}{}
			additions = append(additions, alt)
		}
	}
	if len(additions) == 0 {
		return text, nil
	}
	sort.Strings(additions)
	return text + " " + strings.Join(additions, " "), nil
}
