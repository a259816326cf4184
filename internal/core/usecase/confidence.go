package usecase

import (
	"strings"

	"github.com/ragline/ragline/internal/core/domain"
)

var (
	hedgingWords   = []string{"may", "might", "possibly", "likely", "unclear", "insufficient"}
	hedgingPhrases = []string{"it appears", "it seems", "not certain", "cannot confirm"}
)

// scoreConfidence combines the citation, context-relevance and text-
// quality terms into the overall confidence score:
//
//	confidence = 0.4*C + 0.3*R + 0.3*Q
func scoreConfidence(answer string, report citationReport, entries []ContextEntry, cfg domain.SearchConfig) float64 {
	c := citationTerm(report)
	if !cfg.RequireCitations && report.Total == 0 {
		// Citations are optional and absent: score as if one floor-
		// confidence citation were present. Any real citation clears the
		// confidence floor, so adding citations never lowers the score.
		c = cfg.MinCitationConfidence / 3.0
	}
	r := contextRelevanceTerm(entries)
	q := textQualityTerm(answer, c, cfg)
	return clamp01(0.4*c + 0.3*r + 0.3*q)
}

func citationTerm(report citationReport) float64 {
	n := len(report.Included)
	if n == 0 {
		return 0
	}
	coverage := float64(n) / 3.0
	if coverage > 1 {
		coverage = 1
	}
	return coverage * report.AvgConfidence
}

func contextRelevanceTerm(entries []ContextEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Result.HybridScore
	}
	return clamp01(sum / float64(len(entries)))
}

// textQualityTerm bounds the answer-shape signal: length within target
// bounds, absence of verbatim repetition, and hedging language when
// citation coverage is low.
func textQualityTerm(answer string, citationTerm float64, cfg domain.SearchConfig) float64 {
	length := lengthScore(len(answer), cfg.MaxResponseLength)
	repetition := 1.0 - repetitionFraction(answer)

	hedge := 1.0
	if citationTerm < 0.5 {
		hedge = 0.0
		if containsHedging(answer) {
			hedge = 1.0
		}
	}

	return clamp01(0.4*length + 0.4*repetition + 0.2*hedge)
}

func lengthScore(length, maxLength int) float64 {
	if length == 0 {
		return 0
	}
	minLength := maxLength / 20
	if minLength < 20 {
		minLength = 20
	}
	switch {
	case length < minLength:
		return float64(length) / float64(minLength)
	case length > maxLength:
		return float64(maxLength) / float64(length)
	default:
		return 1.0
	}
}

// repetitionFraction is the share of five-token shingles that occur more
// than once in the answer.
func repetitionFraction(answer string) float64 {
	tokens := splitAlphaNumLower(answer)
	if len(tokens) < 10 {
		return 0
	}
	const shingleSize = 5
	counts := make(map[string]int, len(tokens))
	total := 0
	for i := 0; i+shingleSize <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+shingleSize], " ")]++
		total++
	}
	repeated := 0
	for _, n := range counts {
		if n > 1 {
			repeated += n - 1
		}
	}
	return float64(repeated) / float64(total)
}

func containsHedging(answer string) bool {
	tokens := toTokenSet(answer)
	for _, word := range hedgingWords {
		if _, ok := tokens[word]; ok {
			return true
		}
	}
	lower := strings.ToLower(answer)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// qualityLevel maps confidence and citation count onto the discrete
// quality ladder.
func qualityLevel(confidence float64, citationCount int) domain.QualityLevel {
	switch {
	case confidence >= 0.8 && citationCount >= 2:
		return domain.QualityExcellent
	case confidence >= 0.6 && citationCount >= 1:
		return domain.QualityGood
	case confidence >= 0.4:
		return domain.QualityFair
	default:
		return domain.QualityPoor
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
