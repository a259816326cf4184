package usecase

import (
	"fmt"
	"math"
	"sort"

	"github.com/ragline/ragline/internal/core/domain"
)

// joinCandidates merges the per-branch result lists into one candidate
// set, recording each candidate's 1-based rank within its originating
// list. A candidate present in both branches keeps both scores.
func joinCandidates(semantic, keyword []domain.Candidate) []domain.Candidate {
	acc := make(map[string]domain.Candidate, len(semantic)+len(keyword))
	order := make([]string, 0, len(semantic)+len(keyword))

	add := func(c domain.Candidate) {
		key := candidateKey(c)
		existing, ok := acc[key]
		if !ok {
			acc[key] = c
			order = append(order, key)
			return
		}
		if c.SemanticRank > 0 {
			existing.SemanticScore = c.SemanticScore
			existing.SemanticRank = c.SemanticRank
		}
		if c.KeywordRank > 0 {
			existing.KeywordScore = c.KeywordScore
			existing.KeywordRank = c.KeywordRank
		}
		if existing.Content == "" {
			existing.Content = c.Content
		}
		acc[key] = existing
	}

	for rank, c := range semantic {
		c.SemanticRank = rank + 1
		c.KeywordRank = 0
		c.KeywordScore = 0
		add(c)
	}
	for rank, c := range keyword {
		c.KeywordRank = rank + 1
		c.SemanticRank = 0
		c.SemanticScore = 0
		add(c)
	}

	out := make([]domain.Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, acc[key])
	}
	return out
}

func candidateKey(c domain.Candidate) string {
	if c.ChunkID != "" {
		return c.ChunkID
	}
	return fmt.Sprintf("%s#%d", c.DocumentID, c.ChunkIndex)
}

// fuseCandidates scores, sorts, filters and pages the joined candidate
// set according to the configured ranking method.
func fuseCandidates(candidates []domain.Candidate, cfg domain.SearchConfig) []domain.SearchResult {
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]domain.SearchResult, 0, len(candidates))
	semWeight, kwWeight := fusionWeights(candidates, cfg)

	for _, c := range candidates {
		var hybrid float64
		if cfg.RankingMethod == domain.RankRRF {
			hybrid = rrfScore(c, cfg.RRFK)
		} else {
			hybrid = semWeight*semanticNorm(c, cfg) + kwWeight*keywordNorm(c, cfg)
		}
		scored = append(scored, domain.SearchResult{Candidate: c, HybridScore: hybrid})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].HybridScore != scored[j].HybridScore {
			return scored[i].HybridScore > scored[j].HybridScore
		}
		if scored[i].ChunkIndex != scored[j].ChunkIndex {
			return scored[i].ChunkIndex < scored[j].ChunkIndex
		}
		return scored[i].DocumentID < scored[j].DocumentID
	})

	filtered := scored[:0]
	for _, r := range scored {
		if r.HybridScore >= cfg.MinRelevanceScore {
			filtered = append(filtered, r)
		}
	}

	if cfg.Offset >= len(filtered) {
		return nil
	}
	filtered = filtered[cfg.Offset:]
	if len(filtered) > cfg.Limit {
		filtered = filtered[:cfg.Limit]
	}

	out := make([]domain.SearchResult, len(filtered))
	copy(out, filtered)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func semanticNorm(c domain.Candidate, cfg domain.SearchConfig) float64 {
	if c.SemanticRank == 0 {
		return 0
	}
	return math.Min(c.SemanticScore/cfg.SemanticThreshold, 1.0)
}

func keywordNorm(c domain.Candidate, cfg domain.SearchConfig) float64 {
	if c.KeywordRank == 0 {
		return 0
	}
	return math.Min(c.KeywordScore/cfg.KeywordThreshold, 1.0)
}

// rrfScore sums reciprocal-rank contributions across the branches the
// candidate appears in. Absence from a branch contributes nothing.
func rrfScore(c domain.Candidate, rrfK int) float64 {
	var score float64
	if c.SemanticRank > 0 {
		score += 1.0 / float64(rrfK+c.SemanticRank)
	}
	if c.KeywordRank > 0 {
		score += 1.0 / float64(rrfK+c.KeywordRank)
	}
	return score
}

func fusionWeights(candidates []domain.Candidate, cfg domain.SearchConfig) (semantic, keyword float64) {
	def := domain.DefaultSearchConfig()

	switch cfg.RankingMethod {
	case domain.RankNormalizedScore:
		// Balanced weights unless the caller overrode the defaults.
		if cfg.SemanticWeight == def.SemanticWeight && cfg.KeywordWeight == def.KeywordWeight {
			return 0.5, 0.5
		}
		return cfg.SemanticWeight, cfg.KeywordWeight
	case domain.RankAdaptive:
		semSigma := stddev(candidates, func(c domain.Candidate) float64 { return semanticNorm(c, cfg) })
		kwSigma := stddev(candidates, func(c domain.Candidate) float64 { return keywordNorm(c, cfg) })
		total := semSigma + kwSigma
		if total == 0 {
			return cfg.SemanticWeight, cfg.KeywordWeight
		}
		// The more discriminative signal gets the larger weight.
		return semSigma / total, kwSigma / total
	default:
		return cfg.SemanticWeight, cfg.KeywordWeight
	}
}

func stddev(candidates []domain.Candidate, value func(domain.Candidate) float64) float64 {
	if len(candidates) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candidates {
		sum += value(c)
	}
	mean := sum / float64(len(candidates))

	var variance float64
	for _, c := range candidates {
		d := value(c) - mean
		variance += d * d
	}
	variance /= float64(len(candidates))
	return math.Sqrt(variance)
}
