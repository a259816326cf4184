package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ragline/ragline/internal/core/domain"
)

var (
	numberedMarkerPattern  = regexp.MustCompile(`\[(\d+)\]`)
	bracketedMarkerPattern = regexp.MustCompile(`\[Source:\s*([^\]]+)\]`)
	inlineMarkerPattern    = regexp.MustCompile(`\(Source:\s*([^)]+)\)`)
	academicMarkerPattern  = regexp.MustCompile(`\(([^(),]+),\s*(\d+)\)`)
)

// parsedCitation is one marker found in the answer text. Entry is nil
// when the marker does not resolve to any context index; such citations
// are retained as unverified rather than dropped.
type parsedCitation struct {
	Marker string
	Claim  string
	Entry  *ContextEntry
}

// parseCitations scans the answer for markers in the configured format
// and resolves each against the numbered context. A marker that fails to
// parse degrades to an unresolved citation; it never aborts the response.
func parseCitations(answer string, entries []ContextEntry, format domain.CitationFormat) []parsedCitation {
	pattern := markerPattern(format)
	matches := pattern.FindAllStringSubmatchIndex(answer, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]parsedCitation, 0, len(matches))

	for _, match := range matches {
		marker := answer[match[0]:match[1]]
		if _, dup := seen[marker]; dup {
			continue
		}
		seen[marker] = struct{}{}

		out = append(out, parsedCitation{
			Marker: marker,
			Claim:  claimBefore(answer, match[0]),
			Entry:  resolveMarker(answer, match, entries, format),
		})
	}
	return out
}

func markerPattern(format domain.CitationFormat) *regexp.Regexp {
	switch format {
	case domain.CitationBracketed:
		return bracketedMarkerPattern
	case domain.CitationInline:
		return inlineMarkerPattern
	case domain.CitationAcademic:
		return academicMarkerPattern
	default:
		return numberedMarkerPattern
	}
}

func resolveMarker(answer string, match []int, entries []ContextEntry, format domain.CitationFormat) *ContextEntry {
	group := func(n int) string {
		start, end := match[2*n], match[2*n+1]
		if start < 0 {
			return ""
		}
		return answer[start:end]
	}

	switch format {
	case domain.CitationBracketed, domain.CitationInline:
		id := strings.TrimSpace(group(1))
		for i := range entries {
			if entries[i].Result.ChunkID == id || entries[i].Result.DocumentID == id {
				return &entries[i]
			}
		}
		return nil
	case domain.CitationAcademic:
		docID := strings.TrimSpace(group(1))
		index, err := strconv.Atoi(group(2))
		if err != nil {
			return nil
		}
		entry := entryByIndex(entries, index)
		if entry == nil || entry.Result.DocumentID != docID {
			return nil
		}
		return entry
	default:
		index, err := strconv.Atoi(group(1))
		if err != nil {
			return nil
		}
		return entryByIndex(entries, index)
	}
}

func entryByIndex(entries []ContextEntry, index int) *ContextEntry {
	for i := range entries {
		if entries[i].Index == index {
			return &entries[i]
		}
	}
	return nil
}

// claimBefore extracts the answer sentence leading up to a marker, used
// for the overlap check against the cited content.
func claimBefore(answer string, markerStart int) string {
	head := answer[:markerStart]
	boundary := strings.LastIndexAny(head, ".!?\n")
	if boundary >= 0 {
		head = head[boundary+1:]
	}
	return strings.TrimSpace(head)
}

// citationReport is the validator output: the surviving citation list
// plus response-level accounting over every parsed marker.
type citationReport struct {
	Included      []domain.SourceCitation
	Total         int
	Accuracy      float64
	AvgConfidence float64
}

const overlapPassThreshold = 0.3

// validateCitations scores each parsed citation and computes response
// accuracy. Citations below the confidence floor or beyond the per-
// response cap are dropped from the list but still count as failed in
// the accuracy denominator.
func validateCitations(parsed []parsedCitation, cfg domain.SearchConfig) citationReport {
	report := citationReport{Total: len(parsed)}
	if len(parsed) == 0 {
		return report
	}

	passed := 0
	var confidenceSum float64

	for _, p := range parsed {
		citation := scoreCitation(p, cfg)
		if citation.AccuracyScore == 1.0 {
			passed++
		}
		if citation.ConfidenceScore < cfg.MinCitationConfidence {
			continue
		}
		if len(report.Included) >= cfg.MaxCitationsPerResponse {
			continue
		}
		report.Included = append(report.Included, citation)
		confidenceSum += citation.ConfidenceScore
	}

	report.Accuracy = float64(passed) / float64(len(parsed))
	if len(report.Included) > 0 {
		report.AvgConfidence = confidenceSum / float64(len(report.Included))
	}
	return report
}

func scoreCitation(p parsedCitation, cfg domain.SearchConfig) domain.SourceCitation {
	if p.Entry == nil {
		return domain.SourceCitation{
			CitationText: p.Marker,
		}
	}

	content := p.Entry.Text
	relevance := p.Entry.Result.HybridScore
	overlap := tokenOverlap(toTokenSet(p.Claim), toTokenSet(content))
	verbatim := isVerbatimMatch(p.Claim, content)

	confidence := 0.55*relevance + 0.45*overlap
	if verbatim {
		confidence = math.Min(confidence+0.25, 1.0)
	}
	if overlap == 0 && !verbatim {
		// No discoverable overlap keeps the citation below the floor.
		confidence = math.Min(confidence, cfg.MinCitationConfidence*0.9)
	}

	accuracy := 0.0
	if verbatim || overlap >= overlapPassThreshold {
		accuracy = 1.0
	}

	snippet, start, end := contentSnippet(content, p.Claim)
	return domain.SourceCitation{
		SourceID:        p.Entry.Index,
		DocumentID:      p.Entry.Result.DocumentID,
		ChunkID:         p.Entry.Result.ChunkID,
		CitationText:    p.Marker,
		ConfidenceScore: confidence,
		RelevanceScore:  relevance,
		ContentSnippet:  snippet,
		SnippetStart:    start,
		SnippetEnd:      end,
		AccuracyScore:   accuracy,
		Verified:        accuracy == 1.0,
	}
}

// isVerbatimMatch reports whether a meaningful run of the claim appears
// verbatim in the content: either the whole normalized claim, or any
// six-token shingle of it.
func isVerbatimMatch(claim, content string) bool {
	claimTokens := splitAlphaNumLower(claim)
	if len(claimTokens) == 0 {
		return false
	}
	normalizedContent := " " + strings.Join(splitAlphaNumLower(content), " ") + " "
	if len(claimTokens) <= 6 {
		return strings.Contains(normalizedContent, " "+strings.Join(claimTokens, " ")+" ")
	}
	for i := 0; i+6 <= len(claimTokens); i++ {
		shingle := " " + strings.Join(claimTokens[i:i+6], " ") + " "
		if strings.Contains(normalizedContent, shingle) {
			return true
		}
	}
	return false
}

// contentSnippet returns a bounded window of the cited content around
// the first claim token hit, with rune offsets into the content. Slicing
// on runes keeps multibyte content intact at the window edges.
func contentSnippet(content, claim string) (string, int, int) {
	const window = 160
	if content == "" {
		return "", 0, 0
	}

	anchor := 0
	lower := strings.ToLower(content)
	for _, token := range splitAlphaNumLower(claim) {
		if idx := strings.Index(lower, token); idx >= 0 {
			anchor = utf8.RuneCountInString(content[:idx])
			break
		}
	}

	runes := []rune(content)
	start := anchor - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), start, end
}
