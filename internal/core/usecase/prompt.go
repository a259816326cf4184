package usecase

import (
	"fmt"
	"strings"

	"github.com/ragline/ragline/internal/core/domain"
)

// buildGenerationPrompt renders the closed-world instruction template:
// directive, numbered context blocks in assembler order, the citation
// format instruction, then the user question.
func buildGenerationPrompt(question string, entries []ContextEntry, format domain.CitationFormat) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the numbered sources below.\n")
	b.WriteString("If the sources are insufficient, say so directly instead of guessing.\n\n")

	for _, entry := range entries {
		fmt.Fprintf(&b, "[%d] document=%s chunk=%s score=%.3f\n%s\n\n",
			entry.Index,
			entry.Result.DocumentID,
			entry.Result.ChunkID,
			entry.Result.HybridScore,
			entry.Text,
		)
	}
	if len(entries) == 0 {
		b.WriteString("(no sources available)\n\n")
	}

	b.WriteString(citationDirective(format))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

func citationDirective(format domain.CitationFormat) string {
	switch format {
	case domain.CitationBracketed:
		return "Cite sources as [Source: <chunk id>] immediately after each supported claim."
	case domain.CitationInline:
		return "Cite sources as (Source: <chunk id>) immediately after each supported claim."
	case domain.CitationAcademic:
		return "Cite sources academically as (<document id>, <source number>) after each supported claim."
	default:
		return "Cite sources as [n], where n is the source number, immediately after each supported claim."
	}
}
