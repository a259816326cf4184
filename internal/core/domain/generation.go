package domain

import "time"

type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityFair      QualityLevel = "fair"
	QualityPoor      QualityLevel = "poor"
)

// GenerationState tracks one generation request through the pipeline.
// Any stage failure moves directly to StateFailedFallback.
type GenerationState string

const (
	StateReceived          GenerationState = "received"
	StateRetrieving        GenerationState = "retrieving"
	StateAssemblingContext GenerationState = "assembling_context"
	StateGenerating        GenerationState = "generating"
	StateParsingCitations  GenerationState = "parsing_citations"
	StateScoring           GenerationState = "scoring"
	StateComplete          GenerationState = "complete"
	StateFailedFallback    GenerationState = "failed_fallback"
)

// SourceCitation ties a marker in the generated answer back to the
// context entry it references. CitationText is the verbatim marker.
type SourceCitation struct {
	SourceID        int     `json:"source_id"`
	DocumentID      string  `json:"document_id"`
	ChunkID         string  `json:"chunk_id"`
	CitationText    string  `json:"citation_text"`
	ConfidenceScore float64 `json:"confidence_score"`
	RelevanceScore  float64 `json:"relevance_score"`
	ContentSnippet  string  `json:"content_snippet"`
	SnippetStart    int     `json:"snippet_start"`
	SnippetEnd      int     `json:"snippet_end"`
	AccuracyScore   float64 `json:"accuracy_score"`
	Verified        bool    `json:"verified"`
}

// GenerationResponse is the final, always structurally valid answer
// package. Degraded quality shows up in the scores, never as an error.
type GenerationResponse struct {
	RequestID         string           `json:"request_id"`
	Answer            string           `json:"answer"`
	Citations         []SourceCitation `json:"citations"`
	ConfidenceScore   float64          `json:"confidence_score"`
	QualityLevel      QualityLevel     `json:"quality_level"`
	CitationAccuracy  float64          `json:"citation_accuracy"`
	RetrievalTime     time.Duration    `json:"retrieval_time_ns"`
	GenerationTime    time.Duration    `json:"generation_time_ns"`
	AnswerLength      int              `json:"answer_length"`
	HasCitations      bool             `json:"has_citations"`
	CitationsVerified bool             `json:"citations_verified"`
	State             GenerationState  `json:"state"`
}
