package domain

import "time"

// StageCounts aggregates one stage's outcomes across a batch. Failed counts
// stage invocations that raised and were converted to unresolved entries.
type StageCounts struct {
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// PipelineError is one collector record, keyed by stage and document.
type PipelineError struct {
	Stage      StageName      `json:"stage"`
	DocumentID string         `json:"document_id"`
	Message    string         `json:"message"`
	Context    map[string]any `json:"context,omitempty"`
}

// CollectorSummary is the error collector roll-up included in the run report.
type CollectorSummary struct {
	ErrorCount             int               `json:"error_count"`
	WarningCount           int               `json:"warning_count"`
	ValidationFailureCount int               `json:"validation_failure_count"`
	ByStage                map[StageName]int `json:"by_stage"`
	ByDocument             map[string]int    `json:"by_document"`
}

// RunReport is the single output of a batch run, immutable after the
// verification pass. DocumentsAttempted == DocumentsProcessed + DocumentsDropped
// always holds.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	DocumentsAttempted int `json:"documents_attempted"`
	DocumentsProcessed int `json:"documents_processed"`
	DocumentsDropped   int `json:"documents_dropped"`

	StageCounts    map[StageName]StageCounts `json:"stage_counts"`
	CategoryCounts map[Category]int          `json:"category_counts"`
	CategoryScores map[Category]float64      `json:"category_scores"`

	// QualityScore is the document-count-weighted mean across categories.
	// CompletenessScore is the share of executed stage runs that resolved,
	// skipped runs excluded.
	QualityScore      float64 `json:"quality_score"`
	CompletenessScore float64 `json:"completeness_score"`

	PersistFailures int `json:"persist_failures"`
	IndexFailures   int `json:"index_failures"`

	Errors   []PipelineError  `json:"errors"`
	Warnings []PipelineError  `json:"warnings"`
	Summary  CollectorSummary `json:"summary"`
}

// RunRequest is the queued trigger for one batch run.
type RunRequest struct {
	Limit  int    `json:"limit"`
	Court  string `json:"court,omitempty"`
	Strict bool   `json:"strict"`
}

// SourceFilters narrows what the source connector fetches.
type SourceFilters struct {
	Court        string
	DocumentType string
}

// BatchOptions parameterizes one orchestrator run.
type BatchOptions struct {
	Limit        int
	Filters      SourceFilters
	Strict       bool
	Workers      int
	StageTimeout time.Duration
}
