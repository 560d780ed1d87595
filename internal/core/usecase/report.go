package usecase

import (
	"sync"
	"time"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// reportBuilder accumulates per-document outcomes from concurrent workers and
// produces the immutable run report once the batch has drained.
type reportBuilder struct {
	mu sync.Mutex

	processed       int
	stageCounts     map[domain.StageName]domain.StageCounts
	categoryCounts  map[domain.Category]int
	categoryScores  map[domain.Category]float64
	persistFailures int
	indexFailures   int
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{
		stageCounts:    make(map[domain.StageName]domain.StageCounts),
		categoryCounts: make(map[domain.Category]int),
		categoryScores: make(map[domain.Category]float64),
	}
}

func (b *reportBuilder) record(doc *domain.Document, failedStages map[domain.StageName]bool, persistFailed, indexFailed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.processed++
	b.categoryCounts[doc.Category]++
	b.categoryScores[doc.Category] += doc.QualityScore
	if persistFailed {
		b.persistFailures++
	}
	if indexFailed {
		b.indexFailures++
	}

	for stage, res := range doc.Enhancements {
		counts := b.stageCounts[stage]
		switch res.Kind {
		case domain.KindResolved:
			counts.Resolved++
		case domain.KindUnresolved:
			counts.Unresolved++
		case domain.KindSkipped:
			counts.Skipped++
		}
		if failedStages[stage] {
			counts.Failed++
		}
		b.stageCounts[stage] = counts
	}
}

// build runs the verification pass: batch-level coverage and score rates,
// with attempted == processed + dropped always consistent.
func (b *reportBuilder) build(
	runID string,
	started time.Time,
	attempted, dropped int,
	collector *ErrorCollector,
) *domain.RunReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	categoryScores := make(map[domain.Category]float64, len(b.categoryScores))
	var totalScore float64
	for category, sum := range b.categoryScores {
		count := b.categoryCounts[category]
		if count > 0 {
			categoryScores[category] = sum / float64(count)
		}
		totalScore += sum
	}

	quality := 0.0
	if b.processed > 0 {
		quality = totalScore / float64(b.processed)
	}

	var resolvedRuns, executedRuns int
	for _, counts := range b.stageCounts {
		resolvedRuns += counts.Resolved
		executedRuns += counts.Resolved + counts.Unresolved
	}
	completeness := 0.0
	if executedRuns > 0 {
		completeness = 100 * float64(resolvedRuns) / float64(executedRuns)
	}

	return &domain.RunReport{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),

		DocumentsAttempted: attempted,
		DocumentsProcessed: b.processed,
		DocumentsDropped:   dropped,

		StageCounts:    b.stageCounts,
		CategoryCounts: b.categoryCounts,
		CategoryScores: categoryScores,

		QualityScore:      quality,
		CompletenessScore: completeness,

		PersistFailures: b.persistFailures,
		IndexFailures:   b.indexFailures,

		Errors:   collector.Errors(),
		Warnings: collector.Warnings(),
		Summary:  collector.Summary(),
	}
}

func emptyReport(runID string, started time.Time) *domain.RunReport {
	return &domain.RunReport{
		RunID:          runID,
		StartedAt:      started,
		FinishedAt:     time.Now().UTC(),
		StageCounts:    map[domain.StageName]domain.StageCounts{},
		CategoryCounts: map[domain.Category]int{},
		CategoryScores: map[domain.Category]float64{},
		Errors:         []domain.PipelineError{},
		Warnings:       []domain.PipelineError{},
		Summary: domain.CollectorSummary{
			ByStage:    map[domain.StageName]int{},
			ByDocument: map[string]int{},
		},
	}
}
