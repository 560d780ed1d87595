package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openjurist/enhancer/internal/core/domain"
	"github.com/openjurist/enhancer/internal/core/ports"
	"github.com/openjurist/enhancer/internal/core/validation"
)

const (
	defaultBatchLimit   = 100
	defaultWorkers      = 4
	defaultStageTimeout = 10 * time.Second
)

// StageObserver receives per-stage and per-document timings. Implemented by
// the prometheus pipeline metrics; optional.
type StageObserver interface {
	ObserveStage(stage domain.StageName, outcome string, duration time.Duration)
	ObserveDocument(category domain.Category, score float64)
}

// EnhancerDeps wires the orchestrator's collaborators. Graph and Observer may
// be nil; everything else is required.
type EnhancerDeps struct {
	Source     ports.SourceConnector
	Courts     ports.CourtResolver
	Citations  ports.CitationExtractor
	Reporters  ports.ReporterNormalizer
	Judges     ports.JudgeIdentifier
	Structure  ports.StructureAnalyzer
	Keywords   ports.KeywordExtractor
	Store      ports.DocumentStore
	Index      ports.SearchIndex
	Graph      ports.CitationGraph
	Classifier *Classifier
	Routing    RoutingPolicy
	Scoring    ScoringPolicy
	Observer   StageObserver
	Logger     *slog.Logger
}

// EnhanceBatchUseCase sequences the seven enhancement stages per document,
// isolates per-document failures and aggregates the run report. Documents are
// mutually independent and processed by a bounded worker pool; within one
// document the stages are strictly sequential.
type EnhanceBatchUseCase struct {
	deps EnhancerDeps
}

func NewEnhanceBatchUseCase(deps EnhancerDeps) *EnhanceBatchUseCase {
	if deps.Classifier == nil {
		deps.Classifier = NewClassifier(DefaultClassifierThresholds())
	}
	if deps.Routing == nil {
		deps.Routing = NewAdaptiveRouting(DefaultRoutingRules())
	}
	if deps.Scoring == nil {
		deps.Scoring = NewCategoryScoring(DefaultScoreWeights())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &EnhanceBatchUseCase{deps: deps}
}

func (uc *EnhanceBatchUseCase) EnhanceBatch(ctx context.Context, opts domain.BatchOptions) (*domain.RunReport, error) {
	opts = normalizeOptions(opts)
	runID := uuid.NewString()
	started := time.Now().UTC()
	logger := uc.deps.Logger.With("run_id", runID)

	raws, err := uc.deps.Source.FetchBatch(ctx, opts.Limit, opts.Filters)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "fetch batch", err)
	}
	if len(raws) == 0 {
		logger.Info("no documents to process")
		return emptyReport(runID, started), nil
	}

	collector := NewErrorCollector()
	docs, dropped := uc.admitDocuments(raws, opts.Strict, collector)

	builder := newReportBuilder()
	var wg sync.WaitGroup
	sem := make(chan struct{}, opts.Workers)
	cancelled := 0

	for _, doc := range docs {
		if ctx.Err() != nil {
			// Caller abort: stop dispatching, let in-flight documents finish.
			cancelled++
			collector.AddWarning("run cancelled before dispatch", domain.StageMetadata, doc.ID)
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		// In-flight documents run to completion and are recorded even if the
		// batch is cancelled mid-way; a document is never left half-written.
		procCtx := context.WithoutCancel(ctx)
		go func(doc *domain.Document) {
			defer wg.Done()
			defer func() { <-sem }()
			uc.enhanceOne(procCtx, doc, opts, collector, builder, logger)
		}(doc)
	}
	wg.Wait()

	report := builder.build(runID, started, len(raws), dropped+cancelled, collector)
	logger.Info("batch complete",
		"attempted", report.DocumentsAttempted,
		"processed", report.DocumentsProcessed,
		"dropped", report.DocumentsDropped,
		"quality_score", report.QualityScore,
		"errors", report.Summary.ErrorCount,
	)
	return report, nil
}

// admitDocuments normalizes raw documents, runs the document-level validation
// gate and assigns categories. Strict mode drops invalid documents; lenient
// mode flags them and lets them through.
func (uc *EnhanceBatchUseCase) admitDocuments(
	raws []domain.RawDocument,
	strict bool,
	collector *ErrorCollector,
) ([]*domain.Document, int) {
	docs := make([]*domain.Document, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		metadata, metaResult := validation.NormalizeMetadata(raw.MetadataBlob)

		doc := &domain.Document{
			ID:           raw.ID,
			CaseNumber:   raw.CaseNumber,
			DocumentType: raw.DocumentType,
			Content:      raw.Content,
			Metadata:     metadata,
			Enhancements: make(map[domain.StageName]domain.EnhancementResult, len(domain.StageOrder)),
		}
		if doc.CaseNumber == "" {
			doc.CaseNumber = synthesizeCaseNumber(doc.ID)
		}

		cleaned, result := validation.ValidateDocument(doc)
		result.Merge(metaResult)

		docID := cleaned.ID
		if docID == "" {
			docID = "(missing id)"
		}

		if !result.Valid {
			collector.AddValidationFailure(docID, domain.StageName("validation"), result)
			if strict {
				dropped++
				continue
			}
			cleaned.Metadata["validation_flagged"] = true
		} else {
			for _, msg := range result.Warnings {
				collector.AddWarning(msg, domain.StageName("validation"), docID)
			}
		}

		cleaned.Category = uc.deps.Classifier.Classify(&cleaned)
		docs = append(docs, &cleaned)
	}
	return docs, dropped
}

func (uc *EnhanceBatchUseCase) enhanceOne(
	ctx context.Context,
	doc *domain.Document,
	opts domain.BatchOptions,
	collector *ErrorCollector,
	builder *reportBuilder,
	logger *slog.Logger,
) {
	failed := uc.runStages(ctx, doc, opts.StageTimeout, collector)
	doc.QualityScore = uc.deps.Scoring.Score(doc)

	if final := validation.ValidateEnhanced(doc); !final.Valid {
		for _, msg := range final.Errors {
			collector.AddError(errors.New(msg), domain.StageName("verification"), doc.ID, nil)
		}
	}

	persistFailed, indexFailed := uc.sink(ctx, doc, collector)

	if uc.deps.Observer != nil {
		uc.deps.Observer.ObserveDocument(doc.Category, doc.QualityScore)
	}
	logger.Debug("document enhanced",
		"doc_id", doc.ID,
		"category", doc.Category,
		"score", doc.QualityScore,
	)

	builder.record(doc, failed, persistFailed, indexFailed)
}

// runStages executes the stage sequence for one document. A stage failure is
// recorded and converted to an unresolved entry; it never aborts the batch or
// the rest of this document's sequence.
func (uc *EnhanceBatchUseCase) runStages(
	ctx context.Context,
	doc *domain.Document,
	timeout time.Duration,
	collector *ErrorCollector,
) map[domain.StageName]bool {
	failed := make(map[domain.StageName]bool)

	for _, stage := range domain.StageOrder {
		if ok, reason := uc.deps.Routing.ShouldRun(stage, doc); !ok {
			doc.Enhancements[stage] = domain.Skipped(reason)
			if uc.deps.Observer != nil {
				uc.deps.Observer.ObserveStage(stage, "skipped", 0)
			}
			continue
		}

		start := time.Now()
		res, err := uc.runStage(ctx, stage, doc, timeout, collector)
		if err != nil {
			collector.AddError(err, stage, doc.ID, nil)
			res = domain.Unresolved(err.Error())
			failed[stage] = true
		}
		doc.Enhancements[stage] = res

		if uc.deps.Observer != nil {
			outcome := string(res.Kind)
			if failed[stage] {
				outcome = "failed"
			}
			uc.deps.Observer.ObserveStage(stage, outcome, time.Since(start))
		}
	}
	return failed
}

// runStage dispatches a single stage under a per-call timeout. Panics from
// collaborators are caught and surfaced as stage errors.
func (uc *EnhanceBatchUseCase) runStage(
	parent context.Context,
	stage domain.StageName,
	doc *domain.Document,
	timeout time.Duration,
	collector *ErrorCollector,
) (res domain.EnhancementResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panic: %v", stage, r)
		}
	}()

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	switch stage {
	case domain.StageCourt:
		return uc.resolveCourt(ctx, doc, collector)
	case domain.StageCitations:
		return uc.extractCitations(ctx, doc, collector)
	case domain.StageReporters:
		return uc.normalizeReporters(ctx, doc, collector)
	case domain.StageJudge:
		return uc.identifyJudge(ctx, doc, collector)
	case domain.StageStructure:
		return uc.analyzeStructure(ctx, doc)
	case domain.StageKeywords:
		return uc.extractKeywords(ctx, doc)
	case domain.StageMetadata:
		return uc.assembleMetadata(doc), nil
	default:
		return domain.EnhancementResult{}, fmt.Errorf("unknown stage %s", stage)
	}
}

func (uc *EnhanceBatchUseCase) resolveCourt(ctx context.Context, doc *domain.Document, collector *ErrorCollector) (domain.EnhancementResult, error) {
	hint := courtHint(doc)
	if hint == "" {
		return domain.Unresolved("no court hint available"), nil
	}

	resolution, err := uc.deps.Courts.ResolveCourt(ctx, hint)
	if err != nil {
		return domain.EnhancementResult{}, fmt.Errorf("resolve court: %w", err)
	}
	if !resolution.Resolved {
		return domain.Unresolved(resolution.Reason), nil
	}

	courtID, result := validation.ValidateCourtID(resolution.CourtID)
	if !result.Valid {
		collector.AddValidationFailure(doc.ID, domain.StageCourt, result)
		return domain.Unresolved("resolved court id failed validation"), nil
	}
	for _, msg := range result.Warnings {
		collector.AddWarning(msg, domain.StageCourt, doc.ID)
	}

	return domain.Resolved(map[string]any{
		"court_id":   courtID,
		"court_name": resolution.CourtName,
	}), nil
}

func (uc *EnhanceBatchUseCase) extractCitations(ctx context.Context, doc *domain.Document, collector *ErrorCollector) (domain.EnhancementResult, error) {
	cits, err := uc.deps.Citations.ExtractCitations(ctx, doc.Content)
	if err != nil {
		return domain.EnhancementResult{}, fmt.Errorf("extract citations: %w", err)
	}

	valid := make([]domain.Citation, 0, len(cits))
	for _, cit := range cits {
		cleaned, result := validation.ValidateCitation(cit)
		if !result.Valid {
			collector.AddValidationFailure(doc.ID, domain.StageCitations, result)
			continue
		}
		for _, msg := range result.Warnings {
			collector.AddWarning(msg, domain.StageCitations, doc.ID)
		}
		valid = append(valid, cleaned)
	}

	if len(valid) == 0 {
		return domain.Unresolved("no citations found"), nil
	}
	return domain.Resolved(map[string]any{
		"citations": valid,
		"count":     len(valid),
	}), nil
}

func (uc *EnhanceBatchUseCase) normalizeReporters(ctx context.Context, doc *domain.Document, collector *ErrorCollector) (domain.EnhancementResult, error) {
	cits := doc.Citations()
	editions := make(map[string]string)
	normalized := 0

	for _, cit := range cits {
		// Entries without a reporter cannot be normalized; they are excluded
		// from the normalized count rather than treated as failures.
		if cit.Reporter == "" {
			continue
		}
		edition, err := uc.deps.Reporters.NormalizeReporter(ctx, cit)
		if err != nil {
			return domain.EnhancementResult{}, fmt.Errorf("normalize reporter: %w", err)
		}
		if !edition.Found {
			continue
		}

		result := validation.ValidateReporter(cit.Reporter, edition.Edition)
		for _, msg := range result.Warnings {
			collector.AddWarning(msg, domain.StageReporters, doc.ID)
		}
		if !result.Valid {
			collector.AddValidationFailure(doc.ID, domain.StageReporters, result)
			continue
		}

		editions[cit.Reporter] = edition.Edition
		normalized++
	}

	if normalized == 0 {
		return domain.Unresolved("no reporters normalized"), nil
	}
	return domain.Resolved(map[string]any{
		"normalized": normalized,
		"total":      len(cits),
		"editions":   editions,
	}), nil
}

func (uc *EnhanceBatchUseCase) identifyJudge(ctx context.Context, doc *domain.Document, collector *ErrorCollector) (domain.EnhancementResult, error) {
	var identification domain.JudgeIdentification
	var err error

	// Metadata-only documents carry the assigned judge in a docket field;
	// narrative documents need content-pattern extraction.
	if doc.Category == domain.CategoryMetadataDocument {
		identification, err = uc.deps.Judges.IdentifyJudge(ctx, "", doc.Metadata)
	} else {
		identification, err = uc.deps.Judges.IdentifyJudge(ctx, doc.Content, nil)
	}
	if err != nil {
		return domain.EnhancementResult{}, fmt.Errorf("identify judge: %w", err)
	}
	if identification.Name == "" {
		return domain.Unresolved("no judge identified"), nil
	}

	name, result := validation.ValidateJudgeName(identification.Name)
	if !result.Valid {
		collector.AddValidationFailure(doc.ID, domain.StageJudge, result)
		return domain.Unresolved("judge name failed validation"), nil
	}
	for _, msg := range result.Warnings {
		collector.AddWarning(msg, domain.StageJudge, doc.ID)
	}

	return domain.Resolved(map[string]any{
		"judge":      name,
		"source":     identification.Source,
		"confidence": identification.Confidence,
	}), nil
}

func (uc *EnhanceBatchUseCase) analyzeStructure(ctx context.Context, doc *domain.Document) (domain.EnhancementResult, error) {
	structure, err := uc.deps.Structure.AnalyzeStructure(ctx, doc.Content)
	if err != nil {
		return domain.EnhancementResult{}, fmt.Errorf("analyze structure: %w", err)
	}
	if structure == (domain.DocumentStructure{}) {
		return domain.Unresolved("no discernible structure"), nil
	}
	return domain.Resolved(map[string]any{"structure": structure}), nil
}

func (uc *EnhanceBatchUseCase) extractKeywords(ctx context.Context, doc *domain.Document) (domain.EnhancementResult, error) {
	keywords, err := uc.deps.Keywords.ExtractKeywords(ctx, doc.Content)
	if err != nil {
		return domain.EnhancementResult{}, fmt.Errorf("extract keywords: %w", err)
	}
	if len(keywords) == 0 {
		return domain.Unresolved("no keywords found"), nil
	}
	return domain.Resolved(map[string]any{
		"keywords": keywords,
		"count":    len(keywords),
	}), nil
}

// assembleMetadata folds the prior stage outputs into the document's final
// persisted metadata. Always runs, always succeeds.
func (uc *EnhanceBatchUseCase) assembleMetadata(doc *domain.Document) domain.EnhancementResult {
	merged := 0

	if courtID := doc.CourtID(); courtID != "" {
		doc.Metadata["court_id"] = courtID
		doc.Metadata["court_name"] = doc.CourtName()
		merged++
	}
	if judge := doc.Judge(); judge != "" {
		doc.Metadata["judge"] = judge
		doc.Metadata["judge_source"] = doc.JudgeSource()
		merged++
	}
	if cits := doc.Citations(); len(cits) > 0 {
		doc.Metadata["citation_count"] = len(cits)
		merged++
	}
	if keywords := doc.Keywords(); len(keywords) > 0 {
		doc.Metadata["keywords"] = keywords
		merged++
	}
	if structure, ok := doc.Structure(); ok {
		doc.Metadata["structure"] = structure
		merged++
	}
	doc.Metadata["category"] = string(doc.Category)

	return domain.Resolved(map[string]any{"merged_fields": merged})
}

// sink hands the now-immutable document to persistence and index. An index
// failure is recorded but never invalidates the persistence result.
func (uc *EnhanceBatchUseCase) sink(ctx context.Context, doc *domain.Document, collector *ErrorCollector) (persistFailed, indexFailed bool) {
	if err := uc.deps.Store.Upsert(ctx, doc); err != nil {
		collector.AddError(fmt.Errorf("persist document: %w", err), domain.StageName("persist"), doc.ID, nil)
		persistFailed = true
	}

	if err := uc.deps.Index.Index(ctx, doc); err != nil {
		collector.AddError(fmt.Errorf("index document: %w", err), domain.StageName("index"), doc.ID, nil)
		indexFailed = true
	}

	if uc.deps.Graph != nil {
		if cits := doc.Citations(); len(cits) > 0 {
			if err := uc.deps.Graph.RecordCitations(ctx, doc, cits); err != nil {
				collector.AddWarning(fmt.Sprintf("citation graph: %v", err), domain.StageCitations, doc.ID)
			}
		}
	}
	return persistFailed, indexFailed
}

func courtHint(doc *domain.Document) string {
	for _, key := range []string{"court", "court_id", "court_name"} {
		if v, ok := doc.Metadata[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return doc.CaseNumber
}

func synthesizeCaseNumber(id string) string {
	if id == "" {
		return "case-unknown"
	}
	return "case-" + id
}

func normalizeOptions(opts domain.BatchOptions) domain.BatchOptions {
	if opts.Limit <= 0 {
		opts.Limit = defaultBatchLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = defaultStageTimeout
	}
	return opts
}
