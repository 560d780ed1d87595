package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openjurist/enhancer/internal/core/domain"
)

type sourceFake struct {
	docs []domain.RawDocument
	err  error
}

func (f *sourceFake) FetchBatch(context.Context, int, domain.SourceFilters) ([]domain.RawDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type courtFake struct {
	resolution domain.CourtResolution
	errFor     map[string]error
}

func (f *courtFake) ResolveCourt(_ context.Context, hint string) (domain.CourtResolution, error) {
	if err := f.errFor[hint]; err != nil {
		return domain.CourtResolution{}, err
	}
	return f.resolution, nil
}

type citationsFake struct {
	citations []domain.Citation
	err       error
}

func (f *citationsFake) ExtractCitations(context.Context, string) ([]domain.Citation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.citations, nil
}

type reportersFake struct {
	mu    sync.Mutex
	seen  []string
	found bool
}

func (f *reportersFake) NormalizeReporter(_ context.Context, cit domain.Citation) (domain.ReporterEdition, error) {
	f.mu.Lock()
	f.seen = append(f.seen, cit.Reporter)
	f.mu.Unlock()
	if !f.found {
		return domain.ReporterEdition{}, nil
	}
	return domain.ReporterEdition{Edition: cit.Reporter, Found: true}, nil
}

type judgesFake struct {
	mu           sync.Mutex
	name         string
	source       string
	metadataSeen bool
}

func (f *judgesFake) IdentifyJudge(_ context.Context, _ string, metadata map[string]any) (domain.JudgeIdentification, error) {
	f.mu.Lock()
	if metadata != nil {
		f.metadataSeen = true
	}
	f.mu.Unlock()
	return domain.JudgeIdentification{Name: f.name, Source: f.source, Confidence: 0.9}, nil
}

type structureFake struct {
	structure domain.DocumentStructure
	panicMsg  string
}

func (f *structureFake) AnalyzeStructure(context.Context, string) (domain.DocumentStructure, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.structure, nil
}

type keywordsFake struct {
	keywords []string
}

func (f *keywordsFake) ExtractKeywords(context.Context, string) ([]string, error) {
	return f.keywords, nil
}

type storeFake struct {
	mu       sync.Mutex
	upserted []*domain.Document
	err      error
}

func (f *storeFake) Upsert(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.upserted = append(f.upserted, doc)
	f.mu.Unlock()
	return nil
}

func (f *storeFake) byID(id string) *domain.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.upserted {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

type indexFake struct {
	mu      sync.Mutex
	indexed int
	err     error
}

func (f *indexFake) Index(context.Context, *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.indexed++
	f.mu.Unlock()
	return nil
}

type graphFake struct {
	err error
}

func (f *graphFake) RecordCitations(context.Context, *domain.Document, []domain.Citation) error {
	return f.err
}

func opinionContent() string {
	return strings.Repeat("The court finds the argument unpersuasive. ", 150)
}

func testDeps(source *sourceFake, store *storeFake, index *indexFake) EnhancerDeps {
	return EnhancerDeps{
		Source: source,
		Courts: &courtFake{resolution: domain.CourtResolution{
			Resolved: true, CourtID: "scotus", CourtName: "Supreme Court of the United States",
		}},
		Citations: &citationsFake{citations: []domain.Citation{
			{Text: "410 U.S. 113", Volume: "410", Reporter: "U.S.", Page: "113"},
			{Text: "347 U.S. 483", Volume: "347", Reporter: "U.S.", Page: "483"},
		}},
		Reporters: &reportersFake{found: true},
		Judges:    &judgesFake{name: "John Roberts", source: "content:signature"},
		Structure: &structureFake{structure: domain.DocumentStructure{Paragraphs: 12, Sections: 3, HasConclusion: true}},
		Keywords:  &keywordsFake{keywords: []string{"jurisdiction", "standing"}},
		Store:     store,
		Index:     index,
	}
}

func singleWorkerOptions() domain.BatchOptions {
	return domain.BatchOptions{Limit: 10, Workers: 1, StageTimeout: time.Second}
}

func TestEnhanceBatchFullOpinion(t *testing.T) {
	store := &storeFake{}
	index := &indexFake{}
	source := &sourceFake{docs: []domain.RawDocument{{
		ID:           "op-1",
		CaseNumber:   "21-123",
		DocumentType: "opinion",
		Content:      opinionContent(),
		MetadataBlob: map[string]any{"court": "scotus"},
	}}}

	uc := NewEnhanceBatchUseCase(testDeps(source, store, index))
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	if report.DocumentsAttempted != 1 || report.DocumentsProcessed != 1 || report.DocumentsDropped != 0 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/0",
			report.DocumentsAttempted, report.DocumentsProcessed, report.DocumentsDropped)
	}
	if report.CategoryCounts[domain.CategoryFullOpinion] != 1 {
		t.Fatalf("expected one full opinion, got %v", report.CategoryCounts)
	}

	doc := store.byID("op-1")
	if doc == nil {
		t.Fatal("expected op-1 persisted")
	}
	for _, stage := range domain.StageOrder {
		res, ok := doc.Enhancements[stage]
		if !ok {
			t.Fatalf("stage %s has no entry", stage)
		}
		if res.Kind != domain.KindResolved {
			t.Fatalf("stage %s = %s (%s), want resolved", stage, res.Kind, res.Reason)
		}
	}

	// court 20 + 2 citations at 2 each + judge 20 + structure 15 + keywords 15.
	if doc.QualityScore != 74 {
		t.Fatalf("quality score = %v, want 74", doc.QualityScore)
	}
	if doc.CourtID() != "scotus" {
		t.Fatalf("court id = %q, want scotus", doc.CourtID())
	}
	if doc.Metadata["category"] != string(domain.CategoryFullOpinion) {
		t.Fatalf("category not folded into metadata: %v", doc.Metadata["category"])
	}
	if index.indexed != 1 {
		t.Fatalf("indexed = %d, want 1", index.indexed)
	}
}

func TestEnhanceBatchMetadataDocumentRouting(t *testing.T) {
	store := &storeFake{}
	judges := &judgesFake{name: "Jane Doe", source: "metadata:assigned_to"}
	source := &sourceFake{docs: []domain.RawDocument{{
		ID:           "dk-1",
		CaseNumber:   "1:24-cv-100",
		DocumentType: "docket",
		MetadataBlob: map[string]any{
			"court":       "nysd",
			"assigned_to": "Jane Doe",
			"case_name":   "Doe v. Roe",
			"date_filed":  "2024-01-02",
		},
	}}}

	deps := testDeps(source, store, &indexFake{})
	deps.Judges = judges
	deps.Courts = &courtFake{resolution: domain.CourtResolution{
		Resolved: true, CourtID: "nysd", CourtName: "S.D.N.Y.",
	}}

	uc := NewEnhanceBatchUseCase(deps)
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	doc := store.byID("dk-1")
	if doc == nil {
		t.Fatal("expected dk-1 persisted")
	}
	if doc.Category != domain.CategoryMetadataDocument {
		t.Fatalf("category = %s, want metadata_document", doc.Category)
	}
	for _, stage := range []domain.StageName{domain.StageCitations, domain.StageReporters, domain.StageStructure, domain.StageKeywords} {
		if doc.Enhancements[stage].Kind != domain.KindSkipped {
			t.Fatalf("stage %s = %s, want skipped", stage, doc.Enhancements[stage].Kind)
		}
	}
	if !judges.metadataSeen {
		t.Fatal("judge identification should have received metadata")
	}
	if doc.Judge() != "Jane Doe" {
		t.Fatalf("judge = %q, want Jane Doe", doc.Judge())
	}

	// court 40 + judge 40 + completeness 20 * 2/4 fields present.
	if doc.QualityScore != 90 {
		t.Fatalf("quality score = %v, want 90", doc.QualityScore)
	}
	if report.StageCounts[domain.StageCitations].Skipped != 1 {
		t.Fatalf("citations skipped count = %d, want 1", report.StageCounts[domain.StageCitations].Skipped)
	}
}

func TestEnhanceBatchStrictModeDropsInvalidDocuments(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "", DocumentType: "opinion", Content: opinionContent()},
		{ID: "ok-1", DocumentType: "opinion", Content: opinionContent()},
	}}

	uc := NewEnhanceBatchUseCase(testDeps(source, store, &indexFake{}))
	opts := singleWorkerOptions()
	opts.Strict = true
	report, err := uc.EnhanceBatch(context.Background(), opts)
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	if report.DocumentsAttempted != 2 || report.DocumentsProcessed != 1 || report.DocumentsDropped != 1 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/1",
			report.DocumentsAttempted, report.DocumentsProcessed, report.DocumentsDropped)
	}
	if report.Summary.ValidationFailureCount != 1 {
		t.Fatalf("validation failures = %d, want 1", report.Summary.ValidationFailureCount)
	}
	if store.byID("ok-1") == nil {
		t.Fatal("valid document must still be processed")
	}
}

func TestEnhanceBatchLenientModeFlagsInvalidDocuments(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "", DocumentType: "opinion", Content: opinionContent()},
	}}

	uc := NewEnhanceBatchUseCase(testDeps(source, store, &indexFake{}))
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	if report.DocumentsProcessed != 1 || report.DocumentsDropped != 0 {
		t.Fatalf("counts = %d processed / %d dropped, want 1/0",
			report.DocumentsProcessed, report.DocumentsDropped)
	}

	store.mu.Lock()
	doc := store.upserted[0]
	store.mu.Unlock()
	if flagged, _ := doc.Metadata["validation_flagged"].(bool); !flagged {
		t.Fatal("lenient mode must flag the invalid document")
	}
}

func TestEnhanceBatchIsolatesStageFailures(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "bad-1", DocumentType: "opinion", Content: opinionContent(), MetadataBlob: map[string]any{"court": "broken"}},
		{ID: "good-1", DocumentType: "opinion", Content: opinionContent(), MetadataBlob: map[string]any{"court": "scotus"}},
	}}

	deps := testDeps(source, store, &indexFake{})
	deps.Courts = &courtFake{
		resolution: domain.CourtResolution{Resolved: true, CourtID: "scotus", CourtName: "Supreme Court"},
		errFor:     map[string]error{"broken": errors.New("resolver down")},
	}

	uc := NewEnhanceBatchUseCase(deps)
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("one failing stage must not fail the batch: %v", err)
	}

	if report.DocumentsProcessed != 2 {
		t.Fatalf("processed = %d, want 2", report.DocumentsProcessed)
	}
	if report.StageCounts[domain.StageCourt].Failed != 1 {
		t.Fatalf("court failed count = %d, want 1", report.StageCounts[domain.StageCourt].Failed)
	}

	bad := store.byID("bad-1")
	if bad == nil {
		t.Fatal("failing document must still be persisted")
	}
	if bad.Enhancements[domain.StageCourt].Kind != domain.KindUnresolved {
		t.Fatalf("court stage = %s, want unresolved", bad.Enhancements[domain.StageCourt].Kind)
	}
	if bad.Enhancements[domain.StageJudge].Kind != domain.KindResolved {
		t.Fatal("later stages must still run after a stage failure")
	}

	good := store.byID("good-1")
	if good == nil || good.CourtID() != "scotus" {
		t.Fatal("sibling document must be unaffected")
	}
}

func TestEnhanceBatchRecoversFromStagePanic(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "op-1", DocumentType: "opinion", Content: opinionContent()},
	}}

	deps := testDeps(source, store, &indexFake{})
	deps.Structure = &structureFake{panicMsg: "nil dereference"}

	uc := NewEnhanceBatchUseCase(deps)
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("a panicking collaborator must not fail the batch: %v", err)
	}

	doc := store.byID("op-1")
	if doc == nil {
		t.Fatal("document must still be persisted")
	}
	if doc.Enhancements[domain.StageStructure].Kind != domain.KindUnresolved {
		t.Fatalf("structure stage = %s, want unresolved", doc.Enhancements[domain.StageStructure].Kind)
	}
	if doc.Enhancements[domain.StageKeywords].Kind != domain.KindResolved {
		t.Fatal("stages after the panic must still run")
	}
	if report.StageCounts[domain.StageStructure].Failed != 1 {
		t.Fatalf("structure failed count = %d, want 1", report.StageCounts[domain.StageStructure].Failed)
	}
}

func TestEnhanceBatchSourceUnavailable(t *testing.T) {
	source := &sourceFake{err: errors.New("connection refused")}
	uc := NewEnhanceBatchUseCase(testDeps(source, &storeFake{}, &indexFake{}))

	_, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err == nil {
		t.Fatal("expected error when the source is down")
	}
	if !domain.IsKind(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source-unavailable kind, got %v", err)
	}
}

func TestEnhanceBatchEmptySource(t *testing.T) {
	uc := NewEnhanceBatchUseCase(testDeps(&sourceFake{}, &storeFake{}, &indexFake{}))

	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}
	if report.DocumentsAttempted != 0 || report.DocumentsProcessed != 0 {
		t.Fatalf("empty source must produce an empty report, got %+v", report)
	}
	if report.RunID == "" {
		t.Fatal("empty report must still carry a run id")
	}
}

func TestEnhanceBatchRecordsSinkFailures(t *testing.T) {
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "op-1", DocumentType: "opinion", Content: opinionContent()},
	}}

	deps := testDeps(source, &storeFake{err: errors.New("db down")}, &indexFake{err: errors.New("index locked")})
	uc := NewEnhanceBatchUseCase(deps)

	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("sink failures must not fail the batch: %v", err)
	}
	if report.PersistFailures != 1 {
		t.Fatalf("persist failures = %d, want 1", report.PersistFailures)
	}
	if report.IndexFailures != 1 {
		t.Fatalf("index failures = %d, want 1", report.IndexFailures)
	}
	if report.DocumentsProcessed != 1 {
		t.Fatalf("processed = %d, want 1", report.DocumentsProcessed)
	}
}

func TestEnhanceBatchGraphFailureIsWarningOnly(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "op-1", DocumentType: "opinion", Content: opinionContent()},
	}}

	deps := testDeps(source, store, &indexFake{})
	deps.Graph = &graphFake{err: errors.New("neo4j unreachable")}

	uc := NewEnhanceBatchUseCase(deps)
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}
	if report.Summary.ErrorCount != 0 {
		t.Fatalf("graph failure must not be an error, got %v", report.Errors)
	}
	if report.Summary.WarningCount == 0 {
		t.Fatal("graph failure must be recorded as a warning")
	}
}

func TestEnhanceBatchCancelledBeforeDispatch(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "op-1", DocumentType: "opinion", Content: opinionContent()},
		{ID: "op-2", DocumentType: "opinion", Content: opinionContent()},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewEnhanceBatchUseCase(testDeps(source, store, &indexFake{}))
	report, err := uc.EnhanceBatch(ctx, singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	if report.DocumentsProcessed != 0 {
		t.Fatalf("processed = %d, want 0 after cancellation", report.DocumentsProcessed)
	}
	if report.DocumentsAttempted != report.DocumentsProcessed+report.DocumentsDropped {
		t.Fatalf("attempted %d != processed %d + dropped %d",
			report.DocumentsAttempted, report.DocumentsProcessed, report.DocumentsDropped)
	}
}

func TestEnhanceBatchConcurrentWorkers(t *testing.T) {
	store := &storeFake{}
	docs := make([]domain.RawDocument, 20)
	for i := range docs {
		docs[i] = domain.RawDocument{
			ID:           "op-" + string(rune('a'+i)),
			DocumentType: "opinion",
			Content:      opinionContent(),
		}
	}
	source := &sourceFake{docs: docs}

	uc := NewEnhanceBatchUseCase(testDeps(source, store, &indexFake{}))
	opts := domain.BatchOptions{Limit: 20, Workers: 4, StageTimeout: time.Second}
	report, err := uc.EnhanceBatch(context.Background(), opts)
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}
	if report.DocumentsProcessed != 20 {
		t.Fatalf("processed = %d, want 20", report.DocumentsProcessed)
	}
	if report.QualityScore < 0 || report.QualityScore > 100 {
		t.Fatalf("quality score %v out of bounds", report.QualityScore)
	}
}

func TestEnhanceBatchSkipsReporterlessCitations(t *testing.T) {
	store := &storeFake{}
	reporters := &reportersFake{found: true}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "op-1", DocumentType: "opinion", Content: opinionContent()},
	}}

	deps := testDeps(source, store, &indexFake{})
	deps.Citations = &citationsFake{citations: []domain.Citation{
		{Text: "410 U.S. 113", Volume: "410", Reporter: "U.S.", Page: "113"},
		{Text: "slip op. at 4"},
	}}
	deps.Reporters = reporters

	uc := NewEnhanceBatchUseCase(deps)
	report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
	if err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	// The reporterless entry is excluded from normalization, not failed.
	if len(reporters.seen) != 1 || reporters.seen[0] != "U.S." {
		t.Fatalf("normalizer saw %v, want only U.S.", reporters.seen)
	}
	if report.StageCounts[domain.StageReporters].Failed != 0 {
		t.Fatal("reporterless citation must not count as a failure")
	}

	doc := store.byID("op-1")
	if doc.Enhancements[domain.StageReporters].Kind != domain.KindResolved {
		t.Fatalf("reporters stage = %s, want resolved", doc.Enhancements[domain.StageReporters].Kind)
	}
	if got := doc.Enhancements[domain.StageReporters].Fields["normalized"]; got != 1 {
		t.Fatalf("normalized = %v, want 1", got)
	}
}

func TestEnhanceBatchDeterministicScores(t *testing.T) {
	run := func() float64 {
		store := &storeFake{}
		source := &sourceFake{docs: []domain.RawDocument{
			{ID: "op-1", DocumentType: "opinion", Content: opinionContent(), MetadataBlob: map[string]any{"court": "scotus"}},
		}}
		uc := NewEnhanceBatchUseCase(testDeps(source, store, &indexFake{}))
		report, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions())
		if err != nil {
			t.Fatalf("EnhanceBatch: %v", err)
		}
		return report.QualityScore
	}

	if first, second := run(), run(); first != second {
		t.Fatalf("repeated runs diverged: %v vs %v", first, second)
	}
}

func TestEnhanceBatchSynthesizesCaseNumber(t *testing.T) {
	store := &storeFake{}
	source := &sourceFake{docs: []domain.RawDocument{
		{ID: "op-9", DocumentType: "opinion", Content: opinionContent()},
	}}

	uc := NewEnhanceBatchUseCase(testDeps(source, store, &indexFake{}))
	if _, err := uc.EnhanceBatch(context.Background(), singleWorkerOptions()); err != nil {
		t.Fatalf("EnhanceBatch: %v", err)
	}

	doc := store.byID("op-9")
	if doc == nil {
		t.Fatal("expected op-9 persisted")
	}
	if doc.CaseNumber != "case-op-9" {
		t.Fatalf("case number = %q, want case-op-9", doc.CaseNumber)
	}
}
