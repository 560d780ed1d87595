package ports

import (
	"context"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// SourceConnector supplies raw documents. Pagination, rate limiting and retry
// against the upstream API are its responsibility; returning fewer than limit
// signals exhaustion.
type SourceConnector interface {
	FetchBatch(ctx context.Context, limit int, filters domain.SourceFilters) ([]domain.RawDocument, error)
}

// CourtResolver maps a free-form court hint to a known court id.
type CourtResolver interface {
	ResolveCourt(ctx context.Context, hint string) (domain.CourtResolution, error)
}

// CitationExtractor finds structured citations in opinion text.
type CitationExtractor interface {
	ExtractCitations(ctx context.Context, text string) ([]domain.Citation, error)
}

// ReporterNormalizer maps a citation's reporter to its canonical edition.
type ReporterNormalizer interface {
	NormalizeReporter(ctx context.Context, cit domain.Citation) (domain.ReporterEdition, error)
}

// JudgeIdentifier extracts a judge name from content patterns or, for
// metadata-only documents, from metadata fields.
type JudgeIdentifier interface {
	IdentifyJudge(ctx context.Context, content string, metadata map[string]any) (domain.JudgeIdentification, error)
}

// StructureAnalyzer summarizes the narrative shape of an opinion.
type StructureAnalyzer interface {
	AnalyzeStructure(ctx context.Context, text string) (domain.DocumentStructure, error)
}

// KeywordExtractor pulls representative terms from opinion text.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// DocumentStore persists fully enhanced documents. Upsert is idempotent and
// keyed by the document's stable external id; a retry with better data only
// overwrites the fields it improves.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *domain.Document) error
}

// SearchIndex receives a flattened projection of the enhanced document.
// Index failures are reported but never invalidate the persistence result.
type SearchIndex interface {
	Index(ctx context.Context, doc *domain.Document) error
}

// CitationGraph records opinion-cites-citation edges. Optional sink.
type CitationGraph interface {
	RecordCitations(ctx context.Context, doc *domain.Document, citations []domain.Citation) error
}

// RunQueue publishes and consumes batch run requests.
type RunQueue interface {
	PublishRunRequest(ctx context.Context, req domain.RunRequest) error
	SubscribeRunRequests(ctx context.Context, handler func(context.Context, domain.RunRequest) error) error
}
