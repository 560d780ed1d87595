package domain

// Category is the pipeline-assigned document category. It is derived once by
// the classifier and gates which enhancement stages run.
type Category string

const (
	CategoryFullOpinion      Category = "full_opinion"
	CategoryMetadataDocument Category = "metadata_document"
	CategoryOrder            Category = "order"
	CategoryUnknown          Category = "unknown"
)

// StageName identifies one of the seven enhancement stages.
type StageName string

const (
	StageCourt     StageName = "court"
	StageCitations StageName = "citations"
	StageReporters StageName = "reporters"
	StageJudge     StageName = "judge"
	StageStructure StageName = "structure"
	StageKeywords  StageName = "keywords"
	StageMetadata  StageName = "metadata"
)

// StageOrder is the fixed per-document stage sequence. Later stages may read
// the outputs of earlier ones (reporter normalization reads citation output).
var StageOrder = []StageName{
	StageCourt,
	StageCitations,
	StageReporters,
	StageJudge,
	StageStructure,
	StageKeywords,
	StageMetadata,
}

type EnhancementKind string

const (
	KindResolved   EnhancementKind = "resolved"
	KindUnresolved EnhancementKind = "unresolved"
	KindSkipped    EnhancementKind = "skipped"
)

// EnhancementResult is the single output of a stage run: the stage produced a
// value, ran but found nothing, or was intentionally not run.
type EnhancementResult struct {
	Kind   EnhancementKind `json:"kind"`
	Reason string          `json:"reason,omitempty"`
	Fields map[string]any  `json:"fields,omitempty"`
}

func Resolved(fields map[string]any) EnhancementResult {
	return EnhancementResult{Kind: KindResolved, Fields: fields}
}

func Unresolved(reason string) EnhancementResult {
	return EnhancementResult{Kind: KindUnresolved, Reason: reason}
}

func Skipped(reason string) EnhancementResult {
	return EnhancementResult{Kind: KindSkipped, Reason: reason}
}

// RawDocument is what the source connector delivers: content may be empty and
// the metadata blob may be a structured map or a string-encoded JSON object.
type RawDocument struct {
	ID           string
	CaseNumber   string
	DocumentType string
	Content      string
	MetadataBlob any
	PDFPath      string
}

// Document is the unit of work. It is mutated only by the orchestrator
// invoking stages in order and becomes immutable once handed to the sinks.
type Document struct {
	ID           string                          `json:"id"`
	CaseNumber   string                          `json:"case_number"`
	DocumentType string                          `json:"document_type"`
	Content      string                          `json:"content"`
	Metadata     map[string]any                  `json:"metadata"`
	Category     Category                        `json:"category"`
	Enhancements map[StageName]EnhancementResult `json:"enhancements"`
	QualityScore float64                         `json:"quality_score"`
}

// Citation is a structured reference extracted from opinion text. Volume and
// page are kept as extracted strings; validation parses and range-checks them.
type Citation struct {
	Text     string `json:"text"`
	Volume   string `json:"volume"`
	Reporter string `json:"reporter"`
	Page     string `json:"page"`
	Edition  string `json:"edition,omitempty"`
}

// CourtResolution is the court resolver collaborator output.
type CourtResolution struct {
	Resolved  bool
	CourtID   string
	CourtName string
	Reason    string
}

// ReporterEdition is the reporter normalizer collaborator output.
type ReporterEdition struct {
	Edition string
	Found   bool
}

// JudgeIdentification is the judge identifier collaborator output.
type JudgeIdentification struct {
	Name       string
	Source     string
	Confidence float64
}

// DocumentStructure summarizes the narrative shape of an opinion.
type DocumentStructure struct {
	Paragraphs    int  `json:"paragraphs"`
	Sections      int  `json:"sections"`
	HasConclusion bool `json:"has_conclusion"`
	HasDissent    bool `json:"has_dissent"`
}

// Enhancement accessors used by the persistence and index sinks so they can
// read stage outputs without knowing stage internals.

func (d *Document) enhancementField(stage StageName, key string) (any, bool) {
	res, ok := d.Enhancements[stage]
	if !ok || res.Kind != KindResolved {
		return nil, false
	}
	v, ok := res.Fields[key]
	return v, ok
}

func (d *Document) CourtID() string {
	v, _ := d.enhancementField(StageCourt, "court_id")
	s, _ := v.(string)
	return s
}

func (d *Document) CourtName() string {
	v, _ := d.enhancementField(StageCourt, "court_name")
	s, _ := v.(string)
	return s
}

func (d *Document) Judge() string {
	v, _ := d.enhancementField(StageJudge, "judge")
	s, _ := v.(string)
	return s
}

func (d *Document) JudgeSource() string {
	v, _ := d.enhancementField(StageJudge, "source")
	s, _ := v.(string)
	return s
}

func (d *Document) Citations() []Citation {
	v, _ := d.enhancementField(StageCitations, "citations")
	cits, _ := v.([]Citation)
	return cits
}

func (d *Document) Keywords() []string {
	v, _ := d.enhancementField(StageKeywords, "keywords")
	kws, _ := v.([]string)
	return kws
}

func (d *Document) Structure() (DocumentStructure, bool) {
	v, ok := d.enhancementField(StageStructure, "structure")
	if !ok {
		return DocumentStructure{}, false
	}
	st, ok := v.(DocumentStructure)
	return st, ok
}
