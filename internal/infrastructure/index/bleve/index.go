// Package bleveindex is the full-text search sink. Enhanced documents are
// flattened into a denormalized projection before indexing; index failures
// are reported per document and never invalidate persistence.
package bleveindex

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/openjurist/enhancer/internal/core/domain"
)

type Index struct {
	index bleve.Index
}

// New creates or opens a bleve index at path. An existing index is reused so
// incremental runs do not force a full re-index; remove the directory after
// changing the mapping.
func New(path string) (*Index, error) {
	mapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize without stemming, so exact
	// legal terms like reporter abbreviations stay searchable.
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("case_number", textField)
	docMapping.AddFieldMappingsAt("court_name", textField)
	docMapping.AddFieldMappingsAt("judge", textField)
	docMapping.AddFieldMappingsAt("citations", textField)
	docMapping.AddFieldMappingsAt("content", textField)

	keywordField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordField)
	docMapping.AddFieldMappingsAt("category", keywordField)
	docMapping.AddFieldMappingsAt("court_id", keywordField)

	mapping.AddDocumentMapping("opinion", docMapping)
	mapping.DefaultType = "opinion"
	mapping.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open bleve index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, mapping)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// projection is the flattened document shape handed to bleve.
type projection struct {
	ID           string  `json:"id"`
	CaseNumber   string  `json:"case_number"`
	Category     string  `json:"category"`
	CourtID      string  `json:"court_id"`
	CourtName    string  `json:"court_name"`
	Judge        string  `json:"judge"`
	Citations    string  `json:"citations"`
	Content      string  `json:"content"`
	QualityScore float64 `json:"quality_score"`
}

func (i *Index) Index(_ context.Context, doc *domain.Document) error {
	texts := make([]string, 0, len(doc.Citations()))
	for _, cit := range doc.Citations() {
		texts = append(texts, cit.Text)
	}

	p := projection{
		ID:           doc.ID,
		CaseNumber:   doc.CaseNumber,
		Category:     string(doc.Category),
		CourtID:      doc.CourtID(),
		CourtName:    doc.CourtName(),
		Judge:        doc.Judge(),
		Citations:    strings.Join(texts, "; "),
		Content:      doc.Content,
		QualityScore: doc.QualityScore,
	}
	if err := i.index.Index(doc.ID, p); err != nil {
		return fmt.Errorf("index opinion: %w", err)
	}
	return nil
}

func (i *Index) Close() error {
	return i.index.Close()
}
