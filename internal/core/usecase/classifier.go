package usecase

import "github.com/openjurist/enhancer/internal/core/domain"

// ClassifierThresholds are the content-length cutoffs behind the category
// rules. They are configuration, not invariants; defaults mirror the upstream
// corpus heuristics.
type ClassifierThresholds struct {
	OpinionMinContent int
	OrderMinContent   int
}

func DefaultClassifierThresholds() ClassifierThresholds {
	return ClassifierThresholds{
		OpinionMinContent: 5000,
		OrderMinContent:   1000,
	}
}

// Classifier assigns a raw document to a category. Deterministic and
// side-effect-free; the category gates which stages are worth running, since
// metadata-only dockets rarely carry citations or narrative judge signatures.
type Classifier struct {
	thresholds ClassifierThresholds
}

func NewClassifier(thresholds ClassifierThresholds) *Classifier {
	def := DefaultClassifierThresholds()
	if thresholds.OpinionMinContent <= 0 {
		thresholds.OpinionMinContent = def.OpinionMinContent
	}
	if thresholds.OrderMinContent <= 0 {
		thresholds.OrderMinContent = def.OrderMinContent
	}
	return &Classifier{thresholds: thresholds}
}

var metadataDocumentTypes = map[string]struct{}{
	"docket":       {},
	"recap_docket": {},
	"civil_case":   {},
}

// Classify applies the first-match decision order over the source type hint
// and content length.
func (c *Classifier) Classify(doc *domain.Document) domain.Category {
	switch {
	case doc.DocumentType == "opinion" && len(doc.Content) > c.thresholds.OpinionMinContent:
		return domain.CategoryFullOpinion
	case isMetadataDocumentType(doc.DocumentType):
		return domain.CategoryMetadataDocument
	case doc.DocumentType == "order" && len(doc.Content) > c.thresholds.OrderMinContent:
		return domain.CategoryOrder
	default:
		return domain.CategoryUnknown
	}
}

func isMetadataDocumentType(documentType string) bool {
	_, ok := metadataDocumentTypes[documentType]
	return ok
}
