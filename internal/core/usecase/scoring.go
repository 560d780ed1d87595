package usecase

import "github.com/openjurist/enhancer/internal/core/domain"

// ScoringPolicy computes a 0-100 completeness/quality score for one document.
type ScoringPolicy interface {
	Score(doc *domain.Document) float64
}

// ScoreWeights carries the category-specific weightings. Carried over from
// the upstream corpus as found; treat as configuration.
type ScoreWeights struct {
	OpinionCourt       float64
	OpinionPerCitation float64
	OpinionCitationCap float64
	OpinionJudge       float64
	OpinionStructure   float64
	OpinionKeywords    float64

	MetadataCourt        float64
	MetadataJudge        float64
	MetadataCompleteness float64

	FlatBaseline float64
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		OpinionCourt:       20,
		OpinionPerCitation: 2,
		OpinionCitationCap: 30,
		OpinionJudge:       20,
		OpinionStructure:   15,
		OpinionKeywords:    15,

		MetadataCourt:        40,
		MetadataJudge:        40,
		MetadataCompleteness: 20,

		FlatBaseline: 50,
	}
}

// Metadata fields whose presence feeds the metadata-document completeness
// fraction. Both source spellings are accepted.
var completenessFields = [][]string{
	{"case_name", "caseName"},
	{"date_filed", "dateFiled"},
	{"docket_number", "docketNumber"},
	{"nature_of_suit", "natureOfSuit"},
}

// CategoryScoring is the default policy: weights by category, flat baseline
// for orders and unknowns where no finer signal exists.
type CategoryScoring struct {
	weights ScoreWeights
}

func NewCategoryScoring(weights ScoreWeights) *CategoryScoring {
	if weights == (ScoreWeights{}) {
		weights = DefaultScoreWeights()
	}
	return &CategoryScoring{weights: weights}
}

func (s *CategoryScoring) Score(doc *domain.Document) float64 {
	var score float64
	switch doc.Category {
	case domain.CategoryFullOpinion:
		score = s.scoreOpinion(doc)
	case domain.CategoryMetadataDocument:
		score = s.scoreMetadataDocument(doc)
	default:
		score = s.weights.FlatBaseline
	}
	return clampScore(score)
}

func (s *CategoryScoring) scoreOpinion(doc *domain.Document) float64 {
	var score float64
	if resolved(doc, domain.StageCourt) {
		score += s.weights.OpinionCourt
	}
	if n := len(doc.Citations()); n > 0 {
		contribution := float64(n) * s.weights.OpinionPerCitation
		if contribution > s.weights.OpinionCitationCap {
			contribution = s.weights.OpinionCitationCap
		}
		score += contribution
	}
	if resolved(doc, domain.StageJudge) {
		score += s.weights.OpinionJudge
	}
	if resolved(doc, domain.StageStructure) {
		score += s.weights.OpinionStructure
	}
	if resolved(doc, domain.StageKeywords) {
		score += s.weights.OpinionKeywords
	}
	return score
}

func (s *CategoryScoring) scoreMetadataDocument(doc *domain.Document) float64 {
	var score float64
	if resolved(doc, domain.StageCourt) {
		score += s.weights.MetadataCourt
	}
	if resolved(doc, domain.StageJudge) {
		score += s.weights.MetadataJudge
	}

	present := 0
	for _, aliases := range completenessFields {
		for _, key := range aliases {
			if v, ok := doc.Metadata[key]; ok && v != nil && v != "" {
				present++
				break
			}
		}
	}
	score += s.weights.MetadataCompleteness * float64(present) / float64(len(completenessFields))
	return score
}

func resolved(doc *domain.Document, stage domain.StageName) bool {
	res, ok := doc.Enhancements[stage]
	return ok && res.Kind == domain.KindResolved
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
