package usecase

import (
	"fmt"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// RoutingPolicy decides per stage and document whether the stage should run.
// A negative decision carries the skip reason recorded in the enhancement.
type RoutingPolicy interface {
	ShouldRun(stage domain.StageName, doc *domain.Document) (bool, string)
}

// RoutingRules are the adaptive-routing cutoffs; configuration, not invariants.
type RoutingRules struct {
	KeywordMinContent int
}

func DefaultRoutingRules() RoutingRules {
	return RoutingRules{KeywordMinContent: 1000}
}

// AdaptiveRouting is the canonical routing behavior: court resolution and
// metadata assembly always run, citation-adjacent stages are gated on
// category and on what earlier stages found.
type AdaptiveRouting struct {
	rules RoutingRules
}

func NewAdaptiveRouting(rules RoutingRules) *AdaptiveRouting {
	if rules.KeywordMinContent <= 0 {
		rules.KeywordMinContent = DefaultRoutingRules().KeywordMinContent
	}
	return &AdaptiveRouting{rules: rules}
}

func (r *AdaptiveRouting) ShouldRun(stage domain.StageName, doc *domain.Document) (bool, string) {
	switch stage {
	case domain.StageCourt, domain.StageJudge, domain.StageMetadata:
		return true, ""

	case domain.StageCitations:
		if doc.Category == domain.CategoryMetadataDocument {
			return false, "metadata documents rarely contain citations"
		}
		return true, ""

	case domain.StageReporters:
		if len(doc.Citations()) == 0 {
			return false, "no citations to normalize"
		}
		return true, ""

	case domain.StageStructure:
		if doc.Category == domain.CategoryMetadataDocument {
			return false, "metadata documents have no narrative structure"
		}
		return true, ""

	case domain.StageKeywords:
		if len(doc.Content) < r.rules.KeywordMinContent {
			return false, fmt.Sprintf("content shorter than %d characters", r.rules.KeywordMinContent)
		}
		return true, ""

	default:
		return false, fmt.Sprintf("unknown stage %s", stage)
	}
}
