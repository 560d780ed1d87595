package legalnlp

import (
	"context"
	"regexp"
	"strings"

	"github.com/openjurist/enhancer/internal/core/domain"
)

var (
	// Roman-numeral or lettered section headings on their own line.
	sectionPattern    = regexp.MustCompile(`(?m)^\s*(?:[IVX]{1,5}|[A-Z])\.\s+\S`)
	conclusionPattern = regexp.MustCompile(`(?i)(?:IT IS SO ORDERED|for the foregoing reasons|we affirm|we reverse|judgment is affirmed|conclusion)`)
	dissentPattern    = regexp.MustCompile(`(?i)(?:dissenting|I respectfully dissent|concurring in part)`)
)

// StructureAnalyzer summarizes the narrative shape of an opinion.
type StructureAnalyzer struct{}

func NewStructureAnalyzer() *StructureAnalyzer {
	return &StructureAnalyzer{}
}

func (a *StructureAnalyzer) AnalyzeStructure(_ context.Context, text string) (domain.DocumentStructure, error) {
	if strings.TrimSpace(text) == "" {
		return domain.DocumentStructure{}, nil
	}

	paragraphs := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			paragraphs++
		}
	}

	return domain.DocumentStructure{
		Paragraphs:    paragraphs,
		Sections:      len(sectionPattern.FindAllString(text, -1)),
		HasConclusion: conclusionPattern.MatchString(text),
		HasDissent:    dissentPattern.MatchString(text),
	}, nil
}
