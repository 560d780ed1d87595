package legalnlp

import (
	"context"
	"regexp"
	"strings"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// Docket fields that carry the assigned judge, in lookup order.
var judgeMetadataKeys = []string{
	"assigned_to", "assignedTo", "judge", "author", "author_str", "referred_to",
}

var (
	// "Before SMITH, Circuit Judge" / "JONES, Chief Judge:"
	signaturePattern = regexp.MustCompile(
		`(?m)^\s*([A-Z][A-Za-z.'\-]+(?:\s+[A-Z][A-Za-z.'\-]+){0,3}),\s+(?:Chief\s+|Senior\s+)?(?:Circuit|District)?\s*(?:Judge|Justice)`)
	// "Judge John Smith" / "Justice Ruth Bader Ginsburg"
	titlePattern = regexp.MustCompile(
		`(?:Chief\s+)?(?:Judge|Justice)\s+([A-Z][A-Za-z.'\-]+(?:\s+[A-Z][A-Za-z.'\-]+){0,3})`)
)

const (
	judgeConfidenceMetadata = 0.9
	judgeConfidencePattern  = 0.6
)

// JudgeIdentifier finds the authoring or assigned judge. Metadata lookup is
// preferred when docket fields are supplied; otherwise signature and title
// patterns are tried against the content.
type JudgeIdentifier struct{}

func NewJudgeIdentifier() *JudgeIdentifier {
	return &JudgeIdentifier{}
}

func (j *JudgeIdentifier) IdentifyJudge(_ context.Context, content string, metadata map[string]any) (domain.JudgeIdentification, error) {
	if len(metadata) > 0 {
		for _, key := range judgeMetadataKeys {
			v, ok := metadata[key]
			if !ok {
				continue
			}
			name, ok := v.(string)
			if !ok || strings.TrimSpace(name) == "" {
				continue
			}
			return domain.JudgeIdentification{
				Name:       strings.TrimSpace(name),
				Source:     "metadata:" + key,
				Confidence: judgeConfidenceMetadata,
			}, nil
		}
	}

	if content == "" {
		return domain.JudgeIdentification{}, nil
	}

	if m := signaturePattern.FindStringSubmatch(content); m != nil {
		return domain.JudgeIdentification{
			Name:       m[1],
			Source:     "content:signature",
			Confidence: judgeConfidencePattern,
		}, nil
	}
	if m := titlePattern.FindStringSubmatch(content); m != nil {
		return domain.JudgeIdentification{
			Name:       m[1],
			Source:     "content:title",
			Confidence: judgeConfidencePattern,
		}, nil
	}
	return domain.JudgeIdentification{}, nil
}
