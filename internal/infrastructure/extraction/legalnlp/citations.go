package legalnlp

import (
	"context"
	"regexp"
	"strings"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// Reporter alternation ordered longest-first so e.g. "F. Supp. 2d" wins over
// "F.".
var citationPattern = regexp.MustCompile(
	`(\d{1,4})\s+` +
		`(U\.\s?S\.|S\.\s?Ct\.|L\.\s?Ed\.\s?2d|L\.\s?Ed\.|` +
		`F\.\s?Supp\.\s?3d|F\.\s?Supp\.\s?2d|F\.\s?Supp\.|` +
		`F\.4th|F\.3d|F\.2d|F\.|` +
		`A\.3d|A\.2d|P\.3d|P\.2d|N\.E\.3d|N\.E\.2d|S\.W\.3d|S\.W\.2d|So\.\s?3d)` +
		`\s+(\d{1,5})`,
)

// CitationExtractor finds volume-reporter-page citations in opinion text.
type CitationExtractor struct{}

func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{}
}

func (e *CitationExtractor) ExtractCitations(ctx context.Context, text string) ([]domain.Citation, error) {
	if text == "" {
		return nil, nil
	}

	matches := citationPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]domain.Citation, 0, len(matches))

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := strings.Join(strings.Fields(m[0]), " ")
		if _, dup := seen[full]; dup {
			continue
		}
		seen[full] = struct{}{}

		out = append(out, domain.Citation{
			Text:     full,
			Volume:   m[1],
			Reporter: canonicalReporterSpacing(m[2]),
			Page:     m[3],
		})
	}
	return out, nil
}

// canonicalReporterSpacing collapses the spacing variants the pattern
// tolerates ("S.Ct." and "S. Ct." are the same reporter).
func canonicalReporterSpacing(reporter string) string {
	collapsed := strings.Join(strings.Fields(reporter), " ")
	switch collapsed {
	case "U. S.", "U.S.":
		return "U.S."
	case "S.Ct.", "S. Ct.":
		return "S. Ct."
	case "So.3d", "So. 3d":
		return "So. 3d"
	default:
		return collapsed
	}
}
