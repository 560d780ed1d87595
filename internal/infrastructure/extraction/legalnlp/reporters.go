package legalnlp

import (
	"context"
	"strings"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// Normalization table: reporter spelling variants mapped to their canonical
// edition.
var reporterEditions = map[string]string{
	"U.S.":        "U.S.",
	"U. S.":       "U.S.",
	"S. Ct.":      "S. Ct.",
	"S.Ct.":       "S. Ct.",
	"L. Ed.":      "L. Ed.",
	"L. Ed. 2d":   "L. Ed. 2d",
	"F.":          "F.",
	"F.2d":        "F.2d",
	"F. 2d":       "F.2d",
	"F.3d":        "F.3d",
	"F. 3d":       "F.3d",
	"F.4th":       "F.4th",
	"F. 4th":      "F.4th",
	"F. Supp.":    "F. Supp.",
	"F.Supp.":     "F. Supp.",
	"F. Supp. 2d": "F. Supp. 2d",
	"F. Supp. 3d": "F. Supp. 3d",
	"A.2d":        "A.2d",
	"A.3d":        "A.3d",
	"P.2d":        "P.2d",
	"P.3d":        "P.3d",
	"N.E.2d":      "N.E.2d",
	"N.E.3d":      "N.E.3d",
	"S.W.2d":      "S.W.2d",
	"S.W.3d":      "S.W.3d",
	"So. 3d":      "So. 3d",
	"So.3d":       "So. 3d",
}

// ReporterNormalizer maps a citation's reporter to its canonical edition.
type ReporterNormalizer struct{}

func NewReporterNormalizer() *ReporterNormalizer {
	return &ReporterNormalizer{}
}

func (n *ReporterNormalizer) NormalizeReporter(_ context.Context, cit domain.Citation) (domain.ReporterEdition, error) {
	reporter := strings.TrimSpace(cit.Reporter)
	if reporter == "" {
		return domain.ReporterEdition{}, nil
	}
	if edition, ok := reporterEditions[reporter]; ok {
		return domain.ReporterEdition{Edition: edition, Found: true}, nil
	}
	// Try with collapsed internal spacing before giving up.
	if edition, ok := reporterEditions[strings.Join(strings.Fields(reporter), " ")]; ok {
		return domain.ReporterEdition{Edition: edition, Found: true}, nil
	}
	return domain.ReporterEdition{}, nil
}
