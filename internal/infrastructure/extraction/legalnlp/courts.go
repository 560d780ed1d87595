// Package legalnlp holds the semantic extraction collaborators the pipeline
// calls through narrow contracts: court resolution, citation extraction,
// reporter normalization, judge identification, structure and keyword
// analysis. The implementations are deliberately table- and regex-based; the
// orchestrator depends only on the port signatures.
package legalnlp

import (
	"context"
	"strings"

	"github.com/openjurist/enhancer/internal/core/domain"
)

type court struct {
	id   string
	name string
}

var courtsByAlias = map[string]court{
	"scotus":                        {"scotus", "Supreme Court of the United States"},
	"supreme court":                 {"scotus", "Supreme Court of the United States"},
	"u.s. supreme court":            {"scotus", "Supreme Court of the United States"},
	"ca1":                           {"ca1", "Court of Appeals for the First Circuit"},
	"first circuit":                 {"ca1", "Court of Appeals for the First Circuit"},
	"ca2":                           {"ca2", "Court of Appeals for the Second Circuit"},
	"second circuit":                {"ca2", "Court of Appeals for the Second Circuit"},
	"ca3":                           {"ca3", "Court of Appeals for the Third Circuit"},
	"third circuit":                 {"ca3", "Court of Appeals for the Third Circuit"},
	"ca4":                           {"ca4", "Court of Appeals for the Fourth Circuit"},
	"fourth circuit":                {"ca4", "Court of Appeals for the Fourth Circuit"},
	"ca5":                           {"ca5", "Court of Appeals for the Fifth Circuit"},
	"fifth circuit":                 {"ca5", "Court of Appeals for the Fifth Circuit"},
	"ca6":                           {"ca6", "Court of Appeals for the Sixth Circuit"},
	"sixth circuit":                 {"ca6", "Court of Appeals for the Sixth Circuit"},
	"ca7":                           {"ca7", "Court of Appeals for the Seventh Circuit"},
	"seventh circuit":               {"ca7", "Court of Appeals for the Seventh Circuit"},
	"ca8":                           {"ca8", "Court of Appeals for the Eighth Circuit"},
	"eighth circuit":                {"ca8", "Court of Appeals for the Eighth Circuit"},
	"ca9":                           {"ca9", "Court of Appeals for the Ninth Circuit"},
	"ninth circuit":                 {"ca9", "Court of Appeals for the Ninth Circuit"},
	"ca10":                          {"ca10", "Court of Appeals for the Tenth Circuit"},
	"tenth circuit":                 {"ca10", "Court of Appeals for the Tenth Circuit"},
	"ca11":                          {"ca11", "Court of Appeals for the Eleventh Circuit"},
	"eleventh circuit":              {"ca11", "Court of Appeals for the Eleventh Circuit"},
	"cadc":                          {"cadc", "Court of Appeals for the D.C. Circuit"},
	"d.c. circuit":                  {"cadc", "Court of Appeals for the D.C. Circuit"},
	"cafc":                          {"cafc", "Court of Appeals for the Federal Circuit"},
	"federal circuit":               {"cafc", "Court of Appeals for the Federal Circuit"},
	"nysd":                          {"nysd", "Southern District of New York"},
	"s.d.n.y.":                      {"nysd", "Southern District of New York"},
	"southern district of new york": {"nysd", "Southern District of New York"},
	"nyed":                          {"nyed", "Eastern District of New York"},
	"e.d.n.y.":                      {"nyed", "Eastern District of New York"},
	"cand":                          {"cand", "Northern District of California"},
	"n.d. cal.":                     {"cand", "Northern District of California"},
	"northern district of california": {"cand", "Northern District of California"},
	"cacd":    {"cacd", "Central District of California"},
	"c.d. cal.": {"cacd", "Central District of California"},
	"dcd":     {"dcd", "District of Columbia"},
	"d.d.c.":  {"dcd", "District of Columbia"},
}

// CourtResolver maps free-form court hints to known court ids.
type CourtResolver struct{}

func NewCourtResolver() *CourtResolver {
	return &CourtResolver{}
}

func (r *CourtResolver) ResolveCourt(_ context.Context, hint string) (domain.CourtResolution, error) {
	normalized := strings.ToLower(strings.TrimSpace(hint))
	if normalized == "" {
		return domain.CourtResolution{Reason: "empty court hint"}, nil
	}

	if c, ok := courtsByAlias[normalized]; ok {
		return domain.CourtResolution{Resolved: true, CourtID: c.id, CourtName: c.name}, nil
	}

	// Longest alias contained in the hint wins; court names are frequently
	// embedded in captions and docket strings.
	var best court
	bestLen := 0
	for alias, c := range courtsByAlias {
		if len(alias) > bestLen && strings.Contains(normalized, alias) {
			best = c
			bestLen = len(alias)
		}
	}
	if bestLen > 0 {
		return domain.CourtResolution{Resolved: true, CourtID: best.id, CourtName: best.name}, nil
	}

	return domain.CourtResolution{Reason: "no court matched hint"}, nil
}
