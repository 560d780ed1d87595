// Package validation holds the pure document and sub-entity validators.
// Validators never mutate their input; they return a cleaned copy alongside
// the result.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/openjurist/enhancer/internal/core/domain"
)

const (
	minContentLength = 100
	minJudgeLength   = 3
	maxJudgeLength   = 100
	maxVolume        = 9999
	maxPage          = 99999
	// Beyond these, a citation is still plausible but unusual enough to flag.
	typicalVolume = 999
	typicalPage   = 9999
)

var courtIDPattern = regexp.MustCompile(`^[a-z][a-z0-9.]{1,14}$`)

var knownCourtIDs = map[string]struct{}{
	"scotus": {}, "ca1": {}, "ca2": {}, "ca3": {}, "ca4": {}, "ca5": {},
	"ca6": {}, "ca7": {}, "ca8": {}, "ca9": {}, "ca10": {}, "ca11": {},
	"cadc": {}, "cafc": {}, "nysd": {}, "nyed": {}, "cand": {}, "cacd": {},
	"dcd": {}, "txnd": {}, "txsd": {}, "ilnd": {}, "flsd": {}, "mad": {},
}

var knownReporters = map[string]struct{}{
	"U.S.": {}, "S. Ct.": {}, "L. Ed.": {}, "L. Ed. 2d": {},
	"F.": {}, "F.2d": {}, "F.3d": {}, "F.4th": {},
	"F. Supp.": {}, "F. Supp. 2d": {}, "F. Supp. 3d": {},
	"A.2d": {}, "A.3d": {}, "P.2d": {}, "P.3d": {},
	"N.E.2d": {}, "N.E.3d": {}, "S.W.2d": {}, "S.W.3d": {}, "So. 3d": {},
}

var judgePlaceholders = map[string]struct{}{
	"unknown": {}, "n/a": {}, "none": {}, "tbd": {},
}

// NormalizeMetadata coerces a raw metadata blob (map or string-encoded JSON)
// to a structured map. Coercion failure is an error and substitutes an empty
// map so downstream code can assume the structured form.
func NormalizeMetadata(blob any) (map[string]any, domain.ValidationResult) {
	result := domain.NewValidationResult()

	switch v := blob.(type) {
	case nil:
		return map[string]any{}, result
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, result
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]any{}, result
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			result.AddError(fmt.Sprintf("metadata is not a map: %v", err))
			return map[string]any{}, result
		}
		return out, result
	default:
		result.AddError(fmt.Sprintf("metadata is not a map: unsupported type %T", blob))
		return map[string]any{}, result
	}
}

// ValidateDocument checks the document-level rules: id required, content
// present and of useful length (warnings), metadata already normalized.
func ValidateDocument(doc *domain.Document) (domain.Document, domain.ValidationResult) {
	result := domain.NewValidationResult()
	cleaned := *doc

	cleaned.ID = strings.TrimSpace(cleaned.ID)
	if cleaned.ID == "" {
		result.AddError("document id is required")
	}

	if cleaned.Content == "" {
		result.AddWarning("document content is empty")
	} else if len(cleaned.Content) < minContentLength {
		result.AddWarning(fmt.Sprintf("document content shorter than %d characters", minContentLength))
	}

	if cleaned.Metadata == nil {
		result.AddError("metadata is not a map")
		cleaned.Metadata = map[string]any{}
	}

	return cleaned, result
}

// ValidateCourtID accepts well-formed ids; unknown-but-well-formed ids are a
// warning, malformed ids are an error.
func ValidateCourtID(id string) (string, domain.ValidationResult) {
	result := domain.NewValidationResult()
	cleaned := strings.ToLower(strings.TrimSpace(id))

	if cleaned == "" {
		result.AddError("court id is required")
		return cleaned, result
	}
	if !courtIDPattern.MatchString(cleaned) {
		result.AddError(fmt.Sprintf("malformed court id %q", cleaned))
		return cleaned, result
	}
	if _, ok := knownCourtIDs[cleaned]; !ok {
		result.AddWarning(fmt.Sprintf("unrecognized court id %q", cleaned))
	}
	return cleaned, result
}

// ValidateCitation range-checks the extracted volume and page.
func ValidateCitation(cit domain.Citation) (domain.Citation, domain.ValidationResult) {
	result := domain.NewValidationResult()
	cleaned := cit
	cleaned.Text = strings.TrimSpace(cleaned.Text)

	if cleaned.Text == "" {
		result.AddError("citation text is required")
	}

	if cleaned.Volume != "" {
		vol, err := strconv.Atoi(cleaned.Volume)
		if err != nil || vol < 1 || vol > maxVolume {
			result.AddError("Invalid volume number")
		} else if vol > typicalVolume {
			result.AddWarning(fmt.Sprintf("volume %d outside typical range", vol))
		}
	}

	if cleaned.Page != "" {
		page, err := strconv.Atoi(cleaned.Page)
		if err != nil || page < 1 || page > maxPage {
			result.AddError("Invalid page number")
		} else if page > typicalPage {
			result.AddWarning(fmt.Sprintf("page %d outside typical range", page))
		}
	}

	return cleaned, result
}

// ValidateJudgeName rejects placeholders and implausible lengths; shouty or
// whispered names pass with a warning and a title-cased cleaned value.
func ValidateJudgeName(name string) (string, domain.ValidationResult) {
	result := domain.NewValidationResult()
	cleaned := strings.TrimSpace(name)

	if _, ok := judgePlaceholders[strings.ToLower(cleaned)]; ok {
		result.AddError(fmt.Sprintf("judge name %q is a placeholder", cleaned))
		return cleaned, result
	}
	if len(cleaned) < minJudgeLength || len(cleaned) > maxJudgeLength {
		result.AddError(fmt.Sprintf("judge name length %d outside %d-%d", len(cleaned), minJudgeLength, maxJudgeLength))
		return cleaned, result
	}

	hasLetter := strings.IndexFunc(cleaned, unicode.IsLetter) >= 0
	if hasLetter && (cleaned == strings.ToUpper(cleaned) || cleaned == strings.ToLower(cleaned)) {
		result.AddWarning("judge name has uniform casing")
		cleaned = titleCase(cleaned)
	}

	return cleaned, result
}

// ValidateReporter checks one normalization entry: original is required and a
// divergent edition must come from the known reporter set.
func ValidateReporter(original, edition string) domain.ValidationResult {
	result := domain.NewValidationResult()

	if strings.TrimSpace(original) == "" {
		result.AddError("reporter entry missing original field")
		return result
	}
	if edition != "" && edition != original {
		if _, ok := knownReporters[edition]; !ok {
			result.AddWarning(fmt.Sprintf("edition %q not in known reporter set", edition))
		}
	}
	return result
}

// ValidateEnhanced checks the final enriched record before it is handed to
// the sinks: every stage accounted for and the score in bounds.
func ValidateEnhanced(doc *domain.Document) domain.ValidationResult {
	result := domain.NewValidationResult()

	if doc.ID == "" {
		result.AddError("enhanced document lost its id")
	}
	if doc.Category == "" {
		result.AddError("enhanced document has no category")
	}
	for _, stage := range domain.StageOrder {
		if _, ok := doc.Enhancements[stage]; !ok {
			result.AddError(fmt.Sprintf("stage %s has no enhancement entry", stage))
		}
	}
	if doc.QualityScore < 0 || doc.QualityScore > 100 {
		result.AddError(fmt.Sprintf("quality score %.2f out of bounds", doc.QualityScore))
	}
	return result
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// KnownReporter reports whether edition belongs to the recognized set.
func KnownReporter(edition string) bool {
	_, ok := knownReporters[edition]
	return ok
}
