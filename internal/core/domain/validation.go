package domain

// ValidationResult carries invalidating errors and non-fatal warnings.
// Valid must equal len(Errors) == 0; warnings never affect validity.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func NewValidationResult() ValidationResult {
	return ValidationResult{Valid: true}
}

func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge folds another result into this one, preserving the Valid invariant.
func (r *ValidationResult) Merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	if len(r.Errors) > 0 {
		r.Valid = false
	}
}
