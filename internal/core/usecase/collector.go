package usecase

import (
	"sync"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// ErrorCollector accumulates errors, warnings and validation failures for one
// run. It is append-only, never fails, and safe for concurrent stage workers.
type ErrorCollector struct {
	mu                 sync.Mutex
	errors             []domain.PipelineError
	warnings           []domain.PipelineError
	validationFailures int
	byStage            map[domain.StageName]int
	byDocument         map[string]int
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		byStage:    make(map[domain.StageName]int),
		byDocument: make(map[string]int),
	}
}

func (c *ErrorCollector) AddError(err error, stage domain.StageName, documentID string, context map[string]any) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, domain.PipelineError{
		Stage:      stage,
		DocumentID: documentID,
		Message:    err.Error(),
		Context:    context,
	})
	c.byStage[stage]++
	c.byDocument[documentID]++
}

func (c *ErrorCollector) AddWarning(message string, stage domain.StageName, documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, domain.PipelineError{
		Stage:      stage,
		DocumentID: documentID,
		Message:    message,
	})
}

// AddValidationFailure records one failed validation with its individual
// errors folded into the error list and warnings kept non-fatal.
func (c *ErrorCollector) AddValidationFailure(documentID string, stage domain.StageName, result domain.ValidationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validationFailures++
	for _, msg := range result.Errors {
		c.errors = append(c.errors, domain.PipelineError{
			Stage:      stage,
			DocumentID: documentID,
			Message:    msg,
		})
		c.byStage[stage]++
		c.byDocument[documentID]++
	}
	for _, msg := range result.Warnings {
		c.warnings = append(c.warnings, domain.PipelineError{
			Stage:      stage,
			DocumentID: documentID,
			Message:    msg,
		})
	}
}

func (c *ErrorCollector) Summary() domain.CollectorSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	byStage := make(map[domain.StageName]int, len(c.byStage))
	for k, v := range c.byStage {
		byStage[k] = v
	}
	byDocument := make(map[string]int, len(c.byDocument))
	for k, v := range c.byDocument {
		byDocument[k] = v
	}
	return domain.CollectorSummary{
		ErrorCount:             len(c.errors),
		WarningCount:           len(c.warnings),
		ValidationFailureCount: c.validationFailures,
		ByStage:                byStage,
		ByDocument:             byDocument,
	}
}

func (c *ErrorCollector) Errors() []domain.PipelineError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.PipelineError, len(c.errors))
	copy(out, c.errors)
	return out
}

func (c *ErrorCollector) Warnings() []domain.PipelineError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.PipelineError, len(c.warnings))
	copy(out, c.warnings)
	return out
}
