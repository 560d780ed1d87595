package ports

import (
	"context"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// BatchEnhancer is the inbound contract for running one enhancement batch.
// It always returns a report on partial failure; only a source failure or a
// catastrophic setup error yields a nil report.
type BatchEnhancer interface {
	EnhanceBatch(ctx context.Context, opts domain.BatchOptions) (*domain.RunReport, error)
}
