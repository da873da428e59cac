package analysis

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Local runs the classifier in-process.
type Local struct{}

// Analyze implements service.Analyzer.
func (Local) Analyze(ctx context.Context, message string) (domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, &UpstreamError{Err: err}
	}
	return Analyze(message), nil
}
