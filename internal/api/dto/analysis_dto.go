package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/maintenance-service/internal/domain"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// MsgAnalyzeMessageRequired is returned when the analysis body lacks a message.
const MsgAnalyzeMessageRequired = "Field 'message' is required and must be a non-empty string."

// AnalyzeRequest is the classification service request body.
type AnalyzeRequest struct {
	Message string `json:"message"`
}

// DecodeAnalyzeRequest validates a classification request body and returns
// its message.
func DecodeAnalyzeRequest(body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", apperrors.NewValidationError(MsgBodyMissing, nil)
	}
	var payload struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", apperrors.NewValidationError(MsgInvalidJSON, nil)
	}
	message, ok := payload.Message.(string)
	if !ok || message == "" {
		return "", apperrors.NewValidationError(MsgAnalyzeMessageRequired, map[string]any{"field": "message"})
	}
	return message, nil
}

// AnalysisResponse is the classification service response body, also
// embedded as analyzedFactors in ticket responses.
type AnalysisResponse struct {
	Keywords              []string        `json:"keywords"`
	UrgencyClassification domain.Priority `json:"urgencyClassification"`
	PriorityScore         float64         `json:"priorityScore"`
}

// NewAnalysisResponse converts a domain result; keywords are never null.
func NewAnalysisResponse(a domain.AnalysisResult) AnalysisResponse {
	keywords := a.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return AnalysisResponse{
		Keywords:              keywords,
		UrgencyClassification: a.UrgencyClassification,
		PriorityScore:         a.PriorityScore,
	}
}

// ToDomain validates an upstream response.
func (r AnalysisResponse) ToDomain() (domain.AnalysisResult, error) {
	if !r.UrgencyClassification.Valid() {
		return domain.AnalysisResult{}, fmt.Errorf("unknown urgencyClassification %q", r.UrgencyClassification)
	}
	if r.PriorityScore < 0 || r.PriorityScore > 1 {
		return domain.AnalysisResult{}, fmt.Errorf("priorityScore %v out of range", r.PriorityScore)
	}
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return domain.AnalysisResult{
		Keywords:              keywords,
		UrgencyClassification: r.UrgencyClassification,
		PriorityScore:         r.PriorityScore,
	}, nil
}
