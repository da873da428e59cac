package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// Validation messages returned to API callers.
const (
	MsgBodyMissing     = "Request body is missing."
	MsgInvalidJSON     = "Invalid JSON in request body."
	MsgTenantRequired  = service.MsgTenantRequired
	MsgMessageRequired = service.MsgMessageRequired
)

// CreateRequestPayload is the raw POST /requests body. Fields are left
// untyped so a wrong JSON type is reported per field instead of as a
// generic decode failure.
type CreateRequestPayload struct {
	TenantID any `json:"tenantId"`
	Message  any `json:"message"`
}

// DecodeSubmitRequest validates a POST /requests body into a command.
// tenantId is checked before message.
func DecodeSubmitRequest(body []byte) (service.SubmitCommand, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return service.SubmitCommand{}, apperrors.NewValidationError(MsgBodyMissing, nil)
	}

	var payload CreateRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return service.SubmitCommand{}, apperrors.NewValidationError(MsgInvalidJSON, nil)
	}

	tenantID, ok := nonEmptyString(payload.TenantID)
	if !ok {
		return service.SubmitCommand{}, apperrors.NewValidationError(MsgTenantRequired, map[string]any{"field": "tenantId"})
	}
	message, ok := nonEmptyString(payload.Message)
	if !ok {
		return service.SubmitCommand{}, apperrors.NewValidationError(MsgMessageRequired, map[string]any{"field": "message"})
	}

	return service.SubmitCommand{TenantID: tenantID, Message: message}, nil
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// SubmitResponse is returned with 201 after a ticket is stored.
type SubmitResponse struct {
	RequestID       string           `json:"requestId"`
	Priority        domain.Priority  `json:"priority"`
	AnalyzedFactors AnalysisResponse `json:"analyzedFactors"`
}

// NewSubmitResponse builds the creation response for req.
func NewSubmitResponse(req *domain.MaintenanceRequest) SubmitResponse {
	return SubmitResponse{
		RequestID:       req.ID,
		Priority:        req.Priority,
		AnalyzedFactors: NewAnalysisResponse(req.AnalyzedFactors),
	}
}

// MaintenanceRequestResponse is a stored ticket as listed by GET /requests.
type MaintenanceRequestResponse struct {
	ID              string           `json:"id"`
	TenantID        string           `json:"tenantId"`
	Message         string           `json:"message"`
	CreatedAt       string           `json:"createdAt"`
	Priority        domain.Priority  `json:"priority"`
	Resolved        bool             `json:"resolved"`
	AnalyzedFactors AnalysisResponse `json:"analyzedFactors"`
}

// ListResponse wraps GET /requests results.
type ListResponse struct {
	Requests []MaintenanceRequestResponse `json:"requests"`
}

// NewListResponse converts stored tickets, keeping their order.
func NewListResponse(requests []domain.MaintenanceRequest) ListResponse {
	items := make([]MaintenanceRequestResponse, 0, len(requests))
	for i := range requests {
		r := &requests[i]
		items = append(items, MaintenanceRequestResponse{
			ID:              r.ID,
			TenantID:        r.TenantID,
			Message:         r.Message,
			CreatedAt:       domain.FormatTimestamp(r.CreatedAt),
			Priority:        r.Priority,
			Resolved:        r.Resolved,
			AnalyzedFactors: NewAnalysisResponse(r.AnalyzedFactors),
		})
	}
	return ListResponse{Requests: items}
}
