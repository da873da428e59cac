// Package lambda serves the classifier behind API Gateway HTTP APIs.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/analysis"
	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// AnalyzeHandler classifies API Gateway v2 requests.
type AnalyzeHandler struct {
	logger *zap.Logger
}

// NewAnalyzeHandler constructs handler.
func NewAnalyzeHandler(logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{logger: logger}
}

// Handle is passed to lambda.Start.
func (h *AnalyzeHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	if method != http.MethodPost {
		resp := jsonResponse(http.StatusMethodNotAllowed, map[string]string{"message": handlers.MsgAnalyzeMethodNotAllowed})
		resp.Headers["Allow"] = http.MethodPost
		return resp, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return errorResponse(apperrors.NewValidationError(dto.MsgInvalidJSON, nil)), nil
		}
		body = decoded
	}

	message, err := dto.DecodeAnalyzeRequest(body)
	if err != nil {
		return errorResponse(err), nil
	}

	result := analysis.Analyze(message)
	h.logger.Info("message analyzed",
		zap.String("aws_request_id", req.RequestContext.RequestID),
		zap.String("urgency_classification", string(result.UrgencyClassification)),
		zap.Float64("priority_score", result.PriorityScore))
	return jsonResponse(http.StatusOK, dto.NewAnalysisResponse(result)), nil
}

func errorResponse(err error) events.APIGatewayV2HTTPResponse {
	domainErr := apperrors.ToDomainError(err)
	body := map[string]any{"error": domainErr.Message, "code": domainErr.Code}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return jsonResponse(domainErr.HTTPStatus, body)
}

func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}
