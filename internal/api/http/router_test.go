package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/analysis"
	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

type memoryRepo struct {
	mu       sync.Mutex
	items    []domain.MaintenanceRequest
	failList bool
	pingErr  error
}

func (r *memoryRepo) Create(_ context.Context, req *domain.MaintenanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *req)
	return nil
}

func (r *memoryRepo) List(context.Context) ([]domain.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errors.New("table unavailable")
	}
	return append([]domain.MaintenanceRequest(nil), r.items...), nil
}

func (r *memoryRepo) ListByPriority(_ context.Context, p domain.Priority) ([]domain.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errors.New("table unavailable")
	}
	var out []domain.MaintenanceRequest
	for _, item := range r.items {
		if item.Priority == p {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memoryRepo) Ping(context.Context) error {
	return r.pingErr
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, string) (domain.AnalysisResult, error) {
	return domain.AnalysisResult{}, &analysis.UpstreamError{StatusCode: 503, Err: errors.New("unavailable")}
}

type apiFixture struct {
	app     *fiber.App
	repo    *memoryRepo
	metrics *observability.Metrics
}

func newAPI(t *testing.T, analyzer service.Analyzer) *apiFixture {
	t.Helper()
	repo := &memoryRepo{}
	metrics := observability.NewMetrics()

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := service.NewMaintenanceService(service.MaintenanceDependencies{
		RequestRepo: repo,
		Analyzer:    analyzer,
		Logger:      zap.NewNop(),
		Clock: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("maintenance-api", "test", map[string]handlers.Pinger{"storage": repo}),
		Metrics:  handlers.NewMetricsHandler(metrics),
		Requests: handlers.NewRequestsHandler(svc),
	})
	return &apiFixture{app: app, repo: repo, metrics: metrics}
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, raw []byte) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode error body %s: %v", raw, err)
	}
	return body
}

func TestSubmitClassifiesAndStores(t *testing.T) {
	api := newAPI(t, analysis.Local{})

	status, raw := do(t, api.app, fiber.MethodPost, "/requests",
		`{"tenantId":"tenant-7","message":"My toilet is leaking and flooding the bathroom!"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, body = %s", status, raw)
	}

	var resp dto.SubmitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("requestId missing")
	}
	if resp.Priority != domain.PriorityHigh || resp.AnalyzedFactors.UrgencyClassification != domain.PriorityHigh {
		t.Errorf("priority = %s, classification = %s", resp.Priority, resp.AnalyzedFactors.UrgencyClassification)
	}
	if resp.AnalyzedFactors.PriorityScore < 0.9 {
		t.Errorf("score = %v", resp.AnalyzedFactors.PriorityScore)
	}

	if len(api.repo.items) != 1 {
		t.Fatalf("stored %d items", len(api.repo.items))
	}
	stored := api.repo.items[0]
	if stored.ID != resp.RequestID || stored.TenantID != "tenant-7" || stored.Resolved {
		t.Errorf("stored = %+v", stored)
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "missing body", body: "", wantMsg: dto.MsgBodyMissing},
		{name: "bad json", body: `{"tenantId":`, wantMsg: dto.MsgInvalidJSON},
		{name: "missing tenant", body: `{"message":"leak"}`, wantMsg: dto.MsgTenantRequired},
		{name: "blank message", body: `{"tenantId":"t1","message":"   "}`, wantMsg: dto.MsgMessageRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newAPI(t, analysis.Local{})
			status, raw := do(t, api.app, fiber.MethodPost, "/requests", tt.body)
			if status != fiber.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", status, raw)
			}
			body := decodeError(t, raw)
			if body.Error != tt.wantMsg || body.Code != apperrors.CodeValidationFailed {
				t.Errorf("body = %+v", body)
			}
			if len(api.repo.items) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestSubmitAnalysisFailure(t *testing.T) {
	api := newAPI(t, failingAnalyzer{})

	status, raw := do(t, api.app, fiber.MethodPost, "/requests", `{"tenantId":"t1","message":"gas leak"}`)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", status, raw)
	}
	body := decodeError(t, raw)
	if body.Error != service.MsgSubmitFailed || body.Code != apperrors.CodeAnalysisFailed {
		t.Errorf("body = %+v", body)
	}
	if strings.Contains(string(raw), "unavailable") {
		t.Error("upstream detail leaked to client")
	}
	if len(api.repo.items) != 0 {
		t.Error("nothing should be stored after a failed analysis")
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	api := newAPI(t, analysis.Local{})
	for _, msg := range []string{"Burst pipe in kitchen", "Squeaky hinge on the door", "Sparking outlet"} {
		status, raw := do(t, api.app, fiber.MethodPost, "/requests", `{"tenantId":"t1","message":"`+msg+`"}`)
		if status != fiber.StatusCreated {
			t.Fatalf("submit %q: %d %s", msg, status, raw)
		}
	}

	status, raw := do(t, api.app, fiber.MethodGet, "/requests?priority=HIGH", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, body = %s", status, raw)
	}
	var list dto.ListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(list.Requests))
	}
	if list.Requests[0].Message != "Sparking outlet" || list.Requests[1].Message != "Burst pipe in kitchen" {
		t.Errorf("order = %q, %q", list.Requests[0].Message, list.Requests[1].Message)
	}
	for _, r := range list.Requests {
		if r.Priority != domain.PriorityHigh {
			t.Errorf("unexpected priority %s", r.Priority)
		}
	}

	status, raw = do(t, api.app, fiber.MethodGet, "/requests?priority=", "")
	if status != fiber.StatusOK {
		t.Fatalf("empty filter status = %d", status)
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Requests) != 3 {
		t.Errorf("unfiltered got %d requests, want 3", len(list.Requests))
	}
}

func TestListEmpty(t *testing.T) {
	api := newAPI(t, analysis.Local{})
	status, raw := do(t, api.app, fiber.MethodGet, "/requests", "")
	if status != fiber.StatusOK || string(raw) != `{"requests":[]}` {
		t.Fatalf("status = %d, body = %s", status, raw)
	}
}

func TestListInvalidPriority(t *testing.T) {
	api := newAPI(t, analysis.Local{})
	status, raw := do(t, api.app, fiber.MethodGet, "/requests?priority=bogus", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", status, raw)
	}
	if body := decodeError(t, raw); body.Error != service.MsgInvalidFilter {
		t.Errorf("error = %q", body.Error)
	}
}

func TestListStorageFailure(t *testing.T) {
	api := newAPI(t, analysis.Local{})
	api.repo.failList = true

	status, raw := do(t, api.app, fiber.MethodGet, "/requests", "")
	if status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", status, raw)
	}
	body := decodeError(t, raw)
	if body.Error != service.MsgListFailed || body.Code != apperrors.CodePersistenceFailed {
		t.Errorf("body = %+v", body)
	}
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	api := newAPI(t, analysis.Local{})
	status, raw := do(t, api.app, fiber.MethodGet, "/nope", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	if body := decodeError(t, raw); body.Code != apperrors.CodeNotFound {
		t.Errorf("body = %+v", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t, analysis.Local{})

	if status, raw := do(t, api.app, fiber.MethodGet, "/health/ready", ""); status != fiber.StatusOK {
		t.Fatalf("ready status = %d, body = %s", status, raw)
	}

	api.repo.pingErr = errors.New("down")
	status, raw := do(t, api.app, fiber.MethodGet, "/health/ready", "")
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, body = %s", status, raw)
	}

	do(t, api.app, fiber.MethodGet, "/requests?priority=bogus", "")
	status, raw = do(t, api.app, fiber.MethodGet, "/metrics", "")
	if status != fiber.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	var snap observability.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snap.Requests["/requests|GET|400"] != 1 {
		t.Errorf("requests = %v", snap.Requests)
	}
	if snap.Errors["/requests|GET|"+apperrors.CodeValidationFailed] != 1 {
		t.Errorf("errors = %v", snap.Errors)
	}
}

func TestRequestIDHeader(t *testing.T) {
	api := newAPI(t, analysis.Local{})
	req := httptest.NewRequest(fiber.MethodGet, "/health/live", nil)
	req.Header.Set(observability.RequestIDHeader, "abc-123")
	resp, err := api.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(observability.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func newAnalyzerApp() *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	RegisterAnalyzerRoutes(app,
		handlers.NewHealthHandler("analysis-service", "test", nil),
		handlers.NewAnalysisHandler())
	return app
}

func TestAnalyzerRoutes(t *testing.T) {
	app := newAnalyzerApp()

	status, raw := do(t, app, fiber.MethodPost, "/requests", `{"message":"Squeaky hinge on the door"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, body = %s", status, raw)
	}
	var resp dto.AnalysisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UrgencyClassification != domain.PriorityLow || resp.PriorityScore != 0.2 ||
		len(resp.Keywords) != 1 || resp.Keywords[0] != "squeaky hinge" {
		t.Errorf("resp = %+v", resp)
	}

	status, raw = do(t, app, fiber.MethodPost, "/requests", `{"message":""}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("empty message status = %d", status)
	}
	if body := decodeError(t, raw); body.Error != dto.MsgAnalyzeMessageRequired {
		t.Errorf("error = %q", body.Error)
	}

	status, raw = do(t, app, fiber.MethodGet, "/requests", "")
	if status != fiber.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", status)
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Message != handlers.MsgAnalyzeMethodNotAllowed {
		t.Errorf("405 body = %s", raw)
	}
}
