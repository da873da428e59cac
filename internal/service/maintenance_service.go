package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// Analyzer classifies a maintenance message. Implementations may call a
// remote service; a failure means no classification is available.
type Analyzer interface {
	Analyze(ctx context.Context, message string) (domain.AnalysisResult, error)
}

// Client-facing messages for failed operations.
const (
	MsgTenantRequired  = "tenantId is required and must be a non-empty string."
	MsgMessageRequired = "message is required and must be a non-empty string."
	MsgSubmitFailed    = "An error occurred while processing the request. Please try again."
	MsgListFailed      = "An error occurred while retrieving requests."
	MsgInvalidFilter   = "Invalid 'priority' query parameter. Must be 'high', 'medium', or 'low'."
)

// MaintenanceService runs the ingestion pipeline and the query service.
type MaintenanceService struct {
	requests   repository.MaintenanceRequestRepository
	analyzer   Analyzer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// MaintenanceDependencies bundles collaborators for the service.
type MaintenanceDependencies struct {
	RequestRepo repository.MaintenanceRequestRepository
	Analyzer    Analyzer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() string
}

// SubmitCommand is a validated POST /requests body.
type SubmitCommand struct {
	TenantID string
	Message  string
}

// ListFilter narrows GET /requests. A nil Priority lists everything.
type ListFilter struct {
	Priority *domain.Priority
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(deps MaintenanceDependencies) *MaintenanceService {
	s := &MaintenanceService{
		requests:   deps.RequestRepo,
		analyzer:   deps.Analyzer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
		newID:      deps.IDGenerator,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Submit validates, classifies and stores a tenant message. Classification
// completes before anything is written; a failed call stores nothing.
func (s *MaintenanceService) Submit(ctx context.Context, cmd SubmitCommand) (*domain.MaintenanceRequest, error) {
	if strings.TrimSpace(cmd.TenantID) == "" {
		return nil, apperrors.NewValidationError(MsgTenantRequired, map[string]any{"field": "tenantId"})
	}
	if strings.TrimSpace(cmd.Message) == "" {
		return nil, apperrors.NewValidationError(MsgMessageRequired, map[string]any{"field": "message"})
	}

	req := &domain.MaintenanceRequest{
		ID:        s.newID(),
		TenantID:  cmd.TenantID,
		Message:   cmd.Message,
		CreatedAt: s.now().UTC(),
	}

	analysis, err := s.analyzer.Analyze(ctx, cmd.Message)
	if err != nil {
		s.logger.Error("analysis failed",
			zap.String("request_id", req.ID),
			zap.String("tenant_id", req.TenantID),
			zap.Error(err))
		return nil, apperrors.NewAnalysisError(MsgSubmitFailed, err)
	}

	req.AnalyzedFactors = analysis
	req.Priority = domain.ReconcilePriority(analysis)
	req.Resolved = false

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error("persist maintenance request failed",
			zap.String("request_id", req.ID),
			zap.String("tenant_id", req.TenantID),
			zap.String("message", req.Message),
			zap.String("created_at", domain.FormatTimestamp(req.CreatedAt)),
			zap.String("priority", string(req.Priority)),
			zap.Strings("keywords", analysis.Keywords),
			zap.String("urgency_classification", string(analysis.UrgencyClassification)),
			zap.Float64("priority_score", analysis.PriorityScore),
			zap.Error(err))
		return nil, apperrors.NewPersistenceError(MsgSubmitFailed, err)
	}

	s.logger.Info("maintenance request saved",
		zap.String("request_id", req.ID),
		zap.String("priority", string(req.Priority)),
		zap.String("urgency_classification", string(analysis.UrgencyClassification)),
		zap.Float64("priority_score", analysis.PriorityScore))

	s.publishEvent(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestSubmitted,
		RequestID: req.ID,
		TenantID:  req.TenantID,
		Timestamp: req.CreatedAt,
		Payload: events.RequestSubmittedPayload{
			Priority:              req.Priority,
			UrgencyClassification: analysis.UrgencyClassification,
			PriorityScore:         analysis.PriorityScore,
			Keywords:              analysis.Keywords,
		},
	})
	return req, nil
}

// ParseListFilter validates the raw priority query value. An empty value
// means no filter.
func ParseListFilter(raw string) (ListFilter, error) {
	if raw == "" {
		return ListFilter{}, nil
	}
	p, ok := domain.ParsePriority(raw)
	if !ok {
		return ListFilter{}, apperrors.NewValidationError(MsgInvalidFilter, map[string]any{"priority": raw})
	}
	return ListFilter{Priority: &p}, nil
}

// List returns stored tickets, newest first, on both the filtered and the
// unfiltered path.
func (s *MaintenanceService) List(ctx context.Context, filter ListFilter) ([]domain.MaintenanceRequest, error) {
	var (
		requests []domain.MaintenanceRequest
		err      error
	)
	if filter.Priority != nil {
		requests, err = s.requests.ListByPriority(ctx, *filter.Priority)
	} else {
		requests, err = s.requests.List(ctx)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError(MsgListFailed, err)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *MaintenanceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}
