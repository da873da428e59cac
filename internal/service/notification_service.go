package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
)

// EventSink forwards events outside the process.
type EventSink interface {
	Send(ctx context.Context, event events.Event) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil, in which
// case events are only logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink EventSink) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestSubmitted, n.handleRequestSubmitted)
}

func (n *NotificationService) handleRequestSubmitted(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.String("tenant_id", event.TenantID),
	}
	if payload, ok := event.Payload.(events.RequestSubmittedPayload); ok {
		fields = append(fields, zap.String("priority", string(payload.Priority)))
		if payload.Priority == domain.PriorityHigh {
			n.logger.Warn("high priority maintenance request", fields...)
		}
	}
	n.logger.Info("RequestSubmitted", fields...)

	if n.sink == nil {
		return nil
	}
	return n.sink.Send(ctx, event)
}
