package repository

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// MaintenanceRequestRepository encapsulates ticket persistence. Writes are
// keyed by the ticket id; implementations make no ordering promise on reads.
type MaintenanceRequestRepository interface {
	Create(ctx context.Context, req *domain.MaintenanceRequest) error
	List(ctx context.Context) ([]domain.MaintenanceRequest, error)
	ListByPriority(ctx context.Context, priority domain.Priority) ([]domain.MaintenanceRequest, error)
	Ping(ctx context.Context) error
}

func nonNilKeywords(keywords []string) []string {
	if keywords == nil {
		return []string{}
	}
	return keywords
}
