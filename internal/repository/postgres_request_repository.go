package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const selectRequestColumns = `
        SELECT id, tenant_id, message, created_at, priority, resolved,
               keywords, urgency_classification, priority_score
        FROM maintenance_requests`

type postgresRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRequestRepository instantiates repository.
func NewPostgresRequestRepository(pool *pgxpool.Pool) MaintenanceRequestRepository {
	return &postgresRequestRepository{pool: pool}
}

func (r *postgresRequestRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	const query = `
        INSERT INTO maintenance_requests (id, tenant_id, message, created_at, priority, resolved,
                                          keywords, urgency_classification, priority_score)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.TenantID,
		req.Message,
		req.CreatedAt.UTC(),
		string(req.Priority),
		req.Resolved,
		nonNilKeywords(req.AnalyzedFactors.Keywords),
		string(req.AnalyzedFactors.UrgencyClassification),
		req.AnalyzedFactors.PriorityScore,
	)
	return err
}

func (r *postgresRequestRepository) List(ctx context.Context) ([]domain.MaintenanceRequest, error) {
	rows, err := r.pool.Query(ctx, selectRequestColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *postgresRequestRepository) ListByPriority(ctx context.Context, priority domain.Priority) ([]domain.MaintenanceRequest, error) {
	rows, err := r.pool.Query(ctx, selectRequestColumns+` WHERE priority=$1 ORDER BY created_at DESC`, string(priority))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *postgresRequestRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}

func scanRequests(rows pgx.Rows) ([]domain.MaintenanceRequest, error) {
	var result []domain.MaintenanceRequest
	for rows.Next() {
		var (
			req            domain.MaintenanceRequest
			priority       string
			classification string
		)
		if err := rows.Scan(
			&req.ID,
			&req.TenantID,
			&req.Message,
			&req.CreatedAt,
			&priority,
			&req.Resolved,
			&req.AnalyzedFactors.Keywords,
			&classification,
			&req.AnalyzedFactors.PriorityScore,
		); err != nil {
			return nil, err
		}
		req.CreatedAt = req.CreatedAt.UTC()
		req.Priority = domain.Priority(priority)
		req.AnalyzedFactors.UrgencyClassification = domain.Priority(classification)
		req.AnalyzedFactors.Keywords = nonNilKeywords(req.AnalyzedFactors.Keywords)
		result = append(result, req)
	}
	return result, rows.Err()
}
