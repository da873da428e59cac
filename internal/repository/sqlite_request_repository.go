package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type sqliteRequestRepository struct {
	db *sql.DB
}

// NewSQLiteRequestRepository stores tickets in a SQLite database opened
// with the modernc.org/sqlite driver.
func NewSQLiteRequestRepository(db *sql.DB) MaintenanceRequestRepository {
	return &sqliteRequestRepository{db: db}
}

func (r *sqliteRequestRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	keywords, err := json.Marshal(nonNilKeywords(req.AnalyzedFactors.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO maintenance_requests (id, tenant_id, message, created_at, priority, resolved,
                                          keywords, urgency_classification, priority_score)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		req.ID,
		req.TenantID,
		req.Message,
		domain.FormatTimestamp(req.CreatedAt),
		string(req.Priority),
		req.Resolved,
		string(keywords),
		string(req.AnalyzedFactors.UrgencyClassification),
		req.AnalyzedFactors.PriorityScore,
	)
	return err
}

func (r *sqliteRequestRepository) List(ctx context.Context) ([]domain.MaintenanceRequest, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteRequests(rows)
}

func (r *sqliteRequestRepository) ListByPriority(ctx context.Context, priority domain.Priority) ([]domain.MaintenanceRequest, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelect+` WHERE priority = ? ORDER BY created_at DESC`, string(priority))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteRequests(rows)
}

func (r *sqliteRequestRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const sqliteSelect = `
        SELECT id, tenant_id, message, created_at, priority, resolved,
               keywords, urgency_classification, priority_score
        FROM maintenance_requests`

func scanSQLiteRequests(rows *sql.Rows) ([]domain.MaintenanceRequest, error) {
	var result []domain.MaintenanceRequest
	for rows.Next() {
		var (
			req            domain.MaintenanceRequest
			createdAt      string
			priority       string
			keywords       string
			classification string
		)
		if err := rows.Scan(
			&req.ID,
			&req.TenantID,
			&req.Message,
			&createdAt,
			&priority,
			&req.Resolved,
			&keywords,
			&classification,
			&req.AnalyzedFactors.PriorityScore,
		); err != nil {
			return nil, err
		}
		ts, err := domain.ParseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("maintenance request %s: invalid created_at %q: %w", req.ID, createdAt, err)
		}
		if err := json.Unmarshal([]byte(keywords), &req.AnalyzedFactors.Keywords); err != nil {
			return nil, fmt.Errorf("maintenance request %s: invalid keywords: %w", req.ID, err)
		}
		req.CreatedAt = ts
		req.Priority = domain.Priority(priority)
		req.AnalyzedFactors.UrgencyClassification = domain.Priority(classification)
		req.AnalyzedFactors.Keywords = nonNilKeywords(req.AnalyzedFactors.Keywords)
		result = append(result, req)
	}
	return result, rows.Err()
}
