package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/support-tickets/internal/domain"
)

// AuditRepository appends audit events. There is deliberately no read method.
type AuditRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
}

type auditRepository struct {
	db DBTX
}

// NewAuditRepository builds repository.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	const query = `
        INSERT INTO audit_logs (id, customer_id, entity_type, entity_id, action, actor_user_id, actor_roles, meta_json)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	if err := r.db.QueryRow(ctx, query,
		event.ID,
		event.TenantID,
		event.EntityType,
		event.EntityID,
		event.Action,
		event.ActorUserID,
		event.ActorRoles,
		[]byte(event.Meta),
	).Scan(&event.CreatedAt); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
