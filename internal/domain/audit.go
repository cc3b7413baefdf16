package domain

import (
	"encoding/json"
	"time"
)

// AuditAction names the state change recorded by an audit event.
type AuditAction string

const (
	AuditActionCreated         AuditAction = "created"
	AuditActionStatusChanged   AuditAction = "status_changed"
	AuditActionAssigned        AuditAction = "assigned"
	AuditActionCommentAdded    AuditAction = "comment_added"
	AuditActionAttachmentAdded AuditAction = "attachment_added"
)

// AuditEntityTicket is the entity type for every ticket-scoped audit event.
const AuditEntityTicket = "ticket"

// AuditEvent is an immutable audit trail entry.
type AuditEvent struct {
	ID          string
	TenantID    string
	EntityType  string
	EntityID    string
	Action      AuditAction
	ActorUserID string
	ActorRoles  []string
	Meta        json.RawMessage
	CreatedAt   time.Time
}
