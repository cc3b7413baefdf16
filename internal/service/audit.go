package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/repository"
)

type createdMeta struct {
	Type      domain.TicketType   `json:"type"`
	Status    domain.TicketStatus `json:"status"`
	ProjectID string              `json:"projectId"`
}

type statusChangedMeta struct {
	From domain.TicketStatus `json:"from"`
	To   domain.TicketStatus `json:"to"`
}

type assignedMeta struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

type commentAddedMeta struct {
	CommentID string `json:"commentId"`
}

type attachmentAddedMeta struct {
	Filename     string `json:"filename"`
	Mime         string `json:"mime"`
	SizeBytes    int64  `json:"sizeBytes"`
	AttachmentID string `json:"attachmentId"`
}

// AuditRecorder writes one audit row per mutation. It only accepts the
// repository of an open unit of work, so a failed write aborts the mutation.
type AuditRecorder struct {
	newID func() string
}

// NewAuditRecorder builds a recorder using newID for event ids.
func NewAuditRecorder(newID func() string) AuditRecorder {
	return AuditRecorder{newID: newID}
}

// Record appends an event for ticket.
func (r AuditRecorder) Record(ctx context.Context, repo repository.AuditRepository, actor domain.Actor, ticket *domain.Ticket, action domain.AuditAction, meta any) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal audit meta: %w", err)
	}
	roles := actor.RoleNames()
	sort.Strings(roles)

	event := &domain.AuditEvent{
		ID:          r.newID(),
		TenantID:    ticket.TenantID,
		EntityType:  domain.AuditEntityTicket,
		EntityID:    ticket.ID,
		Action:      action,
		ActorUserID: actor.SubjectID,
		ActorRoles:  roles,
		Meta:        payload,
	}
	if err := repo.Create(ctx, event); err != nil {
		return fmt.Errorf("write audit event %s: %w", action, err)
	}
	return nil
}
