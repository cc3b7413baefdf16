package events

import (
	"time"

	"github.com/spec-kit/support-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketCommentAdded    EventType = "ticket_comment_added"
	EventTicketAttachmentAdded EventType = "ticket_attachment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

// ActorFrom copies the identifying fields of a verified actor.
func ActorFrom(actor domain.Actor) Actor {
	return Actor{UserID: actor.SubjectID, Roles: actor.RoleNames()}
}

// Event represents a domain event published after a unit of work commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticketId"`
	TenantID  string      `json:"customerId"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectID string              `json:"projectId"`
	Type      domain.TicketType   `json:"type"`
	Status    domain.TicketStatus `json:"status"`
	Title     string              `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"oldStatus"`
	NewStatus domain.TicketStatus `json:"newStatus"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAssigneeID *string `json:"previousAssigneeUserId"`
	AssigneeUserID     *string `json:"assigneeUserId"`
}

// TicketCommentAddedPayload payload. The comment body is not carried.
type TicketCommentAddedPayload struct {
	CommentID    string `json:"commentId"`
	AuthorUserID string `json:"authorUserId"`
}

// TicketAttachmentAddedPayload payload.
type TicketAttachmentAddedPayload struct {
	AttachmentID string `json:"attachmentId"`
	Filename     string `json:"filename"`
	Mime         string `json:"mime"`
	SizeBytes    int64  `json:"sizeBytes"`
}
