package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketStatuses lists every valid status in display order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketType classifies the kind of work requested.
type TicketType string

const (
	TicketTypeBug       TicketType = "Bug"
	TicketTypeFeature   TicketType = "Feature"
	TicketTypeContent   TicketType = "Content"
	TicketTypeMarketing TicketType = "Marketing"
	TicketTypeTracking  TicketType = "Tracking"
	TicketTypePlugin    TicketType = "Plugin"
)

// TicketTypes lists every valid ticket type.
var TicketTypes = []TicketType{
	TicketTypeBug,
	TicketTypeFeature,
	TicketTypeContent,
	TicketTypeMarketing,
	TicketTypeTracking,
	TicketTypePlugin,
}

// Valid reports whether t is one of the known types.
func (t TicketType) Valid() bool {
	for _, candidate := range TicketTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests. TenantID never changes after creation.
type Ticket struct {
	ID              string
	TenantID        string
	ProjectID       string
	Type            TicketType
	Status          TicketStatus
	Title           string
	Description     string
	AssigneeUserID  *string
	CreatedByUserID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketDetail is a ticket with its comments and attachments, both ordered by creation time.
type TicketDetail struct {
	Ticket
	Comments    []Comment
	Attachments []Attachment
}
