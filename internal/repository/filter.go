package repository

import "github.com/spec-kit/support-tickets/internal/domain"

// AssigneeMatch selects how the assignee column is filtered.
type AssigneeMatch int

const (
	AssigneeAny AssigneeMatch = iota
	AssigneeUser
	AssigneeNone
)

// SortField names the ticket timestamp used for ordering.
type SortField string

const (
	SortByUpdatedAt SortField = "updatedAt"
	SortByCreatedAt SortField = "createdAt"
)

// TicketFilter captures listing parameters. A nil TenantID lists every tenant.
type TicketFilter struct {
	TenantID      *string
	ProjectID     *string
	Statuses      []domain.TicketStatus
	ExcludeStatus *domain.TicketStatus
	Assignee      AssigneeMatch
	AssigneeID    string
	SortBy        SortField
	Ascending     bool
	Limit         int
	Offset        int
}

// Matches reports whether ticket satisfies the filter's predicates, ignoring paging.
func (f TicketFilter) Matches(ticket *domain.Ticket) bool {
	if f.TenantID != nil && ticket.TenantID != *f.TenantID {
		return false
	}
	if f.ProjectID != nil && ticket.ProjectID != *f.ProjectID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if ticket.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ExcludeStatus != nil && ticket.Status == *f.ExcludeStatus {
		return false
	}
	switch f.Assignee {
	case AssigneeUser:
		if ticket.AssigneeUserID == nil || *ticket.AssigneeUserID != f.AssigneeID {
			return false
		}
	case AssigneeNone:
		if ticket.AssigneeUserID != nil {
			return false
		}
	}
	return true
}
