package auth

import (
	"github.com/spec-kit/support-tickets/internal/domain"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

// AssertTicketVisible fails with NotFound when the ticket is missing or belongs to
// another tenant than a customer actor. Both cases produce the same error so that
// foreign tickets cannot be probed.
func AssertTicketVisible(actor domain.Actor, ticket *domain.Ticket) error {
	if ticket == nil {
		return ticketNotFound()
	}
	if IsTenantBound(actor) {
		if actor.TenantID == nil || *actor.TenantID != ticket.TenantID {
			return ticketNotFound()
		}
	}
	return nil
}

func ticketNotFound() error {
	return apperrors.NewNotFound("ticket")
}
