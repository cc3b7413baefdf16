package auth

import "github.com/spec-kit/support-tickets/internal/domain"

// IsCustomer reports whether the actor holds the customer role.
func IsCustomer(actor domain.Actor) bool {
	return actor.HasRole(domain.RoleCustomerUser)
}

// IsInternal reports whether the actor is an agent or admin.
func IsInternal(actor domain.Actor) bool {
	return actor.HasRole(domain.RoleAgent) || actor.HasRole(domain.RoleAdmin)
}

// IsTenantBound reports whether the actor is confined to its own tenant.
// Internal roles win over the customer role.
func IsTenantBound(actor domain.Actor) bool {
	return IsCustomer(actor) && !IsInternal(actor)
}
