package auth

import (
	"strings"

	"github.com/spec-kit/support-tickets/internal/domain"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

// TenantScope is the tenant filter applied to a request. An empty TenantID with
// Unfiltered set means every tenant is visible.
type TenantScope struct {
	TenantID   string
	Unfiltered bool
}

// ResolveTenantScope derives the effective tenant for the actor. override is the
// tenant explicitly named by the request, empty when absent.
func ResolveTenantScope(actor domain.Actor, override string) (TenantScope, error) {
	override = strings.TrimSpace(override)

	if IsInternal(actor) {
		if override != "" {
			return TenantScope{TenantID: override}, nil
		}
		return TenantScope{Unfiltered: true}, nil
	}

	if IsCustomer(actor) {
		if override != "" {
			return TenantScope{}, apperrors.NewPermissionDenied("customerId filter is not allowed for customer_user")
		}
		tenantID, err := RequireTenantClaim(actor)
		if err != nil {
			return TenantScope{}, err
		}
		return TenantScope{TenantID: tenantID}, nil
	}

	return TenantScope{}, apperrors.NewPermissionDenied("unsupported role")
}

// RequireTenantClaim returns the actor's tenant or fails closed when the claim is missing.
func RequireTenantClaim(actor domain.Actor) (string, error) {
	if actor.TenantID == nil || strings.TrimSpace(*actor.TenantID) == "" {
		return "", apperrors.NewPermissionDenied("customer_id claim is required for customer_user")
	}
	return *actor.TenantID, nil
}
