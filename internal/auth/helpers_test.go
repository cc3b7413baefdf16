package auth

import "github.com/spec-kit/support-tickets/internal/domain"

func strPtr(s string) *string { return &s }

func customer(tenant string) domain.Actor {
	a := domain.Actor{SubjectID: "cust-1", Roles: []domain.Role{domain.RoleCustomerUser}}
	if tenant != "" {
		a.TenantID = strPtr(tenant)
	}
	return a
}

func agent() domain.Actor {
	return domain.Actor{SubjectID: "agent-1", Roles: []domain.Role{domain.RoleAgent}}
}
