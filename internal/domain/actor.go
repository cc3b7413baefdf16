package domain

// Role is a role name carried in the verified identity.
type Role string

const (
	RoleCustomerUser Role = "customer_user"
	RoleAgent        Role = "tiba_agent"
	RoleAdmin        Role = "tiba_admin"
)

// Actor is the verified caller handed in by the identity provider.
type Actor struct {
	SubjectID string
	Roles     []Role
	TenantID  *string
	Email     *string
}

// HasRole reports whether the actor carries role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleNames returns the roles as plain strings.
func (a Actor) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, string(r))
	}
	return names
}
