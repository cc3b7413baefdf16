package domain

import "time"

// Project groups tickets of a tenant.
type Project struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}
