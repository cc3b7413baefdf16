package domain

import "time"

// Attachment stores metadata for a file uploaded against a ticket.
type Attachment struct {
	ID               string
	TicketID         string
	TenantID         string
	Filename         string
	Mime             string
	SizeBytes        int64
	ObjectKey        string
	UploadedByUserID string
	CreatedAt        time.Time
}
