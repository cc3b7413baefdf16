package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/support-tickets/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerID     *string `json:"customerId"`
	ProjectID      string  `json:"projectId"`
	Type           string  `json:"type"`
	Status         *string `json:"status"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	AssigneeUserID *string `json:"assigneeUserId"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status string `json:"status"`
}

// OptionalString records whether a JSON key was present, and whether its value
// was a string or null. Non-string values are flagged rather than rejected so
// that the caller decides the error order.
type OptionalString struct {
	Set       bool
	WrongType bool
	Value     *string
}

// UnmarshalJSON is only invoked when the key is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.WrongType = false
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		o.WrongType = true
		return nil
	}
	o.Value = &value
	return nil
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeUserID OptionalString `json:"assigneeUserId"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// PresignUploadRequest describes the file the client intends to upload.
type PresignUploadRequest struct {
	Filename  string  `json:"filename"`
	Mime      string  `json:"mime"`
	SizeBytes float64 `json:"sizeBytes"`
}

// TicketSummary is the list representation of a ticket.
type TicketSummary struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Status         domain.TicketStatus `json:"status"`
	Type           domain.TicketType   `json:"type"`
	ProjectID      string              `json:"projectId"`
	CustomerID     string              `json:"customerId"`
	AssigneeUserID *string             `json:"assigneeUserId"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items    []TicketSummary `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string               `json:"id"`
	CustomerID      string               `json:"customerId"`
	ProjectID       string               `json:"projectId"`
	Type            domain.TicketType    `json:"type"`
	Status          domain.TicketStatus  `json:"status"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	AssigneeUserID  *string              `json:"assigneeUserId"`
	CreatedByUserID string               `json:"createdByUserId"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	Comments        []CommentResponse    `json:"comments"`
	Attachments     []AttachmentResponse `json:"attachments"`
}

// CommentResponse represents a ticket comment.
type CommentResponse struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticketId"`
	CustomerID   string    `json:"customerId"`
	AuthorUserID string    `json:"authorUserId"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	TicketID         string    `json:"ticketId"`
	CustomerID       string    `json:"customerId"`
	Filename         string    `json:"filename"`
	Mime             string    `json:"mime"`
	SizeBytes        int64     `json:"sizeBytes"`
	ObjectKey        string    `json:"objectKey"`
	UploadedByUserID string    `json:"uploadedByUserId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// PresignUploadResponse tells the client where and how to PUT the file.
type PresignUploadResponse struct {
	Attachment       AttachmentResponse `json:"attachment"`
	UploadURL        string             `json:"uploadUrl"`
	RequiredHeaders  map[string]string  `json:"requiredHeaders"`
	ObjectKey        string             `json:"objectKey"`
	ExpiresInSeconds int                `json:"expiresInSeconds"`
}

// PresignDownloadResponse carries a time-limited download link.
type PresignDownloadResponse struct {
	Attachment       AttachmentResponse `json:"attachment"`
	DownloadURL      string             `json:"downloadUrl"`
	ExpiresInSeconds int                `json:"expiresInSeconds"`
}

// MeResponse echoes the verified identity.
type MeResponse struct {
	Sub        string   `json:"sub"`
	Roles      []string `json:"roles"`
	CustomerID *string  `json:"customerId"`
	Email      *string  `json:"email"`
}
