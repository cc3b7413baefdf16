package dto

import (
	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/service"
)

// Every response body is built here; storage-side names never reach the client.

// ToTicketSummary maps a ticket to its list representation.
func ToTicketSummary(t domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:             t.ID,
		Title:          t.Title,
		Status:         t.Status,
		Type:           t.Type,
		ProjectID:      t.ProjectID,
		CustomerID:     t.TenantID,
		AssigneeUserID: t.AssigneeUserID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// ToTicketList maps one page of tickets.
func ToTicketList(page *service.TicketPage) TicketListResponse {
	items := make([]TicketSummary, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, ToTicketSummary(t))
	}
	return TicketListResponse{Items: items, Page: page.Page, PageSize: page.PageSize, Total: page.Total}
}

// ToTicketDetail maps a ticket with its comments and attachments.
func ToTicketDetail(d *domain.TicketDetail) TicketDetailResponse {
	comments := make([]CommentResponse, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, ToComment(c))
	}
	attachments := make([]AttachmentResponse, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		attachments = append(attachments, ToAttachment(a))
	}
	return TicketDetailResponse{
		ID:              d.ID,
		CustomerID:      d.TenantID,
		ProjectID:       d.ProjectID,
		Type:            d.Type,
		Status:          d.Status,
		Title:           d.Title,
		Description:     d.Description,
		AssigneeUserID:  d.AssigneeUserID,
		CreatedByUserID: d.CreatedByUserID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Comments:        comments,
		Attachments:     attachments,
	}
}

// ToComment maps a comment.
func ToComment(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:           c.ID,
		TicketID:     c.TicketID,
		CustomerID:   c.TenantID,
		AuthorUserID: c.AuthorUserID,
		Body:         c.Body,
		CreatedAt:    c.CreatedAt,
	}
}

// ToAttachment maps attachment metadata.
func ToAttachment(a domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		TicketID:         a.TicketID,
		CustomerID:       a.TenantID,
		Filename:         a.Filename,
		Mime:             a.Mime,
		SizeBytes:        a.SizeBytes,
		ObjectKey:        a.ObjectKey,
		UploadedByUserID: a.UploadedByUserID,
		CreatedAt:        a.CreatedAt,
	}
}

// ToPresignUpload maps an upload grant; the lifetime is reported in whole seconds.
func ToPresignUpload(g *service.UploadGrant) PresignUploadResponse {
	return PresignUploadResponse{
		Attachment:       ToAttachment(g.Attachment),
		UploadURL:        g.UploadURL,
		RequiredHeaders:  g.RequiredHeaders,
		ObjectKey:        g.ObjectKey,
		ExpiresInSeconds: int(g.ExpiresIn.Seconds()),
	}
}

// ToPresignDownload maps a download grant.
func ToPresignDownload(g *service.DownloadGrant) PresignDownloadResponse {
	return PresignDownloadResponse{
		Attachment:       ToAttachment(g.Attachment),
		DownloadURL:      g.DownloadURL,
		ExpiresInSeconds: int(g.ExpiresIn.Seconds()),
	}
}

// ToMe maps the verified actor.
func ToMe(actor domain.Actor) MeResponse {
	return MeResponse{
		Sub:        actor.SubjectID,
		Roles:      actor.RoleNames(),
		CustomerID: actor.TenantID,
		Email:      actor.Email,
	}
}

// ToAssignInput converts the decoded assign payload.
func ToAssignInput(req AssignTicketRequest) service.AssignTicketInput {
	return service.AssignTicketInput{
		Provided:       req.AssigneeUserID.Set,
		WrongType:      req.AssigneeUserID.WrongType,
		AssigneeUserID: req.AssigneeUserID.Value,
	}
}

// ToCreateInput converts the create payload.
func ToCreateInput(req CreateTicketRequest) service.CreateTicketInput {
	return service.CreateTicketInput{
		CustomerID:     req.CustomerID,
		ProjectID:      req.ProjectID,
		Type:           req.Type,
		Status:         req.Status,
		Title:          req.Title,
		Description:    req.Description,
		AssigneeUserID: req.AssigneeUserID,
	}
}
