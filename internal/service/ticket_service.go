package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/events"
	"github.com/spec-kit/support-tickets/internal/observability"
	"github.com/spec-kit/support-tickets/internal/repository"
	"github.com/spec-kit/support-tickets/internal/storage"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

// DefaultPresignTTL is used when no presign lifetime is configured.
const DefaultPresignTTL = 15 * time.Minute

// TicketService runs every ticket operation as one unit of work: fetch, access
// check, mutation and audit row commit together or not at all.
type TicketService struct {
	store          repository.Store
	signer         storage.ObjectSigner
	policy         AttachmentPolicy
	audit          AuditRecorder
	presignTTL     time.Duration
	downloadCached bool
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
	newID          func() string
	now            func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store              repository.Store
	Signer             storage.ObjectSigner
	Dispatcher         events.Dispatcher
	Metrics            *observability.Metrics
	Logger             *zap.Logger
	AttachmentMaxBytes int64
	PresignTTL         time.Duration
	// DownloadCached is set when Signer already reports download cache metrics.
	DownloadCached bool
	IDGenerator    func() string
}

// UploadGrant is the result of a successful upload presign.
type UploadGrant struct {
	Attachment      domain.Attachment
	UploadURL       string
	RequiredHeaders map[string]string
	ObjectKey       string
	ExpiresIn       time.Duration
}

// DownloadGrant is the result of a successful download presign.
type DownloadGrant struct {
	Attachment  domain.Attachment
	DownloadURL string
	ExpiresIn   time.Duration
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	newID := deps.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	signer := deps.Signer
	if signer == nil {
		signer = storage.DisabledSigner{}
	}
	ttl := deps.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &TicketService{
		store:          deps.Store,
		signer:         signer,
		policy:         NewAttachmentPolicy(deps.AttachmentMaxBytes),
		audit:          NewAuditRecorder(newID),
		presignTTL:     ttl,
		downloadCached: deps.DownloadCached,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         logger,
		newID:          newID,
		now:            time.Now,
	}
}

// ListTickets returns one page of tickets visible to the actor.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, query ListTicketsQuery) (_ *TicketPage, err error) {
	defer s.observe("list", &err)

	filter, page, pageSize, err := BuildTicketFilter(actor, query)
	if err != nil {
		return nil, err
	}

	result := &TicketPage{Page: page, PageSize: pageSize}
	err = s.store.WithinReadTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		items, err := repos.Tickets.List(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.Tickets.Count(ctx, filter)
		if err != nil {
			return err
		}
		result.Items = items
		result.Total = total
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// CreateTicket inserts a ticket for the actor's tenant, or for the named tenant
// when the actor is internal.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input CreateTicketInput) (_ *domain.TicketDetail, err error) {
	defer s.observe("create", &err)

	valid, err := validateCreateInput(input)
	if err != nil {
		return nil, err
	}
	tenantID, err := resolveCreateTenant(actor, input)
	if err != nil {
		return nil, err
	}

	var assignee *string
	if auth.IsInternal(actor) && input.AssigneeUserID != nil {
		value := *input.AssigneeUserID
		assignee = &value
	}
	ticket := &domain.Ticket{
		ID:              s.newID(),
		TenantID:        tenantID,
		ProjectID:       input.ProjectID,
		Type:            valid.ticketType,
		Status:          valid.status,
		Title:           input.Title,
		Description:     input.Description,
		AssigneeUserID:  assignee,
		CreatedByUserID: actor.SubjectID,
	}

	var detail *domain.TicketDetail
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Projects.GetForTenant(ctx, input.ProjectID, tenantID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewBadRequest("project not found for customer")
			}
			return err
		}
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, repos.Audit, actor, ticket, domain.AuditActionCreated, createdMeta{
			Type:      ticket.Type,
			Status:    ticket.Status,
			ProjectID: ticket.ProjectID,
		}); err != nil {
			return err
		}
		loaded, err := loadDetail(ctx, repos, ticket)
		detail = loaded
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.committed(ctx, actor, &detail.Ticket, domain.AuditActionCreated, events.EventTicketCreated, events.TicketCreatedPayload{
		ProjectID: ticket.ProjectID,
		Type:      ticket.Type,
		Status:    ticket.Status,
		Title:     ticket.Title,
	})
	return detail, nil
}

// GetTicketByID returns the ticket with its comments and attachments.
func (s *TicketService) GetTicketByID(ctx context.Context, actor domain.Actor, ticketID string) (_ *domain.TicketDetail, err error) {
	defer s.observe("get", &err)

	var detail *domain.TicketDetail
	err = s.store.WithinReadTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := fetchVisible(ctx, repos, actor, ticketID, false)
		if err != nil {
			return err
		}
		detail, err = loadDetail(ctx, repos, ticket)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// UpdateTicketStatus sets the ticket status.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, actor domain.Actor, ticketID, rawStatus string) (_ *domain.TicketDetail, err error) {
	defer s.observe("update_status", &err)

	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var (
		detail   *domain.TicketDetail
		previous domain.TicketStatus
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := fetchVisible(ctx, repos, actor, ticketID, true)
		if err != nil {
			return err
		}
		previous = ticket.Status
		updated, err := repos.Tickets.UpdateStatus(ctx, ticket.ID, status)
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, repos.Audit, actor, updated, domain.AuditActionStatusChanged, statusChangedMeta{
			From: previous,
			To:   status,
		}); err != nil {
			return err
		}
		detail, err = loadDetail(ctx, repos, updated)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.committed(ctx, actor, &detail.Ticket, domain.AuditActionStatusChanged, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		OldStatus: previous,
		NewStatus: status,
	})
	return detail, nil
}

// AssignTicket sets or clears the assignee. Only internal actors may assign.
func (s *TicketService) AssignTicket(ctx context.Context, actor domain.Actor, ticketID string, input AssignTicketInput) (_ *domain.TicketDetail, err error) {
	defer s.observe("assign", &err)

	next, err := validateAssignInput(actor, input)
	if err != nil {
		return nil, err
	}

	var (
		detail   *domain.TicketDetail
		previous *string
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := fetchVisible(ctx, repos, actor, ticketID, true)
		if err != nil {
			return err
		}
		previous = ticket.AssigneeUserID
		updated, err := repos.Tickets.UpdateAssignee(ctx, ticket.ID, next)
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, repos.Audit, actor, updated, domain.AuditActionAssigned, assignedMeta{
			From: previous,
			To:   next,
		}); err != nil {
			return err
		}
		detail, err = loadDetail(ctx, repos, updated)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.committed(ctx, actor, &detail.Ticket, domain.AuditActionAssigned, events.EventTicketAssigned, events.TicketAssignedPayload{
		PreviousAssigneeID: previous,
		AssigneeUserID:     next,
	})
	return detail, nil
}

// AddComment appends a comment and bumps the ticket's updatedAt.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, ticketID, body string) (_ *domain.Comment, err error) {
	defer s.observe("add_comment", &err)

	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewBadRequest("body is required")
	}

	var (
		comment *domain.Comment
		ticket  *domain.Ticket
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = fetchVisible(ctx, repos, actor, ticketID, true)
		if err != nil {
			return err
		}
		comment = &domain.Comment{
			ID:           s.newID(),
			TicketID:     ticket.ID,
			TenantID:     ticket.TenantID,
			AuthorUserID: actor.SubjectID,
			Body:         body,
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}
		if err := repos.Tickets.Touch(ctx, ticket.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, repos.Audit, actor, ticket, domain.AuditActionCommentAdded, commentAddedMeta{
			CommentID: comment.ID,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.committed(ctx, actor, ticket, domain.AuditActionCommentAdded, events.EventTicketCommentAdded, events.TicketCommentAddedPayload{
		CommentID:    comment.ID,
		AuthorUserID: comment.AuthorUserID,
	})
	return comment, nil
}

// PresignAttachmentUpload records attachment metadata and returns a URL the
// client uses to PUT the bytes directly to storage. The URL is minted inside
// the unit of work so a signing failure leaves no attachment row behind.
func (s *TicketService) PresignAttachmentUpload(ctx context.Context, actor domain.Actor, ticketID, filename, mime string, sizeBytes float64) (_ *UploadGrant, err error) {
	defer s.observe("presign_upload", &err)

	spec, err := s.policy.Validate(filename, mime, sizeBytes)
	if err != nil {
		return nil, err
	}

	var (
		grant  *UploadGrant
		ticket *domain.Ticket
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = fetchVisible(ctx, repos, actor, ticketID, true)
		if err != nil {
			return err
		}
		attachmentID := s.newID()
		attachment := &domain.Attachment{
			ID:               attachmentID,
			TicketID:         ticket.ID,
			TenantID:         ticket.TenantID,
			Filename:         spec.Filename,
			Mime:             spec.Mime,
			SizeBytes:        spec.SizeBytes,
			ObjectKey:        ObjectKey(ticket.TenantID, ticket.ID, attachmentID, spec.Filename),
			UploadedByUserID: actor.SubjectID,
		}
		if err := repos.Attachments.Create(ctx, attachment); err != nil {
			return err
		}
		if err := repos.Tickets.Touch(ctx, ticket.ID); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, repos.Audit, actor, ticket, domain.AuditActionAttachmentAdded, attachmentAddedMeta{
			Filename:     attachment.Filename,
			Mime:         attachment.Mime,
			SizeBytes:    attachment.SizeBytes,
			AttachmentID: attachment.ID,
		}); err != nil {
			return err
		}
		url, err := s.signer.PresignUpload(ctx, attachment.ObjectKey, attachment.Mime, s.presignTTL)
		if err != nil {
			return apperrors.NewInternalError(fmt.Errorf("presign upload: %w", err))
		}
		grant = &UploadGrant{
			Attachment:      *attachment,
			UploadURL:       url,
			RequiredHeaders: map[string]string{"Content-Type": attachment.Mime},
			ObjectKey:       attachment.ObjectKey,
			ExpiresIn:       s.presignTTL,
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordPresign("upload", "off")
	s.committed(ctx, actor, ticket, domain.AuditActionAttachmentAdded, events.EventTicketAttachmentAdded, events.TicketAttachmentAddedPayload{
		AttachmentID: grant.Attachment.ID,
		Filename:     grant.Attachment.Filename,
		Mime:         grant.Attachment.Mime,
		SizeBytes:    grant.Attachment.SizeBytes,
	})
	return grant, nil
}

// PresignAttachmentDownload returns a time-limited download URL. It writes nothing.
func (s *TicketService) PresignAttachmentDownload(ctx context.Context, actor domain.Actor, ticketID, attachmentID string) (_ *DownloadGrant, err error) {
	defer s.observe("presign_download", &err)

	var attachment *domain.Attachment
	err = s.store.WithinReadTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := fetchVisible(ctx, repos, actor, ticketID, false)
		if err != nil {
			return err
		}
		attachment, err = repos.Attachments.GetByTicket(ctx, ticket.ID, attachmentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment")
		}
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	url, validFor, err := s.signer.PresignDownload(ctx, attachment.ObjectKey, s.presignTTL)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("presign download: %w", err))
	}
	if !s.downloadCached {
		s.metrics.RecordPresign("download", "off")
	}
	return &DownloadGrant{Attachment: *attachment, DownloadURL: url, ExpiresIn: validFor}, nil
}

// fetchVisible loads a ticket and applies the access guard. Missing and foreign
// tickets produce the same NotFound. A customer without a tenant claim is
// denied before any lookup.
func fetchVisible(ctx context.Context, repos repository.Repositories, actor domain.Actor, ticketID string, forUpdate bool) (*domain.Ticket, error) {
	if auth.IsTenantBound(actor) {
		if _, err := auth.RequireTenantClaim(actor); err != nil {
			return nil, err
		}
	}
	var (
		ticket *domain.Ticket
		err    error
	)
	if forUpdate {
		ticket, err = repos.Tickets.GetByIDForUpdate(ctx, ticketID)
	} else {
		ticket, err = repos.Tickets.GetByID(ctx, ticketID)
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err := auth.AssertTicketVisible(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func loadDetail(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket) (*domain.TicketDetail, error) {
	current, err := repos.Tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	comments, err := repos.Comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	attachments, err := repos.Attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	return &domain.TicketDetail{Ticket: *current, Comments: comments, Attachments: attachments}, nil
}

// committed runs the post-commit side effects of a mutation.
func (s *TicketService) committed(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, action domain.AuditAction, eventType events.EventType, payload interface{}) {
	s.metrics.RecordAudit(string(action))
	s.logger.Info("ticket mutated",
		zap.String("ticket_id", ticket.ID),
		zap.String("tenant_id", ticket.TenantID),
		zap.String("action", string(action)),
		zap.String("actor_id", actor.SubjectID),
	)
	s.publishEvent(ctx, events.Event{
		ID:        s.newID(),
		Type:      eventType,
		TicketID:  ticket.ID,
		TenantID:  ticket.TenantID,
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (s *TicketService) observe(op string, errp *error) {
	if *errp == nil {
		s.metrics.RecordOperation(op, "ok")
		return
	}
	domainErr := apperrors.ToDomainError(*errp)
	if domainErr.Code == apperrors.CodeInternal {
		s.logger.Error("ticket operation failed", zap.String("op", op), zap.Error(*errp))
	}
	s.metrics.RecordOperation(op, strings.ToLower(domainErr.Code))
}
