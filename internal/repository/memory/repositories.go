package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/repository"
)

type ticketRepo struct {
	store *Store
	st    *state
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if _, exists := r.st.tickets[ticket.ID]; exists {
		return fmt.Errorf("insert ticket: duplicate id %s", ticket.ID)
	}
	now := r.store.tick()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.st.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := r.st.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneTicket(t)
	return &out, nil
}

func (r *ticketRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.update(id, func(t *domain.Ticket) { t.Status = status })
}

func (r *ticketRepo) UpdateAssignee(ctx context.Context, id string, assigneeUserID *string) (*domain.Ticket, error) {
	return r.update(id, func(t *domain.Ticket) {
		if assigneeUserID == nil {
			t.AssigneeUserID = nil
			return
		}
		v := *assigneeUserID
		t.AssigneeUserID = &v
	})
}

func (r *ticketRepo) Touch(_ context.Context, id string) error {
	_, err := r.update(id, func(*domain.Ticket) {})
	return err
}

func (r *ticketRepo) update(id string, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	t, ok := r.st.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	mutate(&t)
	t.UpdatedAt = r.store.tick()
	r.st.tickets[id] = t
	out := cloneTicket(t)
	return &out, nil
}

func (r *ticketRepo) matching(filter repository.TicketFilter) []domain.Ticket {
	result := []domain.Ticket{}
	for _, t := range r.st.tickets {
		if filter.Matches(&t) {
			result = append(result, cloneTicket(t))
		}
	}
	return result
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	result := r.matching(filter)
	sortTickets(result, filter.SortBy, filter.Ascending)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return []domain.Ticket{}, nil
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *ticketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	return len(r.matching(filter)), nil
}

type commentRepo struct {
	store *Store
	st    *state
}

func (r *commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	if _, ok := r.st.tickets[comment.TicketID]; !ok {
		return fmt.Errorf("insert comment: unknown ticket %s", comment.TicketID)
	}
	comment.CreatedAt = r.store.tick()
	r.st.comments = append(r.st.comments, *comment)
	return nil
}

func (r *commentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	result := []domain.Comment{}
	for _, c := range r.st.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

type attachmentRepo struct {
	store *Store
	st    *state
}

func (r *attachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	if _, ok := r.st.tickets[attachment.TicketID]; !ok {
		return fmt.Errorf("insert attachment: unknown ticket %s", attachment.TicketID)
	}
	for _, a := range r.st.attachments {
		if a.ObjectKey == attachment.ObjectKey {
			return fmt.Errorf("insert attachment: duplicate object key %s", attachment.ObjectKey)
		}
	}
	attachment.CreatedAt = r.store.tick()
	r.st.attachments = append(r.st.attachments, *attachment)
	return nil
}

func (r *attachmentRepo) GetByTicket(_ context.Context, ticketID, attachmentID string) (*domain.Attachment, error) {
	for _, a := range r.st.attachments {
		if a.TicketID == ticketID && a.ID == attachmentID {
			out := a
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *attachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	result := []domain.Attachment{}
	for _, a := range r.st.attachments {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	return result, nil
}

type projectRepo struct {
	store *Store
	st    *state
}

func (r *projectRepo) Create(_ context.Context, project *domain.Project) error {
	if _, exists := r.st.projects[project.ID]; exists {
		return fmt.Errorf("insert project: duplicate id %s", project.ID)
	}
	project.CreatedAt = r.store.tick()
	r.st.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) GetForTenant(_ context.Context, projectID, tenantID string) (*domain.Project, error) {
	p, ok := r.st.projects[projectID]
	if !ok || p.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

type auditRepo struct {
	store *Store
	st    *state
}

func (r *auditRepo) Create(_ context.Context, event *domain.AuditEvent) error {
	event.CreatedAt = r.store.tick()
	r.st.audit = append(r.st.audit, cloneAudit(*event))
	return nil
}
