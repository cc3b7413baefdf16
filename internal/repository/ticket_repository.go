package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-tickets/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)
	UpdateAssignee(ctx context.Context, id string, assigneeUserID *string) (*domain.Ticket, error)
	Touch(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
}

const ticketColumns = `id, customer_id, project_id, type, status, title, description,
               assignee_user_id, created_by_user_id, created_at, updated_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, customer_id, project_id, type, status, title, description, assignee_user_id, created_by_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	if err := r.db.QueryRow(ctx, query,
		ticket.ID,
		ticket.TenantID,
		ticket.ProjectID,
		ticket.Type,
		ticket.Status,
		ticket.Title,
		ticket.Description,
		ticket.AssigneeUserID,
		ticket.CreatedByUserID,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `
        UPDATE tickets SET status=$2, updated_at=NOW()
        WHERE id=$1
        RETURNING `+ticketColumns, id, status)
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id string, assigneeUserID *string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `
        UPDATE tickets SET assignee_user_id=$2, updated_at=NOW()
        WHERE id=$1
        RETURNING `+ticketColumns, id, assigneeUserID)
}

func (r *ticketRepository) Touch(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("touch ticket: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(filter)

	orderColumn := "updated_at"
	if filter.SortBy == SortByCreatedAt {
		orderColumn = "created_at"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s %s, id %s LIMIT %d OFFSET %d`,
		ticketColumns, where, orderColumn, direction, direction, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := buildTicketWhere(filter)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return total, nil
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ExcludeStatus != nil {
		args = append(args, *filter.ExcludeStatus)
		clauses = append(clauses, fmt.Sprintf("status<>$%d", len(args)))
	}
	switch filter.Assignee {
	case AssigneeUser:
		args = append(args, filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_user_id=$%d", len(args)))
	case AssigneeNone:
		clauses = append(clauses, "assignee_user_id IS NULL")
	}
	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.ProjectID,
		&ticket.Type,
		&ticket.Status,
		&ticket.Title,
		&ticket.Description,
		&ticket.AssigneeUserID,
		&ticket.CreatedByUserID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
