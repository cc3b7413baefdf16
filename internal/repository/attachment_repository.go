package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-tickets/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByTicket(ctx context.Context, ticketID, attachmentID string) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

const attachmentColumns = `id, ticket_id, customer_id, filename, mime, size_bytes, object_key, uploaded_by_user_id, created_at`

type attachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (id, ticket_id, customer_id, filename, mime, size_bytes, object_key, uploaded_by_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	if err := r.db.QueryRow(ctx, query,
		attachment.ID,
		attachment.TicketID,
		attachment.TenantID,
		attachment.Filename,
		attachment.Mime,
		attachment.SizeBytes,
		attachment.ObjectKey,
		attachment.UploadedByUserID,
	).Scan(&attachment.CreatedAt); err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) GetByTicket(ctx context.Context, ticketID, attachmentID string) (*domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id=$1 AND id=$2`
	return scanAttachment(r.db.QueryRow(ctx, query, ticketID, attachmentID))
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	result := []domain.Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *attachment)
	}
	return result, rows.Err()
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := row.Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.TenantID,
		&attachment.Filename,
		&attachment.Mime,
		&attachment.SizeBytes,
		&attachment.ObjectKey,
		&attachment.UploadedByUserID,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}
