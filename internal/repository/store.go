package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles the entity repositories bound to one unit of work.
type Repositories struct {
	Tickets     TicketRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
	Projects    ProjectRepository
	Audit       AuditRepository
}

// Store runs functions as atomic units of work. A non-nil error returned by fn,
// or a cancelled context, rolls back every write made through the repositories.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	WithinReadTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// NewRepositories binds repositories to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Tickets:     NewTicketRepository(db),
		Comments:    NewCommentRepository(db),
		Attachments: NewAttachmentRepository(db),
		Projects:    NewProjectRepository(db),
		Audit:       NewAuditRepository(db),
	}
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}, fn)
}

func (s *pgStore) WithinReadTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *pgStore) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
