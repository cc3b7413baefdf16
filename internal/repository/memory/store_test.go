package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/repository"
)

func seedTicket(t *testing.T, s *Store, id, tenant string, status domain.TicketStatus) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return repos.Tickets.Create(ctx, &domain.Ticket{
			ID: id, TenantID: tenant, ProjectID: "p-" + tenant, Type: domain.TicketTypeBug,
			Status: status, Title: "t", Description: "d", CreatedByUserID: "u",
		})
	})
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Tickets.Create(ctx, &domain.Ticket{ID: "t1", TenantID: "A", Status: domain.TicketStatusOpen}); err != nil {
			return err
		}
		if err := repos.Audit.Create(ctx, &domain.AuditEvent{ID: "a1", TenantID: "A"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := s.Ticket("t1"); ok {
		t.Fatal("ticket must not survive rollback")
	}
	if n := len(s.AuditEvents()); n != 0 {
		t.Fatalf("expected no audit events, got %d", n)
	}
}

func TestWithinTxRespectsCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Tickets.Create(ctx, &domain.Ticket{ID: "t1", TenantID: "A"}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := s.Ticket("t1"); ok {
		t.Fatal("ticket must not be committed after cancellation")
	}
}

func TestReadTxDiscardsWrites(t *testing.T) {
	s := NewStore()
	_ = s.WithinReadTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return repos.Tickets.Create(ctx, &domain.Ticket{ID: "t1", TenantID: "A"})
	})
	if _, ok := s.Ticket("t1"); ok {
		t.Fatal("read transaction must not commit")
	}
}

func TestListFiltersSortsAndPages(t *testing.T) {
	s := NewStore()
	seedTicket(t, s, "t1", "A", domain.TicketStatusOpen)
	seedTicket(t, s, "t2", "A", domain.TicketStatusClosed)
	seedTicket(t, s, "t3", "B", domain.TicketStatusOpen)
	seedTicket(t, s, "t4", "A", domain.TicketStatusOpen)

	tenant := "A"
	var items []domain.Ticket
	var total int
	err := s.WithinReadTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		filter := repository.TicketFilter{
			TenantID: &tenant,
			Statuses: []domain.TicketStatus{domain.TicketStatusOpen},
			Limit:    1,
		}
		var err error
		if items, err = repos.Tickets.List(ctx, filter); err != nil {
			return err
		}
		total, err = repos.Tickets.Count(ctx, filter)
		return err
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if len(items) != 1 || items[0].ID != "t4" {
		t.Fatalf("expected newest t4 first, got %+v", items)
	}
}

func TestMissingRowsReportErrNoRows(t *testing.T) {
	s := NewStore()
	s.AddProject(domain.Project{ID: "p1", TenantID: "A", Name: "Site"})

	err := s.WithinReadTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Tickets.GetByID(ctx, "nope"); !errors.Is(err, pgx.ErrNoRows) {
			t.Errorf("ticket: expected ErrNoRows, got %v", err)
		}
		if _, err := repos.Projects.GetForTenant(ctx, "p1", "B"); !errors.Is(err, pgx.ErrNoRows) {
			t.Errorf("foreign project: expected ErrNoRows, got %v", err)
		}
		if _, err := repos.Projects.GetForTenant(ctx, "p1", "A"); err != nil {
			t.Errorf("own project: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUpdatesBumpUpdatedAt(t *testing.T) {
	s := NewStore()
	seedTicket(t, s, "t1", "A", domain.TicketStatusOpen)
	before, _ := s.Ticket("t1")

	err := s.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Tickets.UpdateStatus(ctx, "t1", domain.TicketStatusClosed)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	after, _ := s.Ticket("t1")
	if after.Status != domain.TicketStatusClosed {
		t.Fatalf("status not updated: %s", after.Status)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatal("updatedAt must advance")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatal("createdAt must not change")
	}
}
