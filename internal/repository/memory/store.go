// Package memory provides an in-process repository.Store used when no
// database is configured and by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/repository"
)

type state struct {
	projects    map[string]domain.Project
	tickets     map[string]domain.Ticket
	comments    []domain.Comment
	attachments []domain.Attachment
	audit       []domain.AuditEvent
}

func newState() *state {
	return &state{
		projects: map[string]domain.Project{},
		tickets:  map[string]domain.Ticket{},
	}
}

func (s *state) clone() *state {
	out := &state{
		projects:    make(map[string]domain.Project, len(s.projects)),
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		comments:    append([]domain.Comment(nil), s.comments...),
		attachments: append([]domain.Attachment(nil), s.attachments...),
		audit:       make([]domain.AuditEvent, len(s.audit)),
	}
	for id, p := range s.projects {
		out.projects[id] = p
	}
	for id, t := range s.tickets {
		out.tickets[id] = cloneTicket(t)
	}
	for i, e := range s.audit {
		out.audit[i] = cloneAudit(e)
	}
	return out
}

// Store keeps all state behind one mutex. Each unit of work runs against a
// private copy that replaces the shared state only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
	last  time.Time
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) WithinReadTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.run(ctx, false, fn)
}

// run holds the store mutex for the whole of fn, including any signer call the
// caller makes inside the unit of work, so units of work never interleave.
// Throughput is bounded by the slowest fn; this store is meant for development
// and tests.
func (s *Store) run(ctx context.Context, commit bool, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, s.repositories(work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if commit {
		s.state = work
	}
	return nil
}

func (s *Store) repositories(st *state) repository.Repositories {
	return repository.Repositories{
		Tickets:     &ticketRepo{store: s, st: st},
		Comments:    &commentRepo{store: s, st: st},
		Attachments: &attachmentRepo{store: s, st: st},
		Projects:    &projectRepo{store: s, st: st},
		Audit:       &auditRepo{store: s, st: st},
	}
}

// tick returns a strictly increasing timestamp so ordering by time is stable.
// Callers hold s.mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// AddProject seeds a project outside of any unit of work.
func (s *Store) AddProject(project domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = s.tick()
	}
	s.state.projects[project.ID] = project
}

// AuditEvents returns a copy of the committed audit trail in insertion order.
func (s *Store) AuditEvents() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEvent, len(s.state.audit))
	for i, e := range s.state.audit {
		out[i] = cloneAudit(e)
	}
	return out
}

// Ticket returns the committed ticket with id, if any.
func (s *Store) Ticket(id string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tickets[id]
	return cloneTicket(t), ok
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeUserID != nil {
		v := *t.AssigneeUserID
		t.AssigneeUserID = &v
	}
	return t
}

func cloneAudit(e domain.AuditEvent) domain.AuditEvent {
	e.ActorRoles = append([]string(nil), e.ActorRoles...)
	e.Meta = append([]byte(nil), e.Meta...)
	return e
}

func sortTickets(tickets []domain.Ticket, by repository.SortField, ascending bool) {
	key := func(t domain.Ticket) time.Time {
		if by == repository.SortByCreatedAt {
			return t.CreatedAt
		}
		return t.UpdatedAt
	}
	sort.Slice(tickets, func(i, j int) bool {
		ki, kj := key(tickets[i]), key(tickets[j])
		if !ki.Equal(kj) {
			if ascending {
				return ki.Before(kj)
			}
			return ki.After(kj)
		}
		if ascending {
			return tickets[i].ID < tickets[j].ID
		}
		return tickets[i].ID > tickets[j].ID
	})
}
