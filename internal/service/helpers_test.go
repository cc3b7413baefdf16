package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/events"
	"github.com/spec-kit/support-tickets/internal/repository"
	"github.com/spec-kit/support-tickets/internal/repository/memory"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

const (
	tenantA  = "tenant-a"
	tenantB  = "tenant-b"
	projectA = "proj-a"
	projectB = "proj-b"
)

func strPtr(s string) *string { return &s }

func customerActor(tenant string) domain.Actor {
	return domain.Actor{SubjectID: "cust-" + tenant, Roles: []domain.Role{domain.RoleCustomerUser}, TenantID: strPtr(tenant)}
}

func agentActor() domain.Actor {
	return domain.Actor{SubjectID: "agent-1", Roles: []domain.Role{domain.RoleAgent}}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

type fakeSigner struct {
	err              error
	downloadValidFor time.Duration
	uploadKeys       []string
	uploadTypes      []string
}

func (f *fakeSigner) PresignUpload(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploadKeys = append(f.uploadKeys, key)
	f.uploadTypes = append(f.uploadTypes, contentType)
	return fmt.Sprintf("https://objects.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeSigner) PresignDownload(_ context.Context, key string, ttl time.Duration) (string, time.Duration, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	validFor := ttl
	if f.downloadValidFor > 0 {
		validFor = f.downloadValidFor
	}
	return fmt.Sprintf("https://objects.test/%s?download&ttl=%d", key, int(ttl.Seconds())), validFor, nil
}

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type failingAudit struct{ err error }

func (f failingAudit) Create(context.Context, *domain.AuditEvent) error { return f.err }

// failingAuditStore runs real units of work but every audit write fails.
type failingAuditStore struct {
	inner repository.Store
	err   error
}

func (s failingAuditStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.inner.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Audit = failingAudit{err: s.err}
		return fn(ctx, repos)
	})
}

func (s failingAuditStore) WithinReadTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.inner.WithinReadTx(ctx, fn)
}

type fixture struct {
	store      *memory.Store
	signer     *fakeSigner
	dispatcher *recordingDispatcher
	ids        func() string
	svc        *TicketService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProject(domain.Project{ID: projectA, TenantID: tenantA, Name: "Storefront"})
	store.AddProject(domain.Project{ID: projectB, TenantID: tenantB, Name: "Blog"})
	f := &fixture{store: store, signer: &fakeSigner{}, dispatcher: &recordingDispatcher{}, ids: sequentialIDs()}
	f.svc = f.service(store)
	return f
}

func (f *fixture) service(store repository.Store) *TicketService {
	return NewTicketService(TicketDependencies{
		Store:       store,
		Signer:      f.signer,
		Dispatcher:  f.dispatcher,
		PresignTTL:  15 * time.Minute,
		IDGenerator: f.ids,
	})
}

func (f *fixture) createTicket(t *testing.T, actor domain.Actor, tenant string) *domain.TicketDetail {
	t.Helper()
	input := CreateTicketInput{
		ProjectID:   projectA,
		Type:        "Bug",
		Title:       "Checkout fails",
		Description: "500 on submit",
	}
	if tenant == tenantB {
		input.ProjectID = projectB
	}
	if actor.HasRole(domain.RoleAgent) || actor.HasRole(domain.RoleAdmin) {
		input.CustomerID = strPtr(tenant)
	}
	detail, err := f.svc.CreateTicket(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return detail
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !apperrors.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func decodeMeta(t *testing.T, event domain.AuditEvent) map[string]any {
	t.Helper()
	var meta map[string]any
	if err := json.Unmarshal(event.Meta, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	return meta
}

var errAuditDown = errors.New("audit table unavailable")
