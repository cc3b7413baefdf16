package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-tickets/internal/api/http/handlers"
	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/events"
	"github.com/spec-kit/support-tickets/internal/repository/memory"
	"github.com/spec-kit/support-tickets/internal/service"
)

func strPtr(s string) *string { return &s }

// staticIdentities maps bearer tokens to actors.
type staticIdentities map[string]domain.Actor

func (s staticIdentities) Verify(token string) (domain.Actor, error) {
	actor, ok := s[token]
	if !ok {
		return domain.Actor{}, errors.New("unknown token")
	}
	return actor, nil
}

type stubSigner struct{}

func (stubSigner) PresignUpload(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://objects.test/put/" + key, nil
}

func (stubSigner) PresignDownload(_ context.Context, key string, ttl time.Duration) (string, time.Duration, error) {
	return "https://objects.test/get/" + key, ttl, nil
}

type stubDependency struct {
	enabled bool
	err     error
}

func (d stubDependency) Enabled() bool              { return d.enabled }
func (d stubDependency) Ping(context.Context) error { return d.err }

type testServer struct {
	t     *testing.T
	store *memory.Store
	deps  map[string]handlers.Dependency
	call  func(method, path, token, body string) (int, map[string]any)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.AddProject(domain.Project{ID: "proj-a", TenantID: "tenant-a", Name: "Shop"})
	store.AddProject(domain.Project{ID: "proj-b", TenantID: "tenant-b", Name: "Blog"})

	n := 0
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Signer:     stubSigner{},
		Dispatcher: events.NewInMemoryDispatcher(),
		IDGenerator: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	})
	identities := staticIdentities{
		"cust-a": {SubjectID: "user-a", Roles: []domain.Role{domain.RoleCustomerUser}, TenantID: strPtr("tenant-a"), Email: strPtr("a@example.com")},
		"cust-b": {SubjectID: "user-b", Roles: []domain.Role{domain.RoleCustomerUser}, TenantID: strPtr("tenant-b")},
		"agent":  {SubjectID: "agent-1", Roles: []domain.Role{domain.RoleAgent}},
		"cust-0": {SubjectID: "user-0", Roles: []domain.Role{domain.RoleCustomerUser}},
	}
	srv := &testServer{t: t, store: store, deps: map[string]handlers.Dependency{}}
	app := NewApp("support-tickets-test", AppDependencies{
		Logger:         zap.NewNop(),
		RequestTimeout: 5 * time.Second,
		Routes: RouteConfig{
			Health:         handlers.NewHealthHandler("support-tickets", "test", srv.deps),
			Me:             handlers.NewMeHandler(),
			Tickets:        handlers.NewTicketsHandler(ticketService),
			AuthMiddleware: auth.NewAuthMiddleware(identities),
		},
	})
	srv.call = func(method, path, token, body string) (int, map[string]any) {
		t.Helper()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		out := map[string]any{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &out); err != nil {
				t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
			}
		}
		return resp.StatusCode, out
	}
	return srv
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

const createBody = `{"projectId":"proj-a","type":"Bug","title":"Checkout broken","description":"500 on pay"}`

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.call(nethttp.MethodGet, "/health/live", "", "")
	if status != nethttp.StatusOK || body["status"] != "alive" {
		t.Fatalf("live: %d %v", status, body)
	}

	srv.deps["postgres"] = stubDependency{enabled: false}
	srv.deps["redis"] = stubDependency{enabled: true}
	status, body = srv.call(nethttp.MethodGet, "/health/ready", "", "")
	if status != nethttp.StatusOK {
		t.Fatalf("ready: %d %v", status, body)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["postgres"] != "disabled" || deps["redis"] != "ok" {
		t.Fatalf("unexpected dependencies: %v", deps)
	}

	srv.deps["redis"] = stubDependency{enabled: true, err: errors.New("connection refused")}
	status, body = srv.call(nethttp.MethodGet, "/health/ready", "", "")
	if status != nethttp.StatusServiceUnavailable || errorCode(body) != "DEPENDENCY_UNAVAILABLE" {
		t.Fatalf("ready with failing redis: %d %v", status, body)
	}
}

func TestAuthenticationRequired(t *testing.T) {
	srv := newTestServer(t)
	for _, token := range []string{"", "forged"} {
		status, body := srv.call(nethttp.MethodGet, "/tickets", token, "")
		if status != nethttp.StatusUnauthorized || errorCode(body) != "UNAUTHORIZED" {
			t.Fatalf("token %q: %d %v", token, status, body)
		}
	}
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.call(nethttp.MethodGet, "/me", "cust-a", "")
	if status != nethttp.StatusOK {
		t.Fatalf("status %d", status)
	}
	if body["sub"] != "user-a" || body["customerId"] != "tenant-a" || body["email"] != "a@example.com" {
		t.Fatalf("unexpected body: %v", body)
	}
	roles := body["roles"].([]any)
	if len(roles) != 1 || roles[0] != "customer_user" {
		t.Fatalf("roles = %v", roles)
	}

	_, body = srv.call(nethttp.MethodGet, "/me", "agent", "")
	if body["customerId"] != nil || body["email"] != nil {
		t.Fatalf("agent without claims should have null fields: %v", body)
	}
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, created := srv.call(nethttp.MethodPost, "/tickets", "cust-a", createBody)
	if status != nethttp.StatusCreated {
		t.Fatalf("create: %d %v", status, created)
	}
	id := created["id"].(string)
	if created["customerId"] != "tenant-a" || created["status"] != "OPEN" || created["assigneeUserId"] != nil {
		t.Fatalf("unexpected created ticket: %v", created)
	}
	if _, ok := created["customer_id"]; ok {
		t.Fatal("storage name leaked into response")
	}

	status, body := srv.call(nethttp.MethodGet, "/tickets/"+id, "cust-b", "")
	if status != nethttp.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("cross-tenant read: %d %v", status, body)
	}

	status, body = srv.call(nethttp.MethodPatch, "/tickets/"+id+"/status", "agent", `{"status":"IN_PROGRESS"}`)
	if status != nethttp.StatusOK || body["status"] != "IN_PROGRESS" {
		t.Fatalf("update status: %d %v", status, body)
	}

	status, body = srv.call(nethttp.MethodPatch, "/tickets/"+id+"/assign", "agent", `{"assigneeUserId":"agent-7"}`)
	if status != nethttp.StatusOK || body["assigneeUserId"] != "agent-7" {
		t.Fatalf("assign: %d %v", status, body)
	}

	status, body = srv.call(nethttp.MethodPost, "/tickets/"+id+"/comments", "cust-a", `{"body":"any news?"}`)
	if status != nethttp.StatusCreated || body["body"] != "any news?" || body["ticketId"] != id {
		t.Fatalf("comment: %d %v", status, body)
	}

	status, body = srv.call(nethttp.MethodPost, "/tickets/"+id+"/attachments/presign-upload", "cust-a",
		`{"filename":"screen shot.png","mime":"image/png","sizeBytes":1024}`)
	if status != nethttp.StatusCreated {
		t.Fatalf("presign upload: %d %v", status, body)
	}
	objectKey := body["objectKey"].(string)
	if !strings.HasSuffix(objectKey, "-screen_shot.png") || body["uploadUrl"] != "https://objects.test/put/"+objectKey {
		t.Fatalf("unexpected upload grant: %v", body)
	}
	headers := body["requiredHeaders"].(map[string]any)
	if headers["Content-Type"] != "image/png" || body["expiresInSeconds"] != float64(900) {
		t.Fatalf("unexpected upload grant: %v", body)
	}
	attachmentID := body["attachment"].(map[string]any)["id"].(string)

	status, body = srv.call(nethttp.MethodGet, "/tickets/"+id+"/attachments/"+attachmentID+"/presign-download", "cust-a", "")
	if status != nethttp.StatusOK || body["downloadUrl"] != "https://objects.test/get/"+objectKey {
		t.Fatalf("presign download: %d %v", status, body)
	}

	status, body = srv.call(nethttp.MethodGet, "/tickets/"+id, "cust-a", "")
	if status != nethttp.StatusOK {
		t.Fatalf("get: %d", status)
	}
	if len(body["comments"].([]any)) != 1 || len(body["attachments"].([]any)) != 1 {
		t.Fatalf("detail missing children: %v", body)
	}

	if got := len(srv.store.AuditEvents()); got != 5 {
		t.Fatalf("audit events = %d, want 5", got)
	}
}

func TestListTicketsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	srv.call(nethttp.MethodPost, "/tickets", "cust-a", createBody)
	srv.call(nethttp.MethodPost, "/tickets", "cust-b", `{"projectId":"proj-b","type":"Content","title":"Typo","description":"home page"}`)

	status, body := srv.call(nethttp.MethodGet, "/tickets", "cust-a", "")
	if status != nethttp.StatusOK || body["total"] != float64(1) || body["page"] != float64(1) || body["pageSize"] != float64(20) {
		t.Fatalf("customer list: %d %v", status, body)
	}

	items := body["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["customerId"] != "tenant-a" {
		t.Fatalf("customer sees foreign tickets: %v", body)
	}

	status, body = srv.call(nethttp.MethodGet, "/tickets?customerId=tenant-b", "cust-a", "")
	if status != nethttp.StatusForbidden || errorCode(body) != "PERMISSION_DENIED" {
		t.Fatalf("customer tenant override: %d %v", status, body)
	}

	_, body = srv.call(nethttp.MethodGet, "/tickets", "agent", "")
	if body["total"] != float64(2) {
		t.Fatalf("agent list: %v", body)
	}

	_, body = srv.call(nethttp.MethodGet, "/tickets?customerId=tenant-b", "agent", "")
	if body["total"] != float64(1) {
		t.Fatalf("agent tenant filter: %v", body)
	}

	status, body = srv.call(nethttp.MethodGet, "/tickets?pageSize=101", "agent", "")
	if status != nethttp.StatusBadRequest || errorCode(body) != "BAD_REQUEST" {
		t.Fatalf("oversized page: %d %v", status, body)
	}
}

func TestRequestErrors(t *testing.T) {
	srv := newTestServer(t)
	_, created := srv.call(nethttp.MethodPost, "/tickets", "cust-a", createBody)
	id := created["id"].(string)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     string
		wantHTTP int
		wantCode string
	}{
		{"malformed json", nethttp.MethodPost, "/tickets", "cust-a", `{"title":`, 400, "BAD_REQUEST"},
		{"missing title", nethttp.MethodPost, "/tickets", "cust-a", `{"projectId":"proj-a","type":"Bug","description":"d"}`, 400, "BAD_REQUEST"},
		{"customer assigns", nethttp.MethodPatch, "/tickets/" + id + "/assign", "cust-a", `{"assigneeUserId":"x"}`, 403, "PERMISSION_DENIED"},
		{"assignee wrong type", nethttp.MethodPatch, "/tickets/" + id + "/assign", "agent", `{"assigneeUserId":42}`, 400, "BAD_REQUEST"},
		{"assignee missing", nethttp.MethodPatch, "/tickets/" + id + "/assign", "agent", `{}`, 400, "BAD_REQUEST"},
		{"bad status", nethttp.MethodPatch, "/tickets/" + id + "/status", "agent", `{"status":"DONE"}`, 400, "BAD_REQUEST"},
		{"unknown ticket", nethttp.MethodGet, "/tickets/nope", "agent", "", 404, "NOT_FOUND"},
		{"blocked mime", nethttp.MethodPost, "/tickets/" + id + "/attachments/presign-upload", "cust-a", `{"filename":"a.exe","mime":"application/x-msdownload","sizeBytes":10}`, 400, "BAD_REQUEST"},
		{"unknown attachment", nethttp.MethodGet, "/tickets/" + id + "/attachments/nope/presign-download", "cust-a", "", 404, "NOT_FOUND"},
		{"claimless customer get", nethttp.MethodGet, "/tickets/" + id, "cust-0", "", 403, "PERMISSION_DENIED"},
		{"claimless customer comment", nethttp.MethodPost, "/tickets/" + id + "/comments", "cust-0", `{"body":"hi"}`, 403, "PERMISSION_DENIED"},
		{"claimless customer list", nethttp.MethodGet, "/tickets", "cust-0", "", 403, "PERMISSION_DENIED"},
		{"unknown route", nethttp.MethodGet, "/nowhere", "", "", 404, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.call(tt.method, tt.path, tt.token, tt.body)
			if status != tt.wantHTTP || errorCode(body) != tt.wantCode {
				t.Fatalf("got %d %v, want %d %s", status, body, tt.wantHTTP, tt.wantCode)
			}
		})
	}
}
