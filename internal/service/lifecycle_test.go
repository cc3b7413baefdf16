package service

import (
	"testing"

	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/repository"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

func TestBuildTicketFilterViews(t *testing.T) {
	agent := agentActor()
	closed := domain.TicketStatusClosed

	tests := []struct {
		name       string
		query      ListTicketsQuery
		statuses   []domain.TicketStatus
		exclude    *domain.TicketStatus
		assignee   repository.AssigneeMatch
		assigneeID string
	}{
		{name: "no view", query: ListTicketsQuery{}, assignee: repository.AssigneeAny},
		{name: "new", query: ListTicketsQuery{View: "new"}, statuses: []domain.TicketStatus{domain.TicketStatusOpen}, assignee: repository.AssigneeNone},
		{name: "open", query: ListTicketsQuery{View: "open"}, statuses: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}},
		{name: "my", query: ListTicketsQuery{View: "my"}, exclude: &closed, assignee: repository.AssigneeUser, assigneeID: agent.SubjectID},
		{name: "status beats view", query: ListTicketsQuery{View: "my", Status: "CLOSED"}, statuses: []domain.TicketStatus{domain.TicketStatusClosed}, assignee: repository.AssigneeUser, assigneeID: agent.SubjectID},
		{name: "status beats open view", query: ListTicketsQuery{View: "open", Status: "CLOSED"}, statuses: []domain.TicketStatus{domain.TicketStatusClosed}},
		{name: "assignee beats view", query: ListTicketsQuery{View: "my", Assignee: "unassigned"}, exclude: &closed, assignee: repository.AssigneeNone},
		{name: "assignee me beats new", query: ListTicketsQuery{View: "new", Assignee: "me"}, statuses: []domain.TicketStatus{domain.TicketStatusOpen}, assignee: repository.AssigneeUser, assigneeID: agent.SubjectID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, _, _, err := BuildTicketFilter(agent, tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(filter.Statuses) != len(tt.statuses) {
				t.Fatalf("statuses %v, want %v", filter.Statuses, tt.statuses)
			}
			for i := range tt.statuses {
				if filter.Statuses[i] != tt.statuses[i] {
					t.Fatalf("statuses %v, want %v", filter.Statuses, tt.statuses)
				}
			}
			if (filter.ExcludeStatus == nil) != (tt.exclude == nil) || (tt.exclude != nil && *filter.ExcludeStatus != *tt.exclude) {
				t.Fatalf("exclude %v, want %v", filter.ExcludeStatus, tt.exclude)
			}
			if filter.Assignee != tt.assignee || filter.AssigneeID != tt.assigneeID {
				t.Fatalf("assignee %v/%q, want %v/%q", filter.Assignee, filter.AssigneeID, tt.assignee, tt.assigneeID)
			}
		})
	}
}

func TestBuildTicketFilterPagingAndSort(t *testing.T) {
	filter, page, pageSize, err := BuildTicketFilter(agentActor(), ListTicketsQuery{Page: "3", PageSize: "25", Sort: "createdAt", Order: "asc"})
	if err != nil {
		t.Fatal(err)
	}
	if page != 3 || pageSize != 25 || filter.Limit != 25 || filter.Offset != 50 {
		t.Fatalf("paging page=%d size=%d limit=%d offset=%d", page, pageSize, filter.Limit, filter.Offset)
	}
	if filter.SortBy != repository.SortByCreatedAt || !filter.Ascending {
		t.Fatalf("sort %s asc=%v", filter.SortBy, filter.Ascending)
	}

	filter, page, pageSize, err = BuildTicketFilter(agentActor(), ListTicketsQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if page != 1 || pageSize != 20 || filter.SortBy != repository.SortByUpdatedAt || filter.Ascending {
		t.Fatalf("defaults page=%d size=%d sort=%s asc=%v", page, pageSize, filter.SortBy, filter.Ascending)
	}
	if filter.TenantID != nil {
		t.Fatal("internal actor without override must be unfiltered")
	}
}

func TestBuildTicketFilterRejects(t *testing.T) {
	tests := []struct {
		name  string
		actor domain.Actor
		query ListTicketsQuery
		code  string
	}{
		{"page zero", agentActor(), ListTicketsQuery{Page: "0"}, apperrors.CodeBadRequest},
		{"negative page", agentActor(), ListTicketsQuery{Page: "-1"}, apperrors.CodeBadRequest},
		{"fractional page", agentActor(), ListTicketsQuery{Page: "1.5"}, apperrors.CodeBadRequest},
		{"non numeric size", agentActor(), ListTicketsQuery{PageSize: "abc"}, apperrors.CodeBadRequest},
		{"size over max", agentActor(), ListTicketsQuery{PageSize: "101"}, apperrors.CodeBadRequest},
		{"offset overflow", agentActor(), ListTicketsQuery{Page: "9223372036854775807", PageSize: "2"}, apperrors.CodeBadRequest},
		{"offset overflow default size", agentActor(), ListTicketsQuery{Page: "922337203685477581"}, apperrors.CodeBadRequest},
		{"bad status", agentActor(), ListTicketsQuery{Status: "open"}, apperrors.CodeBadRequest},
		{"bad view", agentActor(), ListTicketsQuery{View: "all"}, apperrors.CodeBadRequest},
		{"bad assignee", agentActor(), ListTicketsQuery{Assignee: "agent-1"}, apperrors.CodeBadRequest},
		{"bad sort", agentActor(), ListTicketsQuery{Sort: "title"}, apperrors.CodeBadRequest},
		{"bad order", agentActor(), ListTicketsQuery{Order: "up"}, apperrors.CodeBadRequest},
		{"customer names tenant", customerActor(tenantA), ListTicketsQuery{CustomerID: tenantA}, apperrors.CodePermissionDenied},
		{"customer without claim", domain.Actor{SubjectID: "c", Roles: []domain.Role{domain.RoleCustomerUser}}, ListTicketsQuery{}, apperrors.CodePermissionDenied},
		{"no role", domain.Actor{SubjectID: "x"}, ListTicketsQuery{}, apperrors.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := BuildTicketFilter(tt.actor, tt.query)
			assertCode(t, err, tt.code)
		})
	}
}

func TestBuildTicketFilterValidatesBeforeScope(t *testing.T) {
	// A customer naming a tenant with a malformed page gets the BadRequest first.
	_, _, _, err := BuildTicketFilter(customerActor(tenantA), ListTicketsQuery{CustomerID: tenantB, Page: "x"})
	assertCode(t, err, apperrors.CodeBadRequest)
}

func TestValidateCreateInput(t *testing.T) {
	valid := CreateTicketInput{ProjectID: "p", Type: "Plugin", Title: "t", Description: "d"}
	tests := []struct {
		name   string
		mutate func(*CreateTicketInput)
	}{
		{"missing project", func(in *CreateTicketInput) { in.ProjectID = "" }},
		{"blank title", func(in *CreateTicketInput) { in.Title = "  " }},
		{"blank description", func(in *CreateTicketInput) { in.Description = "\t" }},
		{"unknown type", func(in *CreateTicketInput) { in.Type = "Question" }},
		{"lowercase type", func(in *CreateTicketInput) { in.Type = "bug" }},
		{"unknown status", func(in *CreateTicketInput) { in.Status = strPtr("RESOLVED") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := validateCreateInput(in)
			assertCode(t, err, apperrors.CodeBadRequest)
		})
	}

	got, err := validateCreateInput(valid)
	if err != nil {
		t.Fatal(err)
	}
	if got.status != domain.TicketStatusOpen || got.ticketType != domain.TicketTypePlugin {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestInternalRoleWinsOverCustomerRole(t *testing.T) {
	both := domain.Actor{
		SubjectID: "dual",
		Roles:     []domain.Role{domain.RoleCustomerUser, domain.RoleAdmin},
		TenantID:  strPtr(tenantA),
	}
	tenant, err := resolveCreateTenant(both, CreateTicketInput{CustomerID: strPtr(tenantB)})
	if err != nil || tenant != tenantB {
		t.Fatalf("expected internal branch, got %q %v", tenant, err)
	}
	if _, err := validateAssignInput(both, AssignTicketInput{Provided: true}); err != nil {
		t.Fatalf("dual-role actor may assign: %v", err)
	}
}
