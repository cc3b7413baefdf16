package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/repository"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateTicketInput is the create payload. Optional fields are nil when absent.
type CreateTicketInput struct {
	CustomerID     *string
	ProjectID      string
	Type           string
	Status         *string
	Title          string
	Description    string
	AssigneeUserID *string
}

// AssignTicketInput distinguishes a missing assignee key from an explicit null.
type AssignTicketInput struct {
	Provided       bool
	WrongType      bool
	AssigneeUserID *string
}

// ListTicketsQuery holds raw list query parameters; empty means absent.
type ListTicketsQuery struct {
	CustomerID string
	ProjectID  string
	Status     string
	Assignee   string
	View       string
	Sort       string
	Order      string
	Page       string
	PageSize   string
}

// TicketPage is one page of list results.
type TicketPage struct {
	Items    []domain.Ticket
	Page     int
	PageSize int
	Total    int
}

func statusListMessage() string {
	names := make([]string, len(domain.TicketStatuses))
	for i, s := range domain.TicketStatuses {
		names[i] = string(s)
	}
	return "status must be one of: " + strings.Join(names, ", ")
}

func typeListMessage() string {
	names := make([]string, len(domain.TicketTypes))
	for i, t := range domain.TicketTypes {
		names[i] = string(t)
	}
	return "type must be one of: " + strings.Join(names, ", ")
}

// ParseStatus accepts any of the three status literals. Every transition between
// them is allowed, including reopening a closed ticket.
func ParseStatus(raw string) (domain.TicketStatus, error) {
	status := domain.TicketStatus(raw)
	if !status.Valid() {
		return "", apperrors.NewBadRequest(statusListMessage())
	}
	return status, nil
}

const emptyAssigneeMessage = "assigneeUserId must be a non-empty string or null"

func isSet(value *string) bool {
	return value != nil && *value != ""
}

type validatedCreate struct {
	ticketType domain.TicketType
	status     domain.TicketStatus
}

func validateCreateInput(in CreateTicketInput) (validatedCreate, error) {
	if strings.TrimSpace(in.ProjectID) == "" {
		return validatedCreate{}, apperrors.NewBadRequest("projectId is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return validatedCreate{}, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return validatedCreate{}, apperrors.NewBadRequest("description is required")
	}
	ticketType := domain.TicketType(in.Type)
	if !ticketType.Valid() {
		return validatedCreate{}, apperrors.NewBadRequest(typeListMessage())
	}
	if in.AssigneeUserID != nil && strings.TrimSpace(*in.AssigneeUserID) == "" {
		return validatedCreate{}, apperrors.NewBadRequest(emptyAssigneeMessage)
	}
	status := domain.TicketStatusOpen
	if in.Status != nil {
		parsed, err := ParseStatus(*in.Status)
		if err != nil {
			return validatedCreate{}, err
		}
		status = parsed
	}
	return validatedCreate{ticketType: ticketType, status: status}, nil
}

// resolveCreateTenant picks the owning tenant for a new ticket.
func resolveCreateTenant(actor domain.Actor, in CreateTicketInput) (string, error) {
	switch {
	case auth.IsInternal(actor):
		if !isSet(in.CustomerID) {
			return "", apperrors.NewBadRequest("customerId is required for internal ticket creation")
		}
		return *in.CustomerID, nil
	case auth.IsCustomer(actor):
		tenantID, err := auth.RequireTenantClaim(actor)
		if err != nil {
			return "", err
		}
		if isSet(in.CustomerID) {
			return "", apperrors.NewBadRequest("customerId cannot be set by customer_user")
		}
		if isSet(in.AssigneeUserID) {
			return "", apperrors.NewBadRequest("assigneeUserId cannot be set by customer_user")
		}
		return tenantID, nil
	default:
		return "", apperrors.NewPermissionDenied("unsupported role for ticket creation")
	}
}

func validateAssignInput(actor domain.Actor, in AssignTicketInput) (*string, error) {
	if !auth.IsInternal(actor) {
		return nil, apperrors.NewPermissionDenied("only internal users can assign tickets")
	}
	if !in.Provided {
		return nil, apperrors.NewBadRequest("assigneeUserId must be provided")
	}
	if in.WrongType {
		return nil, apperrors.NewBadRequest("assigneeUserId must be string or null")
	}
	if in.AssigneeUserID != nil && strings.TrimSpace(*in.AssigneeUserID) == "" {
		return nil, apperrors.NewBadRequest(emptyAssigneeMessage)
	}
	return in.AssigneeUserID, nil
}

func validateListQuery(q ListTicketsQuery) error {
	if q.Status != "" {
		if _, err := ParseStatus(q.Status); err != nil {
			return err
		}
	}
	if q.Assignee != "" && q.Assignee != "me" && q.Assignee != "unassigned" {
		return apperrors.NewBadRequest("assignee must be one of: me, unassigned")
	}
	if q.View != "" && q.View != "new" && q.View != "open" && q.View != "my" {
		return apperrors.NewBadRequest("view must be one of: new, open, my")
	}
	if q.Sort != "" && q.Sort != string(repository.SortByUpdatedAt) && q.Sort != string(repository.SortByCreatedAt) {
		return apperrors.NewBadRequest("sort must be one of: updatedAt, createdAt")
	}
	if q.Order != "" && q.Order != "asc" && q.Order != "desc" {
		return apperrors.NewBadRequest("order must be one of: asc, desc")
	}
	return nil
}

func parsePositiveInt(raw string, fallback int, field string, max int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return 0, apperrors.NewBadRequest(fmt.Sprintf("%s must be a positive integer", field))
	}
	if max > 0 && value > max {
		return 0, apperrors.NewBadRequest(fmt.Sprintf("%s must be <= %d", field, max))
	}
	return value, nil
}

// BuildTicketFilter turns a list query into a repository filter. The view preset
// is applied first; an explicit status or assignee then replaces what the view
// implied for that field.
func BuildTicketFilter(actor domain.Actor, q ListTicketsQuery) (repository.TicketFilter, int, int, error) {
	if err := validateListQuery(q); err != nil {
		return repository.TicketFilter{}, 0, 0, err
	}
	page, err := parsePositiveInt(q.Page, defaultPage, "page", 0)
	if err != nil {
		return repository.TicketFilter{}, 0, 0, err
	}
	pageSize, err := parsePositiveInt(q.PageSize, defaultPageSize, "pageSize", maxPageSize)
	if err != nil {
		return repository.TicketFilter{}, 0, 0, err
	}
	if page-1 > math.MaxInt/pageSize {
		return repository.TicketFilter{}, 0, 0, apperrors.NewBadRequest("page is out of range")
	}
	scope, err := auth.ResolveTenantScope(actor, q.CustomerID)
	if err != nil {
		return repository.TicketFilter{}, 0, 0, err
	}

	filter := repository.TicketFilter{
		SortBy:    repository.SortByUpdatedAt,
		Ascending: q.Order == "asc",
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}
	if q.Sort == string(repository.SortByCreatedAt) {
		filter.SortBy = repository.SortByCreatedAt
	}
	if !scope.Unfiltered {
		tenantID := scope.TenantID
		filter.TenantID = &tenantID
	}
	if q.ProjectID != "" {
		projectID := q.ProjectID
		filter.ProjectID = &projectID
	}

	switch q.View {
	case "new":
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusOpen}
		filter.Assignee = repository.AssigneeNone
	case "open":
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}
	case "my":
		closed := domain.TicketStatusClosed
		filter.ExcludeStatus = &closed
		filter.Assignee = repository.AssigneeUser
		filter.AssigneeID = actor.SubjectID
	}

	if q.Status != "" {
		filter.Statuses = []domain.TicketStatus{domain.TicketStatus(q.Status)}
		filter.ExcludeStatus = nil
	}
	switch q.Assignee {
	case "me":
		filter.Assignee = repository.AssigneeUser
		filter.AssigneeID = actor.SubjectID
	case "unassigned":
		filter.Assignee = repository.AssigneeNone
		filter.AssigneeID = ""
	}
	return filter, page, pageSize, nil
}
