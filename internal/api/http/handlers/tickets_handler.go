package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-tickets/internal/api/dto"
	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/service"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

// TicketsHandler serves the ticket endpoints for customers and internal staff.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

func requireActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

// decodeBody parses a JSON body strictly as JSON regardless of content type.
func decodeBody(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	return nil
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	query := service.ListTicketsQuery{
		CustomerID: c.Query("customerId"),
		ProjectID:  c.Query("projectId"),
		Status:     c.Query("status"),
		Assignee:   c.Query("assignee"),
		View:       c.Query("view"),
		Sort:       c.Query("sort"),
		Order:      c.Query("order"),
		Page:       c.Query("page"),
		PageSize:   c.Query("pageSize"),
	}
	page, err := h.service.ListTickets(c.UserContext(), actor, query)
	if err != nil {
		return err
	}
	return c.JSON(dto.ToTicketList(page))
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	detail, err := h.service.CreateTicket(c.UserContext(), actor, dto.ToCreateInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTicketDetail(detail))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicketByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToTicketDetail(detail))
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	detail, err := h.service.UpdateTicketStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.ToTicketDetail(detail))
}

// AssignTicket PATCH /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	detail, err := h.service.AssignTicket(c.UserContext(), actor, c.Params("id"), dto.ToAssignInput(req))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToTicketDetail(detail))
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToComment(*comment))
}

// PresignUpload POST /tickets/:id/attachments/presign-upload.
func (h *TicketsHandler) PresignUpload(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.PresignUploadRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	grant, err := h.service.PresignAttachmentUpload(c.UserContext(), actor, c.Params("id"), req.Filename, req.Mime, req.SizeBytes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPresignUpload(grant))
}

// PresignDownload GET /tickets/:id/attachments/:attachmentId/presign-download.
func (h *TicketsHandler) PresignDownload(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	grant, err := h.service.PresignAttachmentDownload(c.UserContext(), actor, c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToPresignDownload(grant))
}
