package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-tickets/internal/api/dto"
	"github.com/spec-kit/support-tickets/internal/auth"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

// MeHandler exposes the verified identity of the caller.
type MeHandler struct{}

// NewMeHandler constructs handler.
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// Get GET /me.
func (h *MeHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.ToMe(actor))
}
