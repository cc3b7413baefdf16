package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

// RequireActor ensures an actor was placed on the request.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireInternal ensures the actor is an agent or admin.
func RequireInternal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !IsInternal(actor) {
			return apperrors.NewPermissionDenied("missing required role")
		}
		return c.Next()
	}
}
