package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-tickets/internal/domain"
	apperrors "github.com/spec-kit/support-tickets/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// IdentityProvider turns a bearer credential into a verified actor.
type IdentityProvider interface {
	Verify(token string) (domain.Actor, error)
}

// AuthMiddleware validates bearer tokens and stores the actor on the request.
type AuthMiddleware struct {
	identities IdentityProvider
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(identities IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{identities: identities}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	actor, err := m.identities.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}
