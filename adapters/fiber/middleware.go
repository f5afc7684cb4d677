package fiber

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/cuonglevan23/ybproject/core"
)

const (
	localClaims = "claims"
	localToken  = "token"
)

// requireAuth validates the bearer token and stores its claims for
// downstream handlers
func (s *Server) requireAuth(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", core.ErrNotAuthenticated.Error())
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	}

	c.Locals(localClaims, claims)
	c.Locals(localToken, token)

	return c.Next()
}

// extractToken reads the Authorization: Bearer header
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func claimsFrom(c fiber.Ctx) *Claims {
	claims, _ := c.Locals(localClaims).(*Claims)
	return claims
}
