package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/database"
	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/services"
)

// AuthRequired resolves the operator principal from an
// Authorization: Bearer token and rejects requests without one. The
// update/download endpoints never use this; updater clients present
// app API keys instead.
func AuthRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(token, "Bearer ") {
			token = strings.TrimPrefix(token, "Bearer ")
		}
		if token == "" {
			return fiber.ErrUnauthorized
		}
		claims, err := services.ParseToken(token)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		if !hasRole(claims.Role, roles) {
			return fiber.ErrForbidden
		}
		var user models.User
		if err := database.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("user", &user)
		return c.Next()
	}
}

func hasRole(userRole string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == userRole {
			return true
		}
	}
	return false
}
