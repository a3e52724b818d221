package middleware

import (
	"site-inventory/internal/models"
	"site-inventory/internal/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// PermissionSiteImport allows staging and committing site imports.
const PermissionSiteImport = "sites.import"

// AuthMiddleware resolves the bearer token into a models.Actor stored in Locals.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization header is required", nil)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization header format", nil)
		}

		claims, err := utils.ValidateToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
		}

		c.Locals(actorKey, claims.Actor())
		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RequirePermission lets admins and actors holding permission through.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", nil)
		}
		if actor.Role == "admin" {
			return c.Next()
		}
		for _, p := range actor.Permissions {
			if p == permission {
				return c.Next()
			}
		}
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Missing permission "+permission, nil)
	}
}

func ActorFromContext(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(actorKey).(models.Actor)
	return actor, ok
}
