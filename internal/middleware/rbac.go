package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/utils"
)

// RequireGlobalRole ensures the authenticated user holds one of the allowed
// global roles. Class-scoped permissions are enforced in the service layer;
// this gate only covers operations tied to the account type itself.
func RequireGlobalRole(roles ...models.GlobalRole) fiber.Handler {
	allowed := make(map[models.GlobalRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(models.GlobalRole)
		if !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}
