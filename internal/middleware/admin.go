package middleware

import (
	"docmanager/internal/dto"
	"docmanager/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminRequired gates administrative route groups. Runs after Protected, so
// the principal is already established; role changes made after token
// issuance take effect at the next refresh.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Principal(c)
		if p == nil {
			return unauthorized(c)
		}
		if !p.HasRole(models.RoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
