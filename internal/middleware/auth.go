package middleware

import (
	"docmanager/internal/auth"
	"docmanager/internal/dto"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Protected validates the bearer token, rejects anything but an access token
// and stores the resulting Principal for the handler chain. Handlers receive
// identity through Principal(c) and pass it on explicitly; nothing below the
// middleware reads token state.
func Protected(tokens *auth.TokenService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc: tokens.KeyFunc(),
		SuccessHandler: func(c *fiber.Ctx) error {
			raw := extractBearer(c)
			claims, err := tokens.ParseOfType(raw, auth.TokenTypeAccess)
			if err != nil {
				return unauthorized(c)
			}
			p, err := auth.PrincipalFromClaims(claims)
			if err != nil {
				return unauthorized(c)
			}
			c.Locals(principalKey, p)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

// Principal returns the identity established by Protected, or nil on
// unprotected routes.
func Principal(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(principalKey).(*auth.Principal)
	return p
}

func extractBearer(c *fiber.Ctx) string {
	const prefix = "Bearer "
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
