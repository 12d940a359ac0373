package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mailcadence/utils"
)

// Protected verifies the bearer token and stashes the owner id in the
// request locals. There is no user table to cross-check: owners are an
// external identity and the signed token is the whole story.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Try to get token from Authorization header first
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		} else {
			// Fall back to cookie if header not present
			token = c.Cookies("access_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authorization required",
				})
			}
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("ownerID", claims.OwnerID)
		return c.Next()
	}
}

// OwnerID reads the authenticated owner out of the request locals.
func OwnerID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("ownerID").(uint); ok {
		return id
	}
	return 0
}
