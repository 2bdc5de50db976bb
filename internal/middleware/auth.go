package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// publicPrefixes bypass authentication.
var publicPrefixes = []string{"/health", "/swagger", "/metrics"}

// AuthMiddleware provides mock Bearer token authentication.
// Any non-empty Bearer token is considered valid.
func AuthMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing Authorization header",
			})
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid Authorization header format, expected 'Bearer <token>'",
			})
		}
		if strings.TrimSpace(token) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "empty bearer token",
			})
		}

		// Mock validation: token issuance lives outside this service.
		c.Locals("auth_token", token)

		return c.Next()
	}
}
