package middleware

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the caller identity set by the Gateway.
// Every duel route is ownership-checked, so a missing or malformed user id
// fails the request outright.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-User-ID")
		if raw == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		userID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Printf("❌ [USER_CTX] malformed X-User-ID %q on %s", raw, c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid X-User-ID",
			})
		}

		c.Locals("user_id", uint(userID))
		return c.Next()
	}
}
