package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets a default Cache-Control header when the handler
// did not. Calculation results depend on the request body, so POST
// responses are never stored by shared caches.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var value string
		switch {
		case c.Method() == fiber.MethodPost:
			value = "no-store"
		case path == "/v1/health" || path == "/v1/ready":
			value = "no-cache"
		case path == "/metrics":
			value = "no-cache"
		case strings.HasPrefix(path, "/docs"):
			value = "public, max-age=3600"
		}
		if value != "" {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}
