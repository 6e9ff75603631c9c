package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// LegacyPrefix describes a deprecated route prefix and its successor.
type LegacyPrefix struct {
	Prefix    string    // e.g. /api/earthwork
	Successor string    // e.g. /v1/earthwork
	Sunset    time.Time // removal date
}

// DeprecationMiddleware adds RFC 8594 Deprecation and Sunset headers and an
// RFC 8288 successor-version link to requests under a legacy prefix.
func DeprecationMiddleware(legacy ...LegacyPrefix) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, l := range legacy {
			if !strings.HasPrefix(path, l.Prefix) {
				continue
			}
			c.Set("Deprecation", "true")
			c.Set("Sunset", l.Sunset.UTC().Format(httpDate))
			if l.Successor != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, l.Successor+strings.TrimPrefix(path, l.Prefix)))
			}
			break
		}
		return c.Next()
	}
}
