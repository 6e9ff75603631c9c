package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/earthwork/internal/pkg/metrics"
)

// LegacySunset is when the /api/earthwork prefix stops being served.
var LegacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Calculations are CPU bound; 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	registerEarthwork(app.Group("/v1/earthwork"), deps)
	registerEarthwork(app.Group("/api/earthwork", DeprecationMiddleware(LegacyPrefix{
		Prefix:    "/api/earthwork",
		Successor: "/v1/earthwork",
		Sunset:    LegacySunset,
	})), deps)

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), deps.timeout()))

	SetupDocs(app, DefaultSpecPath)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

func registerEarthwork(r fiber.Router, deps *Dependencies) {
	d := deps.timeout()
	r.Post("/validate-polygon", timeout.NewWithContext(ValidatePolygonHandler(deps), d))
	r.Post("/calculate", timeout.NewWithContext(CalculateHandler(deps), d))
	r.Post("/calculate-tin", timeout.NewWithContext(CalculateTINHandler(deps), d))
	r.Post("/generate-sample-points", timeout.NewWithContext(GenerateSamplePointsHandler(deps), d))
	r.Post("/elevation", timeout.NewWithContext(ElevationHandler(deps), d))
}
