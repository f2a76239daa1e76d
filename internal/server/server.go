// Package server assembles the catalog HTTP application.
package server

import (
	"time"

	"catalog/internal/agent"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Deps are the collaborators of the HTTP application.
type Deps struct {
	Products *services.ProductService
	Auth     *services.AuthService
	Agent    *agent.NavigationAgent
	Logger   *zap.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AccessLog    bool
}

// New builds the Fiber app with every route under /api/v1 plus /health.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "catalog",
		ReadTimeout:  d.ReadTimeout,
		WriteTimeout: d.WriteTimeout,
		ErrorHandler: handlers.ErrorHandler(d.Logger),
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		code, status, database := fiber.StatusOK, "healthy", "connected"
		if err := d.Products.Ping(c.UserContext()); err != nil {
			d.Logger.Warn("health check failed", zap.Error(err))
			code, status, database = fiber.StatusServiceUnavailable, "unhealthy", "unreachable"
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"database": database,
			"time":     time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(d.Auth, d.Logger).RegisterRoutes(apiV1)

	handlers.NewProductHandler(d.Products, d.Logger).RegisterRoutes(apiV1,
		middleware.AuthRequired(d.Auth, d.Logger),
		middleware.AdminRequired(),
	)

	if d.Agent != nil {
		handlers.NewAgentHandler(d.Agent, d.Logger).RegisterRoutes(apiV1)
	}

	return app
}
