package router

import (
	"site-inventory/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Setup mounts the health check and the JSON API on app. The returned func
// releases clients opened for the routes.
func Setup(app *fiber.App, db *sqlx.DB, redis *redis.Client, cfg *config.Config) func() error {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    cfg.AppName,
		})
	})

	api := app.Group("/api/v1")
	return SetupAPIRoutes(api, db, redis, cfg)
}
