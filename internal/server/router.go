package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/server/handlers"
	"github.com/cdennis121/Shipyard/internal/server/middleware"
)

func RegisterRoutes(app *fiber.App) {
	// Update endpoint consumed by auto-updater clients. The explicit
	// download form goes first so it wins over the generic segment.
	app.Get("/updates/:appSlug/download/:filename", handlers.DownloadFile)
	app.Get("/updates/:appSlug/:file", handlers.GetUpdate)

	// Management API (operator principal required).
	api := app.Group("/api")
	api.Post("/login", handlers.Login)

	admin := api.Group("", middleware.AuthRequired(models.RoleAdmin))
	admin.Post("/upload", handlers.CreateUploadURL)
	admin.Post("/releases/:id/files", handlers.RegisterReleaseFile)
	admin.Get("/releases/:id/keys", handlers.ListReleaseKeys)
	admin.Post("/releases/:id/keys", handlers.CreateReleaseKey)
	admin.Delete("/releases/:id", handlers.DeleteRelease)
	admin.Get("/cleanup", handlers.PreviewCleanup)
	admin.Post("/cleanup", handlers.RunCleanup)
	admin.Get("/stats/rollout/:releaseId", handlers.RolloutStats)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "time": time.Now()})
	})
}
