// handlers/pack.go
package handlers

import (
	"daily-challenge-pack/middleware"
	"daily-challenge-pack/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPackRoutes(app *fiber.App, packService *services.PackService) {
	// 🔓 Pack metadata — the host reads this when installing/refreshing the pack
	app.Get("/manifest", packService.GetManifest)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 🔒 Admin-only pack management
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))
	admin.Post("/pack/frontend", packService.UploadFrontendBundle)
	admin.Post("/pack/logo", packService.UploadPackLogo)
}
