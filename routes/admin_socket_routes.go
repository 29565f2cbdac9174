package routes

import (
	"github.com/gofiber/fiber/v2"
)

func AdminSocketRoutes(app *fiber.App, d Deps) {
	app.Use("/ws/admin", d.Sockets.Upgrade)
	app.Get("/ws/admin", d.Sockets.Serve())
}
