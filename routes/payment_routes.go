package routes

import (
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, d Deps) {
	webhooks := app.Group("/webhooks")
	webhooks.Post("/razorpay", d.Payments.RazorpayWebhook)
}
