package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/selfdrive/rentals/handlers"
	"github.com/selfdrive/rentals/middleware"
)

// Deps carries what the route groups need; handlers are built by the caller.
type Deps struct {
	Orders    *handlers.OrderHandler
	Payments  *handlers.PaymentHandler
	Sockets   *handlers.AdminSocketHandler
	JWTSecret string
	Limiter   *middleware.IPRateLimiter
}

func OrderRoutes(app *fiber.App, d Deps) {
	orders := app.Group("/orders")

	public := []fiber.Handler{}
	if d.Limiter != nil {
		public = append(public, middleware.RateLimit(d.Limiter))
	}
	orders.Post("", append(public, d.Orders.CreateOrder)...)
	orders.Get("/track/:id", d.Orders.TrackOrder)
	orders.Post("/verify-payment", append(public, d.Payments.VerifyPayment)...)

	admin := orders.Group("/admin", middleware.Protected(d.JWTSecret), middleware.AdminRequired())
	admin.Get("", d.Orders.ListOrders)
	admin.Put("/:id", d.Orders.UpdateOrder)
	admin.Delete("/:id", d.Orders.DeleteOrder)
}
