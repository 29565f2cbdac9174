package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/selfdrive/rentals/middleware"
	hub "github.com/selfdrive/rentals/websocket"
	"go.uber.org/zap"
)

type AdminSocketHandler struct {
	Hub       *hub.Hub
	JWTSecret string
	Log       *zap.Logger
}

// Upgrade admits only admin websocket handshakes carrying ?token=<jwt>.
func (h *AdminSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	claims, err := middleware.ParseAdminToken(h.JWTSecret, c.Query("token"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired JWT"})
	}
	c.Locals("admin_claims", claims)
	return c.Next()
}

func (h *AdminSocketHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.Hub.Register(conn)
		defer h.Hub.Unregister(conn)

		// Admins only listen; reads detect the socket closing.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.Log.Debug("Admin socket closed", zap.Error(err))
				return
			}
		}
	})
}
