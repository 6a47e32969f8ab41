package server

import (
	"viralpik/internal/middleware"
	"viralpik/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades to a notification socket. The route's auth
// middleware has already resolved userID from a one-time ticket.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 || s.hub == nil {
			_ = conn.Close()
			return
		}

		sock, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket refused", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
			_ = conn.Close()
			return
		}

		if hello, err := notifications.Encode("connected", map[string]interface{}{"user_id": uid}); err == nil {
			sock.Deliver([]byte(hello))
		}
		sock.Serve()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
