package server

import (
	"encoding/json"

	"beatbox/internal/middleware"
	"beatbox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedHandler handles GET /api/ws, the live suggestion event feed.
func (s *Server) FeedHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, feedErrorFrame("unavailable"))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("live feed registration rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, feedErrorFrame(err.Error()))
			_ = conn.Close()
			return
		}
		middleware.Logger.Debug("live feed client connected", "user_id", userID)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		if s.hub == nil {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				&models.AppError{Code: "UNAVAILABLE", Message: "Live feed requires Redis"})
		}
		return upgrade(c)
	}
}

// feedErrorFrame is the text frame sent before closing a rejected feed socket.
func feedErrorFrame(msg string) []byte {
	frame, err := json.Marshal(fiber.Map{"error": msg})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return frame
}
