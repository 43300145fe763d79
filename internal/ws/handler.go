package ws

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const frameTimeout = 10 * time.Second

// Upgrade rejects plain HTTP requests to the socket route.
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// GET /ws
func Handler(d *Dispatcher, log *zap.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		log.Debug("WebSocket connected", zap.String("remote", c.RemoteAddr().String()))
		defer log.Debug("WebSocket closed", zap.String("remote", c.RemoteAddr().String()))

		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.TextMessage {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
			reply := d.Handle(ctx, msg)
			cancel()

			if err := c.WriteJSON(reply); err != nil {
				log.Warn("WebSocket write failed", zap.Error(err))
				return
			}
		}
	})
}
