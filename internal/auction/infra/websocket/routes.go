package websocket

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	sharedws "github.com/potlabs/dutchAuctionEngine/internal/shared/websocket"
)

// RegisterRoutes wires the ws upgrade endpoint. Each connection joins the
// client group of the auction in the path, gets the current state pushed,
// and then participates through the hub.
func RegisterRoutes(ctx context.Context, app *fiber.App, hub *sharedws.Hub, handler *AuctionWSHandler) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/auctions/:id", websocket.New(func(conn *websocket.Conn) {
		client := &sharedws.Client{
			Hub:       hub,
			Conn:      conn,
			Send:      make(chan []byte, 64),
			AuctionID: conn.Params("id"),
			ID:        uuid.NewString(),
		}
		hub.RegisterClient(client)
		handler.SendInitialState(ctx, client)

		go client.WritePump(ctx)
		client.ReadPump(ctx) // blocks until the connection drops
	}))
}
