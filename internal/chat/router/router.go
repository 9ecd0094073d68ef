package router

import (
	"time"

	"language_exchange_service/pkg/metrics"
	"language_exchange_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RegisterRoutes chat REST + ops endpoints, /ws is registered by the realtime router
func RegisterRoutes(r *fiber.App, chatHandler *ChatHandler) {
	r.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("chat service ok")
	})
	r.Get("/metrics", metrics.Handler())

	chats := r.Group("/chats", middlewares.JWTMiddleware())
	chats.Post("/", chatHandler.InitiateChat)
	chats.Get("/", chatHandler.ActiveChats)
	chats.Get("/recent", chatHandler.RecentMatches)
	chats.Get("/:id/messages", chatHandler.Messages)
	chats.Post("/:id/read", chatHandler.MarkRead)
	chats.Patch("/:id/status", chatHandler.SetStatus)

	// export 每個 member 每分鐘限 5 次
	chats.Post("/:id/export", limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := middlewares.MemberID(c); ok {
				return id
			}
			return c.IP()
		},
	}), chatHandler.RequestExport)
	chats.Get("/:id/export/:job", chatHandler.ExportStatus)
}
