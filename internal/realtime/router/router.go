package router

import (
	identity "language_exchange_service/internal/identity/domain"
	"language_exchange_service/internal/realtime/app"
	"language_exchange_service/internal/realtime/domain"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/metrics"
	"language_exchange_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const localUser = "wsUser"

// RegisterRoutes websocket entry point, authentication happens before the upgrade
func RegisterRoutes(r fiber.Router, hub *app.Hub, provider identity.Provider) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := middlewares.ExtractToken(c)
		if token == "" {
			metrics.ConnectionsRejected.WithLabelValues("missing_token").Inc()
			return reject(c, errprocess.Authentication("Missing token"))
		}

		user, err := provider.Authenticate(c.UserContext(), token)
		if err != nil {
			metrics.ConnectionsRejected.WithLabelValues("authentication").Inc()
			logger.Log.Info("websocket authentication failed", zap.String("ip", c.IP()), zap.Error(err))
			return reject(c, err)
		}

		c.Locals(localUser, user)
		return c.Next()
	})

	r.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		user, ok := conn.Locals(localUser).(identity.User)
		if !ok {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(domain.CloseAuthenticationFailed, "authentication failed"))
			return
		}
		hub.Serve(conn, user)
	}))
}

func reject(c *fiber.Ctx, err error) error {
	code := errprocess.CodeOf(err)
	if code != errprocess.CodeAuthentication && code != errprocess.CodeUnavailable {
		code = errprocess.CodeAuthentication
	}
	status := fiber.StatusUnauthorized
	if code == errprocess.CodeUnavailable {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"error": "authentication failed",
		"code":  code,
	})
}
