package router

import (
	"github.com/labstack/echo/v4"

	"estatechat/internal/adapter/api/handler"
	"estatechat/internal/adapter/api/middleware"
	"estatechat/internal/infrastructure/ratelimit"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
	DevToken  *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, sendLimiter *ratelimit.RateLimiter) {
	SetupHealthRouter(e, h.Health)
	SetupChatRouter(e, h.Chat, authMiddleware, sendLimiter)
	SetupWebSocketRouter(e, h.WebSocket)
	if h.DevToken != nil {
		SetupDevRouter(e, h.DevToken)
	}
}
