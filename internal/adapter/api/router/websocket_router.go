package router

import (
	"github.com/labstack/echo/v4"

	"estatechat/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes. The handler authenticates
// the token itself before upgrading.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
