package router

import (
	"github.com/labstack/echo/v4"

	"estatechat/internal/adapter/api/handler"
	"estatechat/internal/adapter/api/middleware"
	"estatechat/internal/infrastructure/ratelimit"
)

// SetupChatRouter sets up the REST chat routes. WebSocket lives in its own
// router.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, sendLimiter *ratelimit.RateLimiter) {
	v1 := e.Group("/v1")
	v1.Use(authMiddleware.Authenticate)

	v1.POST("/listings/:id/chat", chatHandler.StartListingChat) // POST /v1/listings/:id/chat - Open chat from a listing

	chatGroup := v1.Group("/chats")
	chatGroup.POST("", chatHandler.CreateChat)             // POST /v1/chats - Create or get a conversation
	chatGroup.GET("", chatHandler.GetUserChats)            // GET /v1/chats?filter= - List user's conversations
	chatGroup.GET("/:id", chatHandler.GetChatByID)         // GET /v1/chats/:id
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead) // PUT /v1/chats/:id/read

	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.POST("/:id/messages", chatHandler.SendMessage, middleware.RateLimit(sendLimiter, "send_message"))
}
