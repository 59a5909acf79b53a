package router

import (
	"github.com/labstack/echo/v4"

	"estatechat/internal/adapter/api/handler"
)

// SetupDevRouter is only called when dev tokens are enabled.
func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler) {
	e.GET("/_dev/token", devTokenHandler.GenerateUserToken)
}
