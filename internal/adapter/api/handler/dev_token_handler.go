package handler

import (
	"github.com/labstack/echo/v4"

	"estatechat/internal/domain/entity"
	"estatechat/internal/infrastructure/firebase"
	"estatechat/pkg/errors"
	"estatechat/pkg/response"
)

// DevTokenHandler issues unsigned tokens for local testing against the
// dev verifier.
type DevTokenHandler struct{}

func NewDevTokenHandler() *DevTokenHandler {
	return &DevTokenHandler{}
}

type devTokenResponse struct {
	Token string          `json:"token"`
	User  entity.Identity `json:"user"`
}

// GenerateUserToken answers GET /_dev/token?uid=&name=&email=.
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	identity := entity.Identity{
		UserID:      c.QueryParam("uid"),
		DisplayName: c.QueryParam("name"),
		Email:       c.QueryParam("email"),
	}
	if identity.UserID == "" {
		return response.Error(c, errors.BadRequest("uid is required", nil))
	}
	return response.Success(c, devTokenResponse{
		Token: firebase.DevToken(identity),
		User:  identity,
	})
}
