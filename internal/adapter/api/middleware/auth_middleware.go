package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"estatechat/internal/domain/entity"
	"estatechat/internal/infrastructure/firebase"
	"estatechat/pkg/errors"
	"estatechat/pkg/response"
)

const (
	uidKey      = "uid"
	identityKey = "identity"
)

type AuthMiddleware struct {
	verifier firebase.TokenVerifier
}

func NewAuthMiddleware(verifier firebase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate accepts "Authorization: Bearer <token>" or, for clients that
// cannot set headers, a token query parameter.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := BearerToken(c)
		if err != nil {
			return response.Error(c, err)
		}

		identity, err := m.IdentityFromToken(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(uidKey, identity.UserID)
		c.Set(identityKey, *identity)
		return next(c)
	}
}

func (m *AuthMiddleware) IdentityFromToken(ctx context.Context, token string) (*entity.Identity, error) {
	if token == "" {
		return nil, errors.Unauthorized("Authorization token is required", nil)
	}
	return m.verifier.Verify(ctx, token)
}

// BearerToken extracts the caller's token from the request.
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", errors.Unauthorized("Authorization header is required", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}

// CurrentIdentity returns the identity Authenticate stored on c.
func CurrentIdentity(c echo.Context) (entity.Identity, error) {
	identity, ok := c.Get(identityKey).(entity.Identity)
	if !ok || identity.UserID == "" {
		return entity.Identity{}, errors.Unauthorized("Authentication required", nil)
	}
	return identity, nil
}
