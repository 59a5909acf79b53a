package firebase

import (
	"context"
	"strings"

	"estatechat/internal/domain/entity"
	"estatechat/pkg/errors"
)

// DevTokenVerifier accepts unsigned "uid|name|email" tokens. Only wired in
// development.
type DevTokenVerifier struct{}

var _ TokenVerifier = DevTokenVerifier{}

func (DevTokenVerifier) Verify(ctx context.Context, token string) (*entity.Identity, error) {
	parts := strings.SplitN(token, "|", 3)
	uid := strings.TrimSpace(parts[0])
	if uid == "" {
		return nil, errors.Unauthorized("Invalid or expired token", nil)
	}

	claims := map[string]interface{}{}
	if len(parts) > 1 {
		claims["name"] = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		claims["email"] = strings.TrimSpace(parts[2])
	}
	return identityFromClaims(uid, claims), nil
}

// DevToken builds a token DevTokenVerifier accepts.
func DevToken(identity entity.Identity) string {
	return identity.UserID + "|" + identity.DisplayName + "|" + identity.Email
}
