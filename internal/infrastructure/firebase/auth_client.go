package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"estatechat/internal/domain/entity"
	"estatechat/pkg/errors"
)

// TokenVerifier resolves a bearer token to the signed-in user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*entity.Identity, error)
}

type FirebaseAuthClient struct {
	client *auth.Client
}

var _ TokenVerifier = (*FirebaseAuthClient)(nil)

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// Verify checks a Firebase ID token and reads the display name and email
// claims.
func (f *FirebaseAuthClient) Verify(ctx context.Context, token string) (*entity.Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}
	return identityFromClaims(result.UID, result.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) *entity.Identity {
	identity := &entity.Identity{UserID: uid}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Email
	}
	return identity
}
