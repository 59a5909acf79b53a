package entity

// Identity is the authenticated caller as supplied by the session provider.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
