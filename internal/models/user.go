package models

import "time"

// User represents an account in the identity store
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthSession represents an authenticated credentials session. The access
// token is short-lived and reissued from the refresh token as needed.
type AuthSession struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	Email                string    `json:"email"`
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	RefreshToken         string    `json:"refreshToken"`
	ExpiresAt            time.Time `json:"expiresAt"`
	CreatedAt            time.Time `json:"createdAt"`
}

// IsExpired checks if the refresh window has closed entirely
func (s *AuthSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// NeedsRefresh reports whether the access token is expired or about to expire
func (s *AuthSession) NeedsRefresh() bool {
	return time.Now().After(s.AccessTokenExpiresAt.Add(-1 * time.Minute))
}

// PasswordResetToken represents a token for password reset
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
