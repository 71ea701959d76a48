// Package auth implements the authentication gate that stands between the
// app and its cloud data: an identity provider backed by the relational
// store, and a state machine tracking whether a signed-in session exists.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtcue/internal/models"
	"courtcue/internal/repository"
	"courtcue/internal/security"
	"courtcue/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)

// ResetMailer delivers password reset emails. A disabled mailer is skipped
// silently so local setups work without an email backend.
type ResetMailer interface {
	IsEnabled() bool
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// Provider is the identity service the gate talks to. Implementations
// exchange credentials for sessions and manage the password reset flow.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	Refresh(ctx context.Context, session *models.AuthSession) (*models.AuthSession, error)
	SignOut(ctx context.Context, session *models.AuthSession) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// SQLProvider implements Provider against the users, auth_sessions and
// password_reset_tokens tables
type SQLProvider struct {
	userRepo   *repository.UserRepository
	issuer     *TokenIssuer
	mailer     ResetMailer
	refreshTTL time.Duration
}

// NewSQLProvider creates a provider over the given identity repository.
// mailer may be nil when password reset email delivery is not configured.
func NewSQLProvider(userRepo *repository.UserRepository, issuer *TokenIssuer, mailer ResetMailer, refreshTTL time.Duration) *SQLProvider {
	return &SQLProvider{
		userRepo:   userRepo,
		issuer:     issuer,
		mailer:     mailer,
		refreshTTL: refreshTTL,
	}
}

// SignUp creates a new account and signs it in
func (p *SQLProvider) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := p.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := p.userRepo.CreateUser(security.GenerateSessionID(), email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return p.createSession(user)
}

// SignIn authenticates credentials and creates a session
func (p *SQLProvider) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	user, err := p.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return p.createSession(user)
}

// Refresh exchanges the session's refresh token for a fresh access token.
// A revoked or expired refresh token fails with ErrSessionExpired.
func (p *SQLProvider) Refresh(ctx context.Context, session *models.AuthSession) (*models.AuthSession, error) {
	stored, err := p.userRepo.GetAuthSessionByRefreshToken(session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if stored == nil {
		return nil, ErrSessionExpired
	}
	if stored.IsExpired() {
		_ = p.userRepo.DeleteAuthSession(stored.ID)
		return nil, ErrSessionExpired
	}

	user, err := p.userRepo.GetUserByID(stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionExpired
	}

	accessToken, accessExpiresAt, err := p.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshed := *session
	refreshed.UserID = user.ID
	refreshed.Email = user.Email
	refreshed.AccessToken = accessToken
	refreshed.AccessTokenExpiresAt = accessExpiresAt
	refreshed.ExpiresAt = stored.ExpiresAt
	return &refreshed, nil
}

// SignOut revokes the session's refresh token
func (p *SQLProvider) SignOut(ctx context.Context, session *models.AuthSession) error {
	if err := p.userRepo.DeleteAuthSession(session.ID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// RequestPasswordReset creates a reset token and emails it. An unknown
// email succeeds without doing anything, so the call does not reveal which
// addresses hold accounts.
func (p *SQLProvider) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := p.userRepo.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := security.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	// A fresh request supersedes any outstanding token, and expired tokens
	// from other accounts get swept while we are here
	_ = p.userRepo.DeleteUserPasswordResetTokens(user.ID)
	_ = p.userRepo.DeleteExpiredPasswordResetTokens()

	expiresAt := time.Now().Add(1 * time.Hour)
	if err := p.userRepo.CreatePasswordResetToken(token, user.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if p.mailer != nil && p.mailer.IsEnabled() {
		if err := p.mailer.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}

	return nil
}

// ResetPassword sets a new password using a valid reset token and revokes
// every session the account holds
func (p *SQLProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	resetToken, err := p.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}

	if resetToken == nil {
		return errors.New("invalid or expired reset token")
	}
	if resetToken.Used {
		return errors.New("this reset link has already been used")
	}
	if resetToken.IsExpired() {
		return errors.New("this reset link has expired")
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := p.userRepo.UpdatePassword(resetToken.UserID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := p.userRepo.MarkPasswordResetTokenAsUsed(token); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}

	return nil
}

func (p *SQLProvider) createSession(user *models.User) (*models.AuthSession, error) {
	// Each sign-in sweeps sessions past their expiry so abandoned rows do
	// not accumulate
	_ = p.userRepo.DeleteExpiredAuthSessions()

	refreshToken, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	sessionID := security.GenerateSessionID()
	now := time.Now().UTC()
	expiresAt := now.Add(p.refreshTTL)

	if err := p.userRepo.CreateAuthSession(sessionID, user.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create auth session: %w", err)
	}

	accessToken, accessExpiresAt, err := p.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &models.AuthSession{
		ID:                   sessionID,
		UserID:               user.ID,
		Email:                user.Email,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: accessExpiresAt,
		RefreshToken:         refreshToken,
		ExpiresAt:            expiresAt,
		CreatedAt:            now,
	}, nil
}
