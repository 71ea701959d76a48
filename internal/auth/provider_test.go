package auth

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"courtcue/internal/database"
	"courtcue/internal/repository"
)

// fakeMailer captures reset tokens instead of sending email
type fakeMailer struct {
	enabled bool
	sentTo  string
	token   string
}

func (m *fakeMailer) IsEnabled() bool { return m.enabled }

func (m *fakeMailer) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	m.sentTo = toEmail
	m.token = token
	return nil
}

func newTestProvider(t *testing.T, name string, mailer ResetMailer) *SQLProvider {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Cleanup(func() { os.Remove(name) })

	db, err := database.Initialize(name)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	return NewSQLProvider(repository.NewUserRepository(db), issuer, mailer, 30*24*time.Hour)
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t, "test_auth_signup.db", nil)

	session, err := provider.SignUp(ctx, "player@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Errorf("session missing tokens: %+v", session)
	}
	if session.Email != "player@example.com" {
		t.Errorf("session email = %q", session.Email)
	}

	// Duplicate registration is rejected
	if _, err := provider.SignUp(ctx, "player@example.com", "password456"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate signup error = %v, want ErrEmailTaken", err)
	}

	// Weak password is rejected before any remote work
	if _, err := provider.SignUp(ctx, "other@example.com", "short"); err == nil {
		t.Error("expected weak password to be rejected")
	}

	signIn, err := provider.SignIn(ctx, "player@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signIn.UserID != session.UserID {
		t.Errorf("sign-in user = %q, want %q", signIn.UserID, session.UserID)
	}

	// Wrong password and unknown email fail identically
	if _, err := provider.SignIn(ctx, "player@example.com", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := provider.SignIn(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}
}

func TestAccessTokenVerifies(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t, "test_auth_token.db", nil)

	session, err := provider.SignUp(ctx, "player@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	userID, email, err := issuer.Verify(session.AccessToken)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != session.UserID || email != "player@example.com" {
		t.Errorf("claims = %q %q", userID, email)
	}

	// A different signing key rejects the token
	other := NewTokenIssuer("other-key", time.Hour)
	if _, _, err := other.Verify(session.AccessToken); err == nil {
		t.Error("expected verification to fail under a different key")
	}
}

func TestRefreshAndSignOut(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t, "test_auth_refresh.db", nil)

	session, err := provider.SignUp(ctx, "player@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	refreshed, err := provider.Refresh(ctx, session)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("expected a fresh access token")
	}
	if refreshed.RefreshToken != session.RefreshToken {
		t.Error("refresh token should be unchanged by a refresh")
	}

	if err := provider.SignOut(ctx, session); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	// The revoked refresh token no longer works
	if _, err := provider.Refresh(ctx, session); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("refresh after sign-out error = %v, want ErrSessionExpired", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{enabled: true}
	provider := newTestProvider(t, "test_auth_reset.db", mailer)

	if _, err := provider.SignUp(ctx, "player@example.com", "password123"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	// Unknown email succeeds without sending anything
	if err := provider.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset for unknown email failed: %v", err)
	}
	if mailer.token != "" {
		t.Error("no email should be sent for an unknown address")
	}

	if err := provider.RequestPasswordReset(ctx, "player@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if mailer.sentTo != "player@example.com" || mailer.token == "" {
		t.Fatalf("mailer = %+v", mailer)
	}

	if err := provider.ResetPassword(ctx, mailer.token, "newpassword456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// New password works, old one does not
	if _, err := provider.SignIn(ctx, "player@example.com", "newpassword456"); err != nil {
		t.Errorf("SignIn with new password failed: %v", err)
	}
	if _, err := provider.SignIn(ctx, "player@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn with old password error = %v", err)
	}

	// The token is single-use
	if err := provider.ResetPassword(ctx, mailer.token, "anotherpass789"); err == nil {
		t.Error("expected reused token to be rejected")
	}

	// Garbage tokens are rejected
	if err := provider.ResetPassword(ctx, "not-a-token", "anotherpass789"); err == nil {
		t.Error("expected unknown token to be rejected")
	}
}

func TestSignInSweepsExpiredAuthSessions(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t, "test_auth_sweep.db", nil)

	session, err := provider.SignUp(ctx, "player@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	// A long-abandoned session row from an earlier install
	err = provider.userRepo.CreateAuthSession("stale-id", session.UserID, "stale-token", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CreateAuthSession failed: %v", err)
	}

	fresh, err := provider.SignIn(ctx, "player@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	stale, err := provider.userRepo.GetAuthSessionByRefreshToken("stale-token")
	if err != nil {
		t.Fatalf("GetAuthSessionByRefreshToken failed: %v", err)
	}
	if stale != nil {
		t.Error("expected expired auth session to be swept on sign-in")
	}

	// The live session survives the sweep
	kept, err := provider.userRepo.GetAuthSessionByRefreshToken(fresh.RefreshToken)
	if err != nil {
		t.Fatalf("GetAuthSessionByRefreshToken failed: %v", err)
	}
	if kept == nil {
		t.Error("expected the fresh auth session to survive the sweep")
	}
}

func TestResetRequestSweepsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{enabled: true}
	provider := newTestProvider(t, "test_auth_token_sweep.db", mailer)

	alice, err := provider.SignUp(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	bob, err := provider.SignUp(ctx, "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	// Bob requested a reset long ago and never used it
	err = provider.userRepo.CreatePasswordResetToken("expired-reset", bob.UserID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CreatePasswordResetToken failed: %v", err)
	}

	if err := provider.RequestPasswordReset(ctx, alice.Email); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	swept, err := provider.userRepo.GetPasswordResetToken("expired-reset")
	if err != nil {
		t.Fatalf("GetPasswordResetToken failed: %v", err)
	}
	if swept != nil {
		t.Error("expected expired reset token to be swept")
	}

	// Alice's fresh token is untouched
	current, err := provider.userRepo.GetPasswordResetToken(mailer.token)
	if err != nil {
		t.Fatalf("GetPasswordResetToken failed: %v", err)
	}
	if current == nil {
		t.Error("expected the fresh reset token to survive the sweep")
	}
}
