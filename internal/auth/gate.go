package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"courtcue/internal/models"
	"courtcue/internal/validation"
)

// State is the gate's position in its lifecycle
type State int

const (
	// StateUninitialized means Initialize has not run yet
	StateUninitialized State = iota
	// StateInitializing means the persisted session is being restored
	StateInitializing
	// StateUnauthenticated means no valid session exists
	StateUnauthenticated
	// StateAuthenticated means a valid session exists
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// SessionRepository persists the auth session blob across restarts
type SessionRepository interface {
	Load() ([]byte, bool, error)
	Save(snapshot []byte) error
	Clear() error
}

// Watcher is notified after every state transition
type Watcher func(State)

// Gate tracks whether the app holds a signed-in session. All cloud access
// flows through it: callers ask the gate for the current user and it
// answers from the restored, refreshed session.
type Gate struct {
	mu       sync.Mutex
	state    State
	session  *models.AuthSession
	lastErr  string
	provider Provider
	repo     SessionRepository
	watchers []Watcher
}

// NewGate creates a gate in the uninitialized state
func NewGate(provider Provider, repo SessionRepository) *Gate {
	return &Gate{
		state:    StateUninitialized,
		provider: provider,
		repo:     repo,
	}
}

// Initialize restores the persisted session, refreshing it if the access
// token is stale. A missing, expired or unrefreshable session lands the
// gate in the unauthenticated state; that is not an error.
func (g *Gate) Initialize(ctx context.Context) error {
	g.setState(StateInitializing)

	snapshot, ok, err := g.repo.Load()
	if err != nil {
		g.setState(StateUnauthenticated)
		return fmt.Errorf("failed to load auth session: %w", err)
	}
	if !ok {
		g.setState(StateUnauthenticated)
		return nil
	}

	var session models.AuthSession
	if err := json.Unmarshal(snapshot, &session); err != nil {
		// A corrupt blob is discarded rather than wedging startup
		log.Printf("Discarding unreadable auth session: %v", err)
		_ = g.repo.Clear()
		g.setState(StateUnauthenticated)
		return nil
	}

	if session.IsExpired() {
		_ = g.repo.Clear()
		g.setState(StateUnauthenticated)
		return nil
	}

	if session.NeedsRefresh() {
		refreshed, err := g.provider.Refresh(ctx, &session)
		if err != nil {
			log.Printf("Session refresh failed, signing out: %v", err)
			_ = g.repo.Clear()
			g.setState(StateUnauthenticated)
			return nil
		}
		session = *refreshed
		if err := g.persist(&session); err != nil {
			log.Printf("Failed to persist refreshed session: %v", err)
		}
	}

	g.mu.Lock()
	g.session = &session
	g.mu.Unlock()
	g.setState(StateAuthenticated)
	return nil
}

// SignUp creates an account and signs in. Validation and credential
// failures surface as the gate's transient error message; anything else is
// reported generically.
func (g *Gate) SignUp(ctx context.Context, email, password string) error {
	session, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		g.recordFailure(err)
		return err
	}
	return g.adoptSession(session)
}

// SignIn authenticates credentials and signs in
func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	session, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		g.recordFailure(err)
		return err
	}
	return g.adoptSession(session)
}

// SignOut revokes the session remotely (best effort) and always clears
// local credentials
func (g *Gate) SignOut(ctx context.Context) error {
	g.mu.Lock()
	session := g.session
	g.session = nil
	g.lastErr = ""
	g.mu.Unlock()

	if session != nil {
		if err := g.provider.SignOut(ctx, session); err != nil {
			log.Printf("Remote sign-out failed: %v", err)
		}
	}

	if err := g.repo.Clear(); err != nil {
		return fmt.Errorf("failed to clear auth session: %w", err)
	}
	g.setState(StateUnauthenticated)
	return nil
}

// RequestPasswordReset starts the password reset flow for an email address
func (g *Gate) RequestPasswordReset(ctx context.Context, email string) error {
	if err := g.provider.RequestPasswordReset(ctx, email); err != nil {
		g.recordFailure(err)
		return err
	}
	return nil
}

// ResetPassword completes the reset flow with an emailed token
func (g *Gate) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := g.provider.ResetPassword(ctx, token, newPassword); err != nil {
		g.recordFailure(err)
		return err
	}
	return nil
}

// AccessToken returns a currently valid access token, refreshing lazily
// when the held one is within a minute of expiry
func (g *Gate) AccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()

	if session == nil {
		return "", errors.New("not authenticated")
	}
	if !session.NeedsRefresh() {
		return session.AccessToken, nil
	}

	refreshed, err := g.provider.Refresh(ctx, session)
	if err != nil {
		// The refresh token is gone; drop to unauthenticated
		g.mu.Lock()
		g.session = nil
		g.mu.Unlock()
		_ = g.repo.Clear()
		g.setState(StateUnauthenticated)
		return "", fmt.Errorf("failed to refresh session: %w", err)
	}

	g.mu.Lock()
	g.session = refreshed
	g.mu.Unlock()
	if err := g.persist(refreshed); err != nil {
		log.Printf("Failed to persist refreshed session: %v", err)
	}
	return refreshed.AccessToken, nil
}

// State returns the gate's current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns a copy of the current session, or nil when signed out
func (g *Gate) Session() *models.AuthSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil
	}
	c := *g.session
	return &c
}

// Err returns the transient user-facing error from the last failed
// operation, empty when none
func (g *Gate) Err() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// ClearError resets the transient error
func (g *Gate) ClearError() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastErr = ""
}

// Watch registers a watcher called after every state transition. Watchers
// must not call back into the gate.
func (g *Gate) Watch(w Watcher) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watchers = append(g.watchers, w)
}

func (g *Gate) adoptSession(session *models.AuthSession) error {
	g.mu.Lock()
	g.session = session
	g.lastErr = ""
	g.mu.Unlock()

	if err := g.persist(session); err != nil {
		return err
	}
	g.setState(StateAuthenticated)
	return nil
}

func (g *Gate) persist(session *models.AuthSession) error {
	snapshot, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode auth session: %w", err)
	}
	if err := g.repo.Save(snapshot); err != nil {
		return fmt.Errorf("failed to persist auth session: %w", err)
	}
	return nil
}

// recordFailure stores a user-facing message for known failures and a
// generic one otherwise
func (g *Gate) recordFailure(err error) {
	message := "Something went wrong. Please try again."
	var validationErr validation.ValidationError
	switch {
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrSessionExpired):
		message = err.Error()
	case errors.As(err, &validationErr):
		message = err.Error()
	}

	g.mu.Lock()
	g.lastErr = message
	g.mu.Unlock()
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	watchers := append([]Watcher(nil), g.watchers...)
	g.mu.Unlock()

	for _, w := range watchers {
		w(s)
	}
}
