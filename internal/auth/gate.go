package auth

import (
	"context"
	"strings"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
)

type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID int64) (Session, error)
	Resolve(ctx context.Context, id string) (*Session, error)
	Destroy(ctx context.Context, id string) error
}

// Gate is the single entry point for "who is calling" questions.
type Gate struct {
	verifier CredentialVerifier
	sessions SessionManager
	users    UserFinder
}

func NewGate(verifier CredentialVerifier, sessions SessionManager, users UserFinder) *Gate {
	return &Gate{verifier: verifier, sessions: sessions, users: users}
}

// Login is the outcome of a successful login.
type Login struct {
	SessionID string
	ExpiresAt time.Time
	User      *User
}

// CurrentUser returns nil, nil when the session is missing, expired or
// belongs to a user that no longer exists. Storage failures are returned.
func (g *Gate) CurrentUser(ctx context.Context, sessionID string) (*User, error) {
	session, err := g.sessions.Resolve(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}

	user, err := g.users.FindByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, err
	}
	return user.withoutHash(), nil
}

// RequireUser is CurrentUser with the nil case turned into Unauthenticated.
func (g *Gate) RequireUser(ctx context.Context, sessionID string) (*User, error) {
	user, err := g.CurrentUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.E(apperr.Unauthenticated, "auth.RequireUser", "login required", nil)
	}
	return user, nil
}

// Login verifies credentials and always opens a new session.
func (g *Gate) Login(ctx context.Context, email, password string) (*Login, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.E(apperr.Invalid, "auth.Login", "email and password are required", nil)
	}

	user, err := g.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := g.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Login{SessionID: session.ID, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Logout is safe to call with an empty or unknown session id.
func (g *Gate) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return g.sessions.Destroy(ctx, sessionID)
}
