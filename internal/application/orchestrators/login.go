package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parker/internal/domain/credential"
	"parker/internal/domain/session"
	"parker/internal/domain/user"
)

// SessionStore defines the session persistence used by login, logout and the auth middleware.
type SessionStore interface {
	Get(ctx context.Context, token string) (session.Session, error)
	Create(ctx context.Context, s session.Session) error
	UpdateExpires(ctx context.Context, token string, expires time.Time) error
	Delete(ctx context.Context, token string) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the session created by a successful login.
type LoginResult struct {
	UserID  string
	Email   string
	Role    string
	Token   string
	Expires time.Time
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Users    UserLookup
	Sessions SessionStore
	Now      func() time.Time
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// ExecuteLogin checks a password and opens a session.
// PRE: none
// POST: on success a session row exists for the returned token
// INVARIANT: the same error is returned for unknown emails and wrong passwords
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := deps.Users.GetByEmail(ctx, input.Email)
	if errors.Is(err, user.ErrNotFound) {
		slog.Info("auth_event", "event", "login_failed", "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}

	if err := u.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "login_failed", "user_id", u.ID, "reason", "wrong_password")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := credential.GenerateToken(0)
	if err != nil {
		return LoginResult{}, err
	}
	sess := session.New(token, u.ID, deps.Now())
	if err := deps.Sessions.Create(ctx, sess); err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "user_id", u.ID, "role", u.Role)
	return LoginResult{UserID: u.ID, Email: u.Email, Role: u.Role, Token: token, Expires: sess.Expires}, nil
}

// ExecuteLogout deletes the session behind token.
func ExecuteLogout(ctx context.Context, token string, deps LoginDeps) error {
	if token == "" {
		return nil
	}
	if err := deps.Sessions.Delete(ctx, token); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout")
	return nil
}

// UserByID loads users for session resolution.
type UserByID interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// ResolveSessionDeps holds dependencies for ResolveSession.
type ResolveSessionDeps struct {
	Sessions SessionStore
	Users    UserByID
	Now      func() time.Time
}

// ExecuteResolveSession maps a cookie token to its user, sliding the expiry once less than
// half of the session lifetime remains.
// POST: expired sessions are deleted and reported as session.ErrExpired
func ExecuteResolveSession(ctx context.Context, token string, deps ResolveSessionDeps) (user.User, session.Session, error) {
	sess, err := deps.Sessions.Get(ctx, token)
	if err != nil {
		return user.User{}, session.Session{}, err
	}
	now := deps.Now()
	if sess.IsExpired(now) {
		_ = deps.Sessions.Delete(ctx, token)
		return user.User{}, session.Session{}, session.ErrExpired
	}
	if sess.ShouldRefresh(now) {
		sess.Extend(now)
		if err := deps.Sessions.UpdateExpires(ctx, token, sess.Expires); err != nil {
			slog.Warn("auth_event", "event", "session_refresh_failed", "error", err)
		}
	}
	u, err := deps.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		return user.User{}, session.Session{}, err
	}
	return u, sess, nil
}
