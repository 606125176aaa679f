package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"parker/internal/domain/session"
	"parker/internal/domain/user"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the signed-in user attached to a request.
type Identity struct {
	UserID   string
	Email    string
	Name     string
	Role     string
	Verified bool
}

// IsAdmin reports whether the identity has the admin role.
// INVARIANT: Identity fields are not mutated
func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

// Resolver maps a session token to the signed-in identity.
type Resolver func(ctx context.Context, token string) (Identity, error)

// Auth returns middleware that resolves the session cookie and sets the identity in context.
// It does NOT block unauthenticated requests; use RequireAuth or RequireRole for that.
// Cookies naming a missing or expired session are cleared.
func Auth(resolve Resolver, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err == nil && cookie.Value != "" {
				id, err := resolve(r.Context(), cookie.Value)
				switch {
				case err == nil:
					r = r.WithContext(ContextWithIdentity(r.Context(), id))
				case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired), errors.Is(err, user.ErrNotFound):
					ClearSessionCookie(w, secure)
				default:
					slog.Error("auth_event", "event", "resolve_failed", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that blocks requests from users without one of the specified roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
				return
			}
			if !roleSet[id.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity extracts the identity from the request context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// ContextWithIdentity returns a context carrying id.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  expires,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
