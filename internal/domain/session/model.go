package session

import (
	"errors"
	"time"
)

// MaxAge is how long a login lasts without activity.
const MaxAge = 30 * 24 * time.Hour

// CookieName is the browser cookie carrying the session token.
const CookieName = "parker_session"

// Domain errors
var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session has expired")
)

// Session is a login, identified by an opaque random token.
type Session struct {
	Token   string
	UserID  string
	Expires time.Time
}

// New starts a session that expires MaxAge after now.
// PRE: token is a freshly generated random value
func New(token, userID string, now time.Time) Session {
	return Session{Token: token, UserID: userID, Expires: now.Add(MaxAge)}
}

// IsExpired reports whether the session is no longer valid at now.
// INVARIANT: Session fields are not mutated
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.Expires)
}

// ShouldRefresh reports whether less than half of MaxAge remains.
func (s *Session) ShouldRefresh(now time.Time) bool {
	return s.Expires.Sub(now) < MaxAge/2
}

// Extend slides the expiry to MaxAge after now.
// POST: Expires is now + MaxAge
func (s *Session) Extend(now time.Time) {
	s.Expires = now.Add(MaxAge)
}
