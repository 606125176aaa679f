package verification

import (
	"errors"
	"time"
)

// TTL is how long an emailed code stays valid.
const TTL = 24 * time.Hour

// Domain errors
var (
	ErrNotFound = errors.New("verification code is invalid")
	ErrExpired  = errors.New("verification code has expired")
)

// Token is a one-time code bound to an identifier, normally an email address.
type Token struct {
	Identifier string
	Token      string
	Expires    time.Time
}

// New issues a token valid for TTL from now.
func New(identifier, code string, now time.Time) Token {
	return Token{Identifier: identifier, Token: code, Expires: now.Add(TTL)}
}

// IsExpired reports whether the token can no longer be redeemed.
// INVARIANT: Token fields are not mutated
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.Expires)
}
