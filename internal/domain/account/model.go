package account

import (
	"errors"
	"strings"
)

// Provider constants. Only the credentials provider is wired; OAuth providers are
// recognised so rows created elsewhere stay readable.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
	ProviderGitHub      = "github"
)

// Account type constants
const (
	TypeCredentials = "credentials"
	TypeOAuth       = "oauth"
)

// Domain errors
var (
	ErrEmptyUserID            = errors.New("user id is required")
	ErrEmptyProvider          = errors.New("provider is required")
	ErrEmptyProviderAccountID = errors.New("provider account id is required")
	ErrInvalidType            = errors.New("type must be one of: credentials, oauth")
	ErrNotFound               = errors.New("account not found")
	ErrAlreadyLinked          = errors.New("provider account is already linked")
)

// Account links a user to an identity provider.
type Account struct {
	ID                    string
	UserID                string
	Type                  string
	Provider              string
	ProviderAccountID     string
	RefreshToken          string
	AccessToken           string
	ExpiresAt             int64
	TokenType             string
	Scope                 string
	IDToken               string
	SessionState          string
	RefreshTokenExpiresIn int64
}

// NewCredentials builds the link created when a user registers with a password.
// The user's email is the provider account id.
func NewCredentials(id, userID, email string) Account {
	return Account{
		ID:                id,
		UserID:            userID,
		Type:              TypeCredentials,
		Provider:          ProviderCredentials,
		ProviderAccountID: email,
	}
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(a.Provider) == "" {
		return ErrEmptyProvider
	}
	if strings.TrimSpace(a.ProviderAccountID) == "" {
		return ErrEmptyProviderAccountID
	}
	if a.Type != TypeCredentials && a.Type != TypeOAuth {
		return ErrInvalidType
	}
	return nil
}
