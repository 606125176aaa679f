package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"parker/internal/domain/credential"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength    = 254
	MaxNameLength     = 200
	MinPasswordLength = 8
)

// Role constants
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleUser, RoleAdmin}

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrNameTooLong      = errors.New("name cannot exceed 200 characters")
	ErrInvalidRole      = errors.New("role must be one of: USER, ADMIN")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect email or password")
	ErrNotFound         = errors.New("user not found")
)

// User is a registered person. Accounts and Sessions are filled only by the
// relation-loading store lookups.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Image         string
	Role          string
	EmailVerified time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Accounts []Account
	Sessions []Session
}

// Account is the provider link as seen from the user side.
type Account struct {
	ID                string
	Provider          string
	ProviderAccountID string
	Type              string
}

// Session is an auth session as seen from the user side.
type Session struct {
	Token   string
	Expires time.Time
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if len(u.Email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(u.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !isValidRole(u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// SetPassword hashes and stores a password with scrypt.
// PRE: plaintext is at least MinPasswordLength characters
// POST: PasswordHash is set to "<salt>.<hash>"
func (u *User) SetPassword(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := credential.HashPassword(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" || !credential.VerifyPassword(u.PasswordHash, plaintext) {
		return ErrWrongPassword
	}
	return nil
}

// IsVerified reports whether the email address has been confirmed.
func (u *User) IsVerified() bool {
	return !u.EmailVerified.IsZero()
}

// MarkVerified records the confirmation time. A second call keeps the first time.
// POST: EmailVerified is non-zero
func (u *User) MarkVerified(now time.Time) {
	if u.IsVerified() {
		return
	}
	u.EmailVerified = now
	u.UpdatedAt = now
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
