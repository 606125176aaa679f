package membership

import (
	"errors"
	"time"

	"parker/internal/domain/tier"
)

// Payment status constants
const (
	PaymentStubbed  = "stubbed"
	PaymentApproved = "approved"
)

// Domain errors
var (
	ErrEmptyUserID = errors.New("user id is required")
	ErrUnknownTier = errors.New("unknown team tier")
	ErrNotFound    = errors.New("application not found")
)

// Application is a submitted registration: the chosen tier and the background answers.
// Card details are never part of it; only the processor's reference is kept.
type Application struct {
	ID               string
	UserID           string
	Tier             string
	Education        string
	Experience       string
	Skills           string
	Motivation       string
	PaymentReference string
	PaymentStatus    string
	CreatedAt        time.Time
}

// Validate checks if the Application has valid data.
// PRE: Application struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Application) Validate() error {
	if a.UserID == "" {
		return ErrEmptyUserID
	}
	if !tier.IsValid(a.Tier) {
		return ErrUnknownTier
	}
	return nil
}

// TierOption returns the catalog entry the application was made for.
func (a *Application) TierOption() (tier.Option, bool) {
	return tier.Get(a.Tier)
}
