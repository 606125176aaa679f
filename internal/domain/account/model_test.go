package account_test

import (
	"testing"

	"parker/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	valid := account.NewCredentials("a1", "u1", "jo@parker.dev")

	tests := []struct {
		name    string
		mutate  func(a *account.Account)
		wantErr error
	}{
		{"valid credentials link", func(a *account.Account) {}, nil},
		{"valid oauth link", func(a *account.Account) {
			a.Type = account.TypeOAuth
			a.Provider = account.ProviderGitHub
			a.ProviderAccountID = "12345"
		}, nil},
		{"missing user", func(a *account.Account) { a.UserID = "" }, account.ErrEmptyUserID},
		{"missing provider", func(a *account.Account) { a.Provider = " " }, account.ErrEmptyProvider},
		{"missing provider account", func(a *account.Account) { a.ProviderAccountID = "" }, account.ErrEmptyProviderAccountID},
		{"bad type", func(a *account.Account) { a.Type = "email" }, account.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			if err := a.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewCredentials(t *testing.T) {
	a := account.NewCredentials("a1", "u1", "jo@parker.dev")
	if a.Provider != account.ProviderCredentials || a.Type != account.TypeCredentials {
		t.Errorf("NewCredentials() = %+v", a)
	}
	if a.ProviderAccountID != "jo@parker.dev" {
		t.Errorf("ProviderAccountID = %q", a.ProviderAccountID)
	}
}
