package membership_test

import (
	"testing"

	"parker/internal/domain/membership"
)

func TestApplication_Validate(t *testing.T) {
	tests := []struct {
		name    string
		app     membership.Application
		wantErr error
	}{
		{"valid", membership.Application{UserID: "u1", Tier: "master"}, nil},
		{"missing user", membership.Application{Tier: "master"}, membership.ErrEmptyUserID},
		{"unknown tier", membership.Application{UserID: "u1", Tier: "platinum"}, membership.ErrUnknownTier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.app.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplication_TierOption(t *testing.T) {
	app := membership.Application{UserID: "u1", Tier: "average"}
	opt, ok := app.TierOption()
	if !ok || opt.Price() != "$50" {
		t.Errorf("TierOption() = %+v, %v", opt, ok)
	}
}
