package payment

import (
	"context"
	"strings"
	"testing"
)

func TestStubProcessor_Authorize(t *testing.T) {
	p := NewStubProcessor()
	res, err := p.Authorize(context.Background(), Charge{AmountCents: 2000, Currency: "usd", Card: Card{Number: "4242 4242 4242 4242"}})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !strings.HasPrefix(res.Reference, "stub-") {
		t.Errorf("Reference = %q, want stub- prefix", res.Reference)
	}
	if res.Status != StatusStubbed {
		t.Errorf("Status = %q", res.Status)
	}

	again, _ := p.Authorize(context.Background(), Charge{})
	if again.Reference == res.Reference {
		t.Error("references must be unique")
	}
}

func TestStubProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStubProcessor().Authorize(ctx, Charge{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestCard_Last4(t *testing.T) {
	tests := map[string]string{
		"4242 4242 4242 4242": "4242",
		"123":                 "123",
		"":                    "",
	}
	for in, want := range tests {
		if got := (Card{Number: in}).Last4(); got != want {
			t.Errorf("Last4(%q) = %q, want %q", in, got, want)
		}
	}
}
