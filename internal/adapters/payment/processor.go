// Package payment authorises registration fees. Only a stub exists; card data passes
// through it and is never stored.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Status constants returned by processors.
const (
	StatusStubbed  = "stubbed"
	StatusApproved = "approved"
)

// ErrDeclined is returned when a processor refuses the charge.
var ErrDeclined = errors.New("payment was declined")

// Card is what the payment stage collects.
type Card struct {
	Number         string
	Expiry         string
	CVV            string
	CardholderName string
}

// Last4 returns the final four digits for logging.
func (c Card) Last4() string {
	digits := strings.ReplaceAll(c.Number, " ", "")
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// Charge is one authorisation request.
type Charge struct {
	AmountCents int64
	Currency    string
	Description string
	Email       string
	Card        Card
}

// Result identifies an authorised charge.
type Result struct {
	Reference string
	Status    string
}

// Processor authorises charges.
type Processor interface {
	Authorize(ctx context.Context, c Charge) (Result, error)
}

// StubProcessor approves every charge without contacting anyone.
type StubProcessor struct{}

// NewStubProcessor creates a StubProcessor.
func NewStubProcessor() *StubProcessor {
	return &StubProcessor{}
}

// Authorize returns a fresh "stub-" reference.
// POST: Status is StatusStubbed; no card data is retained
func (p *StubProcessor) Authorize(ctx context.Context, c Charge) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ref := "stub-" + uuid.NewString()
	slog.Info("payment_event", "event", "authorized", "processor", "stub",
		"reference", ref, "amount_cents", c.AmountCents, "currency", c.Currency, "card_last4", c.Card.Last4())
	return Result{Reference: ref, Status: StatusStubbed}, nil
}
