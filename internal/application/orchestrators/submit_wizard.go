package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parker/internal/adapters/payment"
	"parker/internal/domain/wizard"
)

// WizardStore is the session storage the wizard orchestrators need.
type WizardStore interface {
	Create(ctx context.Context, s *wizard.Session) (string, error)
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Update(ctx context.Context, id string, fn func(s *wizard.Session) error) error
	Delete(ctx context.Context, id string) error
}

// Submitter receives the aggregate payload once the payment stage validates.
type Submitter interface {
	Submit(ctx context.Context, p wizard.Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, p wizard.Payload) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, p wizard.Payload) error {
	return f(ctx, p)
}

// Messages shown when a submission fails. Internal errors are never shown verbatim.
const (
	msgSubmitFailed = "We couldn't complete your registration. Please try again."
	msgDeclined     = "Your payment was declined. Please check your card details."
)

// SubmitWizardInput carries the payment stage form.
type SubmitWizardInput struct {
	SessionID string
	Fields    wizard.Fields
}

// SubmitWizardDeps holds dependencies for SubmitWizard.
type SubmitWizardDeps struct {
	Sessions  WizardStore
	Submitter Submitter
	Now       func() time.Time
}

// SubmitWizardResult reports how a submission ended. Exactly one of FieldErrors,
// LastError or Completed describes the outcome.
type SubmitWizardResult struct {
	FieldErrors wizard.FieldErrors
	LastError   string
	Completed   bool
}

// ExecuteSubmitWizard validates the payment stage and hands the payload to the submitter.
// The in-flight flag is claimed inside Sessions.Update so a second click, even on another
// server, gets wizard.ErrSubmissionInFlight. The submitter runs outside the store lock and is
// detached from request cancellation so a dropped connection cannot leave a half-finished
// registration behind.
// PRE: SessionID names a session on the payment stage
// POST: on success the session is deleted; on submitter failure it stays on the payment
// stage with LastError set and every field intact. An attempt whose claim was retaken
// after wizard.SubmitTimeout leaves the session to the newer attempt.
func ExecuteSubmitWizard(ctx context.Context, input SubmitWizardInput, deps SubmitWizardDeps) (SubmitWizardResult, error) {
	var payload wizard.Payload
	var fe wizard.FieldErrors
	var claim time.Time
	err := deps.Sessions.Update(ctx, input.SessionID, func(s *wizard.Session) error {
		var err error
		payload, fe, err = s.BeginSubmit(input.Fields, deps.Now())
		claim = s.SubmitStart
		return err
	})
	if err != nil {
		return SubmitWizardResult{}, err
	}
	if fe != nil {
		return SubmitWizardResult{FieldErrors: fe}, nil
	}

	slog.Info("wizard_event", "event", "submit_started", "tier", payload.SelectedTier)

	subCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wizard.SubmitDeadline)
	submitErr := deps.Submitter.Submit(subCtx, payload)
	cancel()

	var shown error
	if submitErr != nil {
		slog.Error("wizard_event", "event", "submit_failed", "tier", payload.SelectedTier, "error", submitErr)
		shown = errors.New(userMessage(submitErr))
	}

	finishCtx := context.WithoutCancel(ctx)
	owned := false
	err = deps.Sessions.Update(finishCtx, input.SessionID, func(s *wizard.Session) error {
		owned = s.FinishSubmit(claim, shown)
		return nil
	})
	if err != nil {
		slog.Error("wizard_event", "event", "finish_failed", "error", err)
	} else if !owned {
		// a later attempt holds the session now; its finish decides the outcome
		slog.Warn("wizard_event", "event", "finish_superseded", "tier", payload.SelectedTier)
	}

	if shown != nil {
		return SubmitWizardResult{LastError: shown.Error()}, nil
	}
	if !owned {
		return SubmitWizardResult{Completed: true}, nil
	}

	if err := deps.Sessions.Delete(finishCtx, input.SessionID); err != nil {
		slog.Warn("wizard_event", "event", "cleanup_failed", "error", err)
	}
	slog.Info("wizard_event", "event", "submit_completed", "tier", payload.SelectedTier)
	return SubmitWizardResult{Completed: true}, nil
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		return "An account with this email already exists. Please log in instead."
	case errors.Is(err, payment.ErrDeclined):
		return msgDeclined
	default:
		return msgSubmitFailed
	}
}
