package orchestrators

import (
	"context"
	"log/slog"

	"parker/internal/domain/wizard"
)

// WizardDeps holds dependencies for the step orchestrators.
type WizardDeps struct {
	Sessions WizardStore
}

// WizardView is what the join page needs to render the active stage.
type WizardView struct {
	Stage        wizard.Stage
	SelectedTier string
	Values       wizard.Fields
	FieldErrors  wizard.FieldErrors
	Busy         bool
	LastError    string
	Completed    bool
}

func viewOf(s *wizard.Session, fe wizard.FieldErrors, submitted wizard.Fields) WizardView {
	values := s.Values(s.Stage)
	// on failure the form shows what was typed, not what was last accepted
	for _, name := range wizard.StageFields(s.Stage) {
		if v, ok := submitted[name]; ok && name != wizard.FieldPassword && name != wizard.FieldConfirmPassword {
			values[name] = v
		}
	}
	return WizardView{
		Stage:        s.Stage,
		SelectedTier: s.SelectedTier,
		Values:       values,
		FieldErrors:  fe,
		Busy:         s.Busy(),
		LastError:    s.LastError,
		Completed:    s.Done,
	}
}

// ExecuteStartWizard creates a session, pre-selecting referralTier when it is a catalog tier.
// POST: returns the new session id and the stage one view
func ExecuteStartWizard(ctx context.Context, referralTier string, deps WizardDeps) (string, WizardView, error) {
	s := wizard.NewSession(referralTier)
	id, err := deps.Sessions.Create(ctx, s)
	if err != nil {
		return "", WizardView{}, err
	}
	slog.Info("wizard_event", "event", "started", "referral_tier", s.SelectedTier)
	return id, viewOf(s, nil, nil), nil
}

// GetWizardView loads the current view of a session.
func GetWizardView(ctx context.Context, id string, deps WizardDeps) (WizardView, error) {
	s, err := deps.Sessions.Get(ctx, id)
	if err != nil {
		return WizardView{}, err
	}
	return viewOf(s, nil, nil), nil
}

// ExecuteSelectTier changes the tier choice on stage one.
func ExecuteSelectTier(ctx context.Context, id, tierID string, deps WizardDeps) (WizardView, error) {
	var view WizardView
	err := deps.Sessions.Update(ctx, id, func(s *wizard.Session) error {
		if err := s.SelectTier(tierID); err != nil {
			return err
		}
		view = viewOf(s, nil, nil)
		return nil
	})
	return view, err
}

// ExecuteAdvanceWizard validates the active stage and moves forward.
// POST: on field errors the stored session is unchanged and the view carries the errors
func ExecuteAdvanceWizard(ctx context.Context, id string, input wizard.Fields, deps WizardDeps) (WizardView, error) {
	var view WizardView
	err := deps.Sessions.Update(ctx, id, func(s *wizard.Session) error {
		from := s.Stage
		fe, err := s.Advance(input)
		if err != nil {
			return err
		}
		if fe != nil {
			view = viewOf(s, fe, input)
			slog.Info("wizard_event", "event", "stage_rejected", "stage", from.String(), "fields", len(fe))
			return nil
		}
		view = viewOf(s, nil, nil)
		slog.Info("wizard_event", "event", "stage_completed", "stage", from.String())
		return nil
	})
	return view, err
}

// ExecuteWizardBack returns to the previous stage without validation.
func ExecuteWizardBack(ctx context.Context, id string, deps WizardDeps) (WizardView, error) {
	var view WizardView
	err := deps.Sessions.Update(ctx, id, func(s *wizard.Session) error {
		if err := s.Back(); err != nil {
			return err
		}
		view = viewOf(s, nil, nil)
		return nil
	})
	return view, err
}
