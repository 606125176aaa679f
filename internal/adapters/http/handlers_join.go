package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	wizardStore "parker/internal/adapters/storage/wizard"
	"parker/internal/application/orchestrators"
	"parker/internal/domain/tier"
	"parker/internal/domain/wizard"
)

// joinCookie carries the opaque wizard session id.
const joinCookie = "parker_join"

// Placeholder card values shown while payment processing is disabled.
var placeholderCard = wizard.Fields{
	wizard.FieldCardNumber: "4242 4242 4242 4242",
	wizard.FieldExpiryDate: "12/34",
	wizard.FieldCVV:        "123",
}

// formFieldNames lists every field the wizard forms can post.
var formFieldNames = []string{
	wizard.FieldSelectedTier, wizard.FieldName, wizard.FieldEmail, wizard.FieldPassword,
	wizard.FieldConfirmPassword, wizard.FieldEducation, wizard.FieldExperience, wizard.FieldSkills,
	wizard.FieldMotivation, wizard.FieldCardNumber, wizard.FieldExpiryDate, wizard.FieldCVV,
	wizard.FieldCardholderName,
}

func (s *server) setJoinCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     joinCookie,
		Value:    id,
		Path:     "/join",
		HttpOnly: true,
		Secure:   s.deps.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearJoinCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     joinCookie,
		Value:    "",
		Path:     "/join",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.deps.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func joinID(r *http.Request) string {
	c, err := r.Cookie(joinCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// formFields collects the posted wizard fields. Absent fields stay absent.
func formFields(r *http.Request) wizard.Fields {
	out := wizard.Fields{}
	for _, name := range formFieldNames {
		if vs, ok := r.PostForm[name]; ok && len(vs) > 0 {
			out[name] = vs[0]
		}
	}
	return out
}

// joinPage is the template data for join.html.
type joinPage struct {
	Title            string
	View             orchestrators.WizardView
	Stage            int
	StageName        string
	Stages           []string
	Tiers            []tier.Option
	Tier             tier.Option
	HasTier          bool
	CardPlaceholders bool
}

func (s *server) renderJoin(w http.ResponseWriter, r *http.Request, status int, view orchestrators.WizardView) {
	// card security codes are never sent back to the browser
	if view.Values != nil {
		view.Values = view.Values.Clone()
		delete(view.Values, wizard.FieldCVV)
	}
	if view.Stage == wizard.StagePayment && s.deps.CardPlaceholders {
		if view.Values == nil {
			view.Values = wizard.Fields{}
		}
		for k, v := range placeholderCard {
			view.Values[k] = v
		}
	}
	selected, ok := tier.Get(view.SelectedTier)
	s.pages.render(w, r, status, "join.html", joinPage{
		Title:     "Join Our Team",
		View:      view,
		Stage:     int(view.Stage),
		StageName: view.Stage.String(),
		Stages: []string{
			wizard.StageTierAndIdentity.String(),
			wizard.StageBackground.String(),
			wizard.StagePayment.String(),
		},
		Tiers:            tier.All(),
		Tier:             selected,
		HasTier:          ok,
		CardPlaceholders: s.deps.CardPlaceholders,
	})
}

// wizardError maps orchestrator errors onto a response. It returns false when err is nil.
func (s *server) wizardError(w http.ResponseWriter, r *http.Request, id string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, wizardStore.ErrNotFound), errors.Is(err, wizard.ErrSessionClosed):
		s.clearJoinCookie(w)
		http.Redirect(w, r, "/join", http.StatusSeeOther)
	case errors.Is(err, wizard.ErrSubmissionInFlight), errors.Is(err, wizardStore.ErrConflict):
		view, verr := orchestrators.GetWizardView(r.Context(), id, s.deps.Wizard)
		if verr != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return true
		}
		s.renderJoin(w, r, http.StatusConflict, view)
	case errors.Is(err, wizard.ErrWrongStage), errors.Is(err, wizard.ErrStagesIncomplete):
		http.Redirect(w, r, "/join", http.StatusSeeOther)
	default:
		internalError(w, err)
	}
	return true
}

// handleJoin shows the active stage, starting a session when the browser has none.
// A ?tier= referral pre-selects the tier on a fresh session or on stage one.
func (s *server) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	referral := r.URL.Query().Get("tier")

	if id := joinID(r); id != "" {
		view, err := orchestrators.GetWizardView(ctx, id, s.deps.Wizard)
		if err == nil {
			if referral != "" && view.Stage == wizard.StageTierAndIdentity && tier.IsValid(referral) {
				if v, err := orchestrators.ExecuteSelectTier(ctx, id, referral, s.deps.Wizard); err == nil {
					view = v
				}
			}
			s.renderJoin(w, r, http.StatusOK, view)
			return
		}
		if !errors.Is(err, wizardStore.ErrNotFound) {
			internalError(w, err)
			return
		}
	}

	id, view, err := orchestrators.ExecuteStartWizard(ctx, referral, s.deps.Wizard)
	if err != nil {
		internalError(w, err)
		return
	}
	s.setJoinCookie(w, id)
	s.renderJoin(w, r, http.StatusOK, view)
}

func (s *server) handleJoinTier(w http.ResponseWriter, r *http.Request) {
	id := joinID(r)
	if id == "" {
		http.Redirect(w, r, "/join", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	_, err := orchestrators.ExecuteSelectTier(r.Context(), id, r.PostForm.Get(wizard.FieldSelectedTier), s.deps.Wizard)
	if errors.Is(err, wizard.ErrUnknownTier) {
		view, verr := orchestrators.GetWizardView(r.Context(), id, s.deps.Wizard)
		if s.wizardError(w, r, id, verr) {
			return
		}
		view.FieldErrors = wizard.FieldErrors{wizard.FieldSelectedTier: "Please select a team tier"}
		s.renderJoin(w, r, http.StatusUnprocessableEntity, view)
		return
	}
	if s.wizardError(w, r, id, err) {
		return
	}
	http.Redirect(w, r, "/join", http.StatusSeeOther)
}

func (s *server) handleJoinNext(w http.ResponseWriter, r *http.Request) {
	id := joinID(r)
	if id == "" {
		http.Redirect(w, r, "/join", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	view, err := orchestrators.ExecuteAdvanceWizard(r.Context(), id, formFields(r), s.deps.Wizard)
	if s.wizardError(w, r, id, err) {
		return
	}
	if len(view.FieldErrors) > 0 {
		s.renderJoin(w, r, http.StatusUnprocessableEntity, view)
		return
	}
	http.Redirect(w, r, "/join", http.StatusSeeOther)
}

func (s *server) handleJoinBack(w http.ResponseWriter, r *http.Request) {
	id := joinID(r)
	if id == "" {
		http.Redirect(w, r, "/join", http.StatusSeeOther)
		return
	}
	_, err := orchestrators.ExecuteWizardBack(r.Context(), id, s.deps.Wizard)
	if s.wizardError(w, r, id, err) {
		return
	}
	http.Redirect(w, r, "/join", http.StatusSeeOther)
}

// handleJoinSubmit runs the payment stage. Field errors and submission failures re-render the
// payment stage; success clears the wizard cookie and redirects to the welcome page.
func (s *server) handleJoinSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := joinID(r)
	if id == "" {
		http.Redirect(w, r, "/join", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	fields := formFields(r)
	res, err := orchestrators.ExecuteSubmitWizard(ctx, orchestrators.SubmitWizardInput{
		SessionID: id,
		Fields:    fields,
	}, s.deps.Submit)
	if s.wizardError(w, r, id, err) {
		return
	}

	if res.Completed {
		s.clearJoinCookie(w)
		http.Redirect(w, r, "/join/success", http.StatusSeeOther)
		return
	}

	view, err := orchestrators.GetWizardView(ctx, id, s.deps.Wizard)
	if s.wizardError(w, r, id, err) {
		return
	}
	if res.FieldErrors != nil {
		view.FieldErrors = res.FieldErrors
		for _, name := range wizard.StageFields(wizard.StagePayment) {
			if v, ok := fields[name]; ok {
				view.Values[name] = v
			}
		}
	}
	slog.Info("wizard_event", "event", "submit_rerendered", "field_errors", len(res.FieldErrors), "failed", res.LastError != "")
	s.renderJoin(w, r, http.StatusUnprocessableEntity, view)
}

// wizardState is the JSON shape of GET /join/state. Field errors are never stored in the
// session, so only the last submission error is reported.
type wizardState struct {
	Stage        int    `json:"stage"`
	StageName    string `json:"stageName"`
	SelectedTier string `json:"selectedTier"`
	Busy         bool   `json:"busy"`
	LastError    string `json:"lastError,omitempty"`
}

func (s *server) handleJoinState(w http.ResponseWriter, r *http.Request) {
	id := joinID(r)
	if id == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no registration in progress"})
		return
	}
	view, err := orchestrators.GetWizardView(r.Context(), id, s.deps.Wizard)
	if errors.Is(err, wizardStore.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no registration in progress"})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wizardState{
		Stage:        int(view.Stage),
		StageName:    view.Stage.String(),
		SelectedTier: view.SelectedTier,
		Busy:         view.Busy,
		LastError:    view.LastError,
	})
}

func (s *server) handleJoinSuccess(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, r, http.StatusOK, "join_success.html", map[string]any{
		"Title": "Welcome to PARKER IS!",
	})
}
