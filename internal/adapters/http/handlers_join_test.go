package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parker/internal/application/orchestrators"
	"parker/internal/domain/wizard"
)

// walkToPayment drives a fresh wizard through the first two stages.
func (s *site) walkToPayment() {
	s.t.Helper()
	require.Equal(s.t, http.StatusOK, s.get("/join").status)
	p := s.post("/join", "/join/next", stageOneForm())
	require.Equal(s.t, http.StatusSeeOther, p.status, p.body)
	p = s.post("/join", "/join/next", stageTwoForm())
	require.Equal(s.t, http.StatusSeeOther, p.status, p.body)
}

func TestJoin_FullRegistration(t *testing.T) {
	s := newSite(t)

	p := s.get("/join")
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Select Your Team")
	assert.NotEmpty(t, s.cookie(joinCookie, "/join"))

	s.walkToPayment()

	p = s.get("/join")
	assert.Contains(t, p.body, "Payment Information")
	assert.Contains(t, p.body, "Average Team: <strong>$50/month</strong>")
	assert.Contains(t, p.body, "readonly")

	p = s.post("/join", "/join/submit", stageThreeForm())
	require.Equal(t, http.StatusSeeOther, p.status, p.body)
	assert.Equal(t, "/join/success", p.location)
	assert.Empty(t, s.cookie(joinCookie, "/join"), "wizard cookie cleared")
	assert.Equal(t, 0, s.wizards.Len())

	assert.Equal(t, 1, s.count("users"))
	assert.Equal(t, 1, s.count("membership_application"))
	sent := s.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"jo@parker.dev"}, sent[0].To)

	p = s.get("/join/success")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Welcome to PARKER IS!")
}

func TestJoin_ReferralTier(t *testing.T) {
	s := newSite(t)

	p := s.get("/join?tier=master")
	require.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `value="master" checked`)

	// an existing session on stage one follows a new referral
	p = s.get("/join?tier=beginners")
	assert.Contains(t, p.body, `value="beginners" checked`)
	assert.NotContains(t, p.body, `value="master" checked`)

	p = s.get("/join?tier=platinum")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, `value="beginners" checked`, "unknown referral ignored")
}

func TestJoin_SelectTier(t *testing.T) {
	s := newSite(t)
	s.get("/join")

	p := s.post("/join", "/join/tier", url.Values{"selectedTier": {"master"}})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Contains(t, s.get("/join").body, `value="master" checked`)

	p = s.post("/join", "/join/tier", url.Values{"selectedTier": {"platinum"}})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Please select a team tier")
}

func TestJoin_FieldErrorsEchoInput(t *testing.T) {
	s := newSite(t)
	s.get("/join")

	form := stageOneForm()
	form.Set("name", "J")
	form.Set("confirmPassword", "different")
	p := s.post("/join", "/join/next", form)

	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Name must be at least 2 characters")
	assert.Contains(t, p.body, "Passwords don&#39;t match")
	assert.Contains(t, p.body, `value="J"`)
	assert.Contains(t, p.body, `value="jo@parker.dev"`)
	assert.NotContains(t, p.body, "abcdefgh", "passwords are never echoed")
	assert.Contains(t, p.body, "Select Your Team", "still on stage one")
}

func TestJoin_BackKeepsValues(t *testing.T) {
	s := newSite(t)
	s.walkToPayment()

	p := s.post("/join", "/join/back", nil)
	assert.Equal(t, http.StatusSeeOther, p.status)
	p = s.post("/join", "/join/back", nil)
	assert.Equal(t, http.StatusSeeOther, p.status)

	p = s.get("/join")
	assert.Contains(t, p.body, "Select Your Team")
	assert.Contains(t, p.body, `value="Jo Lee"`)

	// back on stage one is a no-op
	p = s.post("/join", "/join/back", nil)
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Contains(t, s.get("/join").body, "Select Your Team")
}

func TestJoin_MissingSessionRestarts(t *testing.T) {
	s := newSite(t)

	// no cookie at all
	p := s.post("/contact", "/join/next", stageOneForm())
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/join", p.location)

	// a cookie naming a session the store no longer has
	u, _ := url.Parse(s.srv.URL + "/join")
	s.client.Jar.SetCookies(u, []*http.Cookie{{Name: joinCookie, Value: "gone", Path: "/join"}})
	p = s.post("/contact", "/join/next", stageOneForm())
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/join", p.location)

	p = s.get("/join")
	assert.Equal(t, http.StatusOK, p.status)
	assert.NotEqual(t, "gone", s.cookie(joinCookie, "/join"))
}

func TestJoin_PaymentFieldErrors(t *testing.T) {
	s := newSite(t)
	s.walkToPayment()

	form := stageThreeForm()
	form.Del("cardholderName")
	p := s.post("/join", "/join/submit", form)
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Cardholder name is required")
	assert.Equal(t, 0, s.count("users"))
}

func TestJoin_SubmissionFailureKeepsSession(t *testing.T) {
	var calls atomic.Int32
	s := newSite(t, func(d *Deps) {
		d.Submit.Submitter = orchestrators.SubmitterFunc(func(context.Context, wizard.Payload) error {
			if calls.Add(1) == 1 {
				return errors.New("database is locked")
			}
			return nil
		})
	})
	s.walkToPayment()

	p := s.post("/join", "/join/submit", stageThreeForm())
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "complete your registration. Please try again.")
	assert.NotContains(t, p.body, "database is locked")

	var state wizardState
	st := s.get("/join/state")
	require.Equal(t, http.StatusOK, st.status)
	require.NoError(t, json.Unmarshal([]byte(st.body), &state))
	assert.Equal(t, int(wizard.StagePayment), state.Stage)
	assert.False(t, state.Busy)
	assert.NotEmpty(t, state.LastError)
	assert.NotContains(t, st.body, `"errors"`)

	p = s.post("/join", "/join/submit", stageThreeForm())
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestJoin_DuplicateEmail(t *testing.T) {
	s := newSite(t)
	s.seedMember("jo@parker.dev")
	s.walkToPayment()

	p := s.post("/join", "/join/submit", stageThreeForm())
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "An account with this email already exists")
	assert.Equal(t, 1, s.count("users"))
}

func TestJoin_InFlightSubmissionBlocksBack(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := newSite(t, func(d *Deps) {
		d.Submit.Submitter = orchestrators.SubmitterFunc(func(context.Context, wizard.Payload) error {
			close(started)
			<-release
			return nil
		})
	})
	s.walkToPayment()

	form := stageThreeForm()
	form.Set("gorilla.csrf.Token", s.token("/join"))
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/join/submit", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	done := make(chan int, 1)
	go func() {
		resp, err := s.client.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	<-started

	p := s.post("/join", "/join/back", nil)
	assert.Equal(t, http.StatusConflict, p.status)
	assert.Contains(t, p.body, "Your registration is being processed")

	p = s.post("/join", "/join/submit", stageThreeForm())
	assert.Equal(t, http.StatusConflict, p.status)

	close(release)
	assert.Equal(t, http.StatusSeeOther, <-done)
}

func TestJoin_StateWithoutSession(t *testing.T) {
	s := newSite(t)
	p := s.get("/join/state")
	assert.Equal(t, http.StatusNotFound, p.status)
	assert.Contains(t, p.body, "no registration in progress")
}

func TestJoin_CardPlaceholdersOff(t *testing.T) {
	s := newSite(t, func(d *Deps) { d.CardPlaceholders = false })
	s.walkToPayment()

	p := s.get("/join")
	assert.NotContains(t, p.body, "readonly")
	assert.NotContains(t, p.body, "4242")

	form := stageThreeForm()
	form.Set("expiryDate", "")
	p = s.post("/join", "/join/submit", form)
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, `value="4242 4242 4242 4242"`, "typed card number kept")
	assert.NotContains(t, p.body, `value="123"`, "cvv never re-rendered")
}
