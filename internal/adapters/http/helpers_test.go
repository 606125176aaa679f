package web

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	emailAdapter "parker/internal/adapters/email"
	"parker/internal/adapters/http/perf"
	"parker/internal/adapters/payment"
	"parker/internal/adapters/storage"
	contactStore "parker/internal/adapters/storage/contact"
	membershipStore "parker/internal/adapters/storage/membership"
	outboxStore "parker/internal/adapters/storage/outbox"
	sessionStore "parker/internal/adapters/storage/session"
	"parker/internal/adapters/storage/storagetest"
	userStore "parker/internal/adapters/storage/user"
	verificationStore "parker/internal/adapters/storage/verification"
	wizardStore "parker/internal/adapters/storage/wizard"
	"parker/internal/application/orchestrators"
	"parker/internal/application/projections"
	"parker/internal/domain/user"
)

var testCSRFKey = []byte("0123456789abcdef0123456789abcdef")

// site is a running server backed by an in-memory database.
type site struct {
	t         *testing.T
	srv       *httptest.Server
	client    *http.Client
	db        *sql.DB
	users     *userStore.SQLiteStore
	wizards   *wizardStore.MemoryStore
	contacts  *contactStore.SQLiteStore
	sender    *emailAdapter.NoopSender
	collector *perf.Collector
	deps      Deps
}

// siteOption adjusts Deps before the server starts.
type siteOption func(*Deps)

func newSite(t *testing.T, opts ...siteOption) *site {
	t.Helper()
	raw := storagetest.Open(t)
	collector := perf.NewCollector(1000)
	db := storage.NewTimedDB(raw, collector, 0)

	users := userStore.NewSQLiteStore(db)
	sessions := sessionStore.NewSQLiteStore(db)
	tokens := verificationStore.NewSQLiteStore(db)
	outbox := outboxStore.NewSQLiteStore(db)
	contacts := contactStore.NewSQLiteStore(db)
	wizards := wizardStore.NewMemoryStore(time.Hour)
	sender := emailAdapter.NewNoopSender()

	registrar := orchestrators.Registrar{Deps: orchestrators.RegisterDeps{
		Users:      users,
		RunInTx:    orchestrators.SQLRegisterTx(db),
		Payments:   payment.NewStubProcessor(),
		Outbox:     outbox,
		Sender:     sender,
		BaseURL:    "https://parker.dev",
		GenerateID: uuid.NewString,
		Now:        time.Now,
	}}

	deps := Deps{
		Wizard: orchestrators.WizardDeps{Sessions: wizards},
		Submit: orchestrators.SubmitWizardDeps{Sessions: wizards, Submitter: registrar, Now: time.Now},
		Contact: orchestrators.ContactDeps{
			Messages:   contacts,
			Outbox:     outbox,
			Sender:     sender,
			Inbox:      "hello@parker.dev",
			GenerateID: uuid.NewString,
			Now:        time.Now,
		},
		Admin: projections.GetAdminOverviewDeps{
			Users:        users,
			Applications: membershipStore.NewSQLiteStore(db),
			Contacts:     contacts,
			Outbox:       outbox,
		},
		Login:            orchestrators.LoginDeps{Users: users, Sessions: sessions, Now: time.Now},
		Resolve:          orchestrators.ResolveSessionDeps{Sessions: sessions, Users: users, Now: time.Now},
		Verify:           orchestrators.VerifyEmailDeps{Tokens: tokens, Users: users, Now: time.Now},
		DB:               db,
		Collector:        collector,
		CSRFKey:          testCSRFKey,
		RateLimit:        1000,
		CardPlaceholders: true,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	handler, err := NewMux(deps)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &site{
		t:         t,
		srv:       srv,
		client:    client,
		db:        raw,
		users:     users,
		wizards:   wizards,
		contacts:  contacts,
		sender:    sender,
		collector: collector,
		deps:      deps,
	}
}

// page is a fetched response with its body read.
type page struct {
	status   int
	body     string
	header   http.Header
	location string
}

func (s *site) do(req *http.Request) page {
	s.t.Helper()
	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return page{status: resp.StatusCode, body: string(b), header: resp.Header, location: resp.Header.Get("Location")}
}

func (s *site) get(path string) page {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(s.t, err)
	req.Header.Set("Accept", "text/html")
	return s.do(req)
}

var csrfFieldRE = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// token fetches path and returns the CSRF token embedded in its form.
func (s *site) token(path string) string {
	s.t.Helper()
	p := s.get(path)
	m := csrfFieldRE.FindStringSubmatch(p.body)
	require.Len(s.t, m, 2, "no csrf field on %s", path)
	return m[1]
}

// post submits a form with a CSRF token taken from the page at from.
func (s *site) post(from, path string, form url.Values) page {
	s.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("gorilla.csrf.Token", s.token(from))
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *site) postJSON(path, body string) page {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(body))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *site) cookie(name, path string) string {
	u, _ := url.Parse(s.srv.URL + path)
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// seedMember creates a user with password "abcdefgh".
func (s *site) seedMember(email string) user.User {
	s.t.Helper()
	return s.seedUser(email, user.RoleUser)
}

func (s *site) seedUser(email, role string) user.User {
	s.t.Helper()
	now := time.Now()
	u := user.User{ID: "u-" + email, Name: "Member", Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
	require.NoError(s.t, u.SetPassword("abcdefgh"))
	require.NoError(s.t, s.users.Create(context.Background(), u))
	return u
}

func (s *site) count(table string) int {
	s.t.Helper()
	var n int
	require.NoError(s.t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func stageOneForm() url.Values {
	return url.Values{
		"selectedTier":    {"average"},
		"name":            {"Jo Lee"},
		"email":           {"jo@parker.dev"},
		"password":        {"abcdefgh"},
		"confirmPassword": {"abcdefgh"},
	}
}

func stageTwoForm() url.Values {
	return url.Values{
		"education":  {"BSc Computer Science"},
		"experience": {"Five years of backend work"},
		"skills":     {"Go, SQL, distributed systems"},
		"motivation": {"I want to build real products"},
	}
}

func stageThreeForm() url.Values {
	return url.Values{
		"cardNumber":     {"4242 4242 4242 4242"},
		"expiryDate":     {"12/34"},
		"cvv":            {"123"},
		"cardholderName": {"Jo Lee"},
	}
}
