package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"parker/internal/adapters/http/middleware"
	"parker/internal/adapters/http/perf"
	"parker/internal/application/orchestrators"
	"parker/internal/application/projections"
)

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the HTTP surface needs. Each orchestrator gets its own deps struct,
// assembled once at startup.
type Deps struct {
	Wizard  orchestrators.WizardDeps
	Submit  orchestrators.SubmitWizardDeps
	Contact orchestrators.ContactDeps
	Login   orchestrators.LoginDeps
	Resolve orchestrators.ResolveSessionDeps
	Verify  orchestrators.VerifyEmailDeps
	Admin   projections.GetAdminOverviewDeps

	DB        Pinger
	Collector *perf.Collector

	CSRFKey          []byte
	Secure           bool
	TrustedOrigins   []string
	CORSOrigins      []string
	RateLimit        int
	SlowRequestMs    int
	StaticDir        string
	CardPlaceholders bool
}

// server carries the dependencies shared by all handlers.
type server struct {
	deps  Deps
	pages *renderer
	about template.HTML
	now   func() time.Time
}

// NewMux wires HTTP handlers for the site.
// PRE: deps.CSRFKey is 32 bytes
// POST: returns the full middleware chain around the router
func NewMux(deps Deps) (http.Handler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	about, err := renderMarkdown("content/about.md")
	if err != nil {
		return nil, fmt.Errorf("render about page: %w", err)
	}
	s := &server{deps: deps, pages: pages, about: about, now: time.Now}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	rate := deps.RateLimit
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Request flow: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(deps.CSRFKey, deps.Secure, deps.TrustedOrigins),
		middleware.Auth(s.resolveIdentity, deps.Secure),
		middleware.RateLimit(limiter),
		middleware.Timing(deps.Collector, deps.SlowRequestMs),
	), nil
}

// apiCORS allows the configured origins to call the JSON API.
func (s *server) apiCORS() func(http.Handler) http.Handler {
	origins := s.deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8080"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}

func (s *server) resolveIdentity(ctx context.Context, token string) (middleware.Identity, error) {
	u, _, err := orchestrators.ExecuteResolveSession(ctx, token, s.deps.Resolve)
	if err != nil {
		return middleware.Identity{}, err
	}
	return middleware.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Verified: u.IsVerified(),
	}, nil
}
