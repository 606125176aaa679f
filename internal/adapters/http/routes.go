package web

import (
	"net/http"

	"parker/internal/adapters/http/middleware"
	"parker/internal/domain/user"
)

// registerRoutes maps every route to its handler.
func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /about", s.handleAbout)

	mux.HandleFunc("GET /contact", s.handleContactForm)
	mux.HandleFunc("POST /contact", s.handleContactSubmit)

	mux.HandleFunc("GET /join", s.handleJoin)
	mux.HandleFunc("POST /join/tier", s.handleJoinTier)
	mux.HandleFunc("POST /join/next", s.handleJoinNext)
	mux.HandleFunc("POST /join/back", s.handleJoinBack)
	mux.HandleFunc("POST /join/submit", s.handleJoinSubmit)
	mux.HandleFunc("GET /join/state", s.handleJoinState)
	mux.HandleFunc("GET /join/success", s.handleJoinSuccess)

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /verify", s.handleVerifyForm)
	mux.HandleFunc("POST /verify", s.handleVerify)

	mux.Handle("GET /admin", middleware.RequireRole(user.RoleAdmin)(http.HandlerFunc(s.handleAdmin)))

	api := http.NewServeMux()
	api.HandleFunc("POST /api/contact", s.handleAPIContact)
	api.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("/api/", s.apiCORS()(api))

	if s.deps.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.deps.StaticDir))))
	}
}
