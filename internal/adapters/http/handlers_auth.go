package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"parker/internal/adapters/http/middleware"
	"parker/internal/application/orchestrators"
	"parker/internal/domain/session"
	"parker/internal/domain/verification"
)

type authPage struct {
	Title  string
	Email  string
	Error  string
	Notice string
	Next   string
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetIdentity(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.pages.render(w, r, http.StatusOK, "login.html", authPage{
		Title: "Sign In",
		Next:  r.URL.Query().Get("next"),
	})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	next := r.PostForm.Get("next")

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    email,
		Password: r.PostForm.Get("password"),
	}, s.deps.Login)
	if errors.Is(err, orchestrators.ErrInvalidCredentials) {
		s.pages.render(w, r, http.StatusUnauthorized, "login.html", authPage{
			Title: "Sign In",
			Email: email,
			Error: "Invalid email or password",
			Next:  next,
		})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, res.Token, res.Expires, s.deps.Secure)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		if err := orchestrators.ExecuteLogout(r.Context(), c.Value, s.deps.Login); err != nil {
			slog.Warn("auth_event", "event", "logout_failed", "error", err)
		}
	}
	middleware.ClearSessionCookie(w, s.deps.Secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleVerifyForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := authPage{Title: "Verify your email", Email: q.Get("email")}
	if q.Get("done") == "1" {
		page.Notice = "Your email address is verified. You can now sign in."
	}
	s.pages.render(w, r, http.StatusOK, "verify.html", page)
}

func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	err := orchestrators.ExecuteVerifyEmail(r.Context(), orchestrators.VerifyEmailInput{
		Email: email,
		Code:  r.PostForm.Get("code"),
	}, s.deps.Verify)

	var msg string
	switch {
	case err == nil:
		http.Redirect(w, r, "/verify?done=1&email="+url.QueryEscape(email), http.StatusSeeOther)
		return
	case errors.Is(err, verification.ErrExpired):
		msg = "This code has expired. Please request a new one."
	case errors.Is(err, verification.ErrNotFound):
		msg = "That code is not valid for this email address."
	default:
		internalError(w, err)
		return
	}
	s.pages.render(w, r, http.StatusUnprocessableEntity, "verify.html", authPage{
		Title: "Verify your email",
		Email: email,
		Error: msg,
	})
}
