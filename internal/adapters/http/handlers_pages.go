package web

import (
	"net/http"

	"parker/internal/domain/tier"
)

// feature is one card in the home page's "Why Choose PARKER IS" grid.
type feature struct {
	Title       string
	Description string
}

var features = []feature{
	{"Advanced Development", "Cutting-edge software solutions built with the latest technologies."},
	{"AI Integration", "Seamlessly integrate AI capabilities into your business processes."},
	{"Secure Systems", "Enterprise-grade security to protect your most valuable assets."},
	{"Global Solutions", "Scalable solutions that work across borders and timezones."},
	{"Team Excellence", "World-class talent dedicated to your success."},
	{"Innovation First", "Pushing the boundaries of what's possible with technology."},
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, r, http.StatusOK, "home.html", map[string]any{
		"Title":    "PARKER INTELLIGENT SYSTEMS",
		"Features": features,
		"Tiers":    tier.All(),
		"Featured": tier.Average,
	})
}

func (s *server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, r, http.StatusOK, "about.html", map[string]any{
		"Title": "About Us",
		"Body":  s.about,
	})
}
