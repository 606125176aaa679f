package web

import (
	"net/http"

	"parker/internal/application/projections"
)

// handleAdmin shows signups per tier, recent enquiries and undelivered email.
// PRE: caller holds the ADMIN role (enforced by RequireRole)
func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	overview, err := projections.GetAdminOverview(r.Context(), s.deps.Admin)
	if err != nil {
		internalError(w, err)
		return
	}
	s.pages.render(w, r, http.StatusOK, "admin.html", map[string]any{
		"Title":    "Admin",
		"Overview": overview,
	})
}
