package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"parker/internal/adapters/http/perf"
)

const (
	healthPingTimeout = 2 * time.Second
	healthWindow      = 15 * time.Minute
	healthTopN        = 5
)

type healthResponse struct {
	Status   string         `json:"status"`
	Database string         `json:"database"`
	Time     time.Time      `json:"time"`
	Perf     *perf.Snapshot `json:"perf,omitempty"`
}

// handleHealth reports database reachability and recent request timings.
// POST: 200 when the database answers a ping, 503 otherwise
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Time: s.now().UTC()}
	status := http.StatusOK

	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		err := s.deps.DB.Ping(ctx)
		cancel()
		if err != nil {
			slog.Error("health_check_failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	if s.deps.Collector != nil {
		snap := s.deps.Collector.Snapshot(s.now().Add(-healthWindow), healthTopN)
		resp.Perf = &snap
	}
	writeJSON(w, status, resp)
}
