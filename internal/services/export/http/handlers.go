// Package http provides http transport for CSV exports. These endpoints
// return raw text/csv rather than the JSON envelope; the body hash rides
// in X-Content-Hash so callers can verify replays
package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	phttp "brigade/internal/platform/net/http"
	"brigade/internal/services/export/domain"
)

// HashHeader carries the SHA-256 hex of the body without the BOM
const HashHeader = "X-Content-Hash"

// Register mounts the export endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	r.Get("/kiosk-events", h.csv(s.KioskEvents))
	r.Get("/pin-attempts", h.csv(s.PinAttempts))
	r.Get("/incidents", h.csv(s.Incidents))
	r.Get("/time-entries", h.csv(s.TimeEntries))
	r.Get("/geofence-events", h.csv(s.GeofenceEvents))
}

type handlers struct{ svc domain.ServicePort }

type renderFunc func(ctx context.Context, orgID, actorID string, in domain.RangeInput) (domain.Result, error)

// csv adapts a render func to a raw handler. Errors still go out as the
// standard JSON envelope
func (h *handlers) csv(render renderFunc) phttp.Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		id, err := httpkit.RequireLevel(r, 3)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		in := domain.RangeInput{BranchID: r.URL.Query().Get("branch_id")}
		if in.From, err = httpkit.QueryTime(r, "from"); err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		if in.To, err = httpkit.QueryTime(r, "to"); err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		res, err := render(r.Context(), id.OrgID, id.UserID, in)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
		w.Header().Set(HashHeader, res.Hash)
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write(res.Body)
	}
}
