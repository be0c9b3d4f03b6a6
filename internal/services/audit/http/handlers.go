// Package http provides the audit read surface
package http

import (
	stdhttp "net/http"
	"strconv"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/audit/domain"
)

// Register mounts audit endpoints on the given router
func Register(r httpkit.Router, s domain.ReaderPort) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/entries", h.list)
}

type handlers struct{ svc domain.ReaderPort }

// @Summary List audit entries, newest first with a keyset cursor
// @Tags Audit
// @Produce json
// @Success 200 {array} domain.Entry "ok"
// @Router /audit/entries [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	f := domain.Filter{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		ActorID:    q.Get("actor_id"),
		Action:     domain.Action(q.Get("action")),
		AfterID:    q.Get("after_id"),
	}
	if f.From, err = httpkit.QueryTime(r, "from"); err != nil {
		return nil, err
	}
	if f.To, err = httpkit.QueryTime(r, "to"); err != nil {
		return nil, err
	}
	if f.AfterAt, err = httpkit.QueryTime(r, "after_at"); err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return h.svc.List(r.Context(), id.OrgID, f)
}
