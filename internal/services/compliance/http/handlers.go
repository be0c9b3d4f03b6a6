// Package http provides http transport for break compliance
package http

import (
	stdhttp "net/http"
	"strconv"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/compliance/domain"
)

// Register mounts compliance endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.EvaluateInput](r, "/evaluate", h.evaluate)
	httpkit.Get(r, "/incidents", h.list)
	httpkit.Post(r, "/incidents/{incidentID}/resolve", h.resolve)
	httpkit.Post(r, "/incidents/{incidentID}/reopen", h.reopen)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Evaluate break rules over a date range
// @Tags Compliance
// @Accept json
// @Produce json
// @Param payload body domain.EvaluateInput true "Range"
// @Success 200 {object} domain.Summary "ok"
// @Router /compliance/evaluate [post]
func (h *handlers) evaluate(r *stdhttp.Request, in domain.EvaluateInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.Evaluate(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary List incidents
// @Tags Compliance
// @Produce json
// @Success 200 {array} domain.Incident "ok"
// @Router /compliance/incidents [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	f := domain.IncidentFilter{
		BranchID: q.Get("branch_id"),
		UserID:   q.Get("user_id"),
		Type:     domain.IncidentType(q.Get("type")),
		Severity: domain.Severity(q.Get("severity")),
	}
	if raw := q.Get("resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err == nil {
			f.Resolved = &v
		}
	}
	if f.From, err = httpkit.QueryTime(r, "from"); err != nil {
		return nil, err
	}
	if f.To, err = httpkit.QueryTime(r, "to"); err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return h.svc.List(r.Context(), id.OrgID, f)
}

// @Summary Resolve an incident
// @Tags Compliance
// @Produce json
// @Success 200 {object} domain.Incident "ok"
// @Router /compliance/incidents/{incidentID}/resolve [post]
func (h *handlers) resolve(r *stdhttp.Request) (any, error) {
	return h.setResolved(r, true)
}

// @Summary Reopen a resolved incident
// @Tags Compliance
// @Produce json
// @Success 200 {object} domain.Incident "ok"
// @Router /compliance/incidents/{incidentID}/reopen [post]
func (h *handlers) reopen(r *stdhttp.Request) (any, error) {
	return h.setResolved(r, false)
}

func (h *handlers) setResolved(r *stdhttp.Request, resolved bool) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	incidentID, err := httpkit.MustParam(r, "incidentID")
	if err != nil {
		return nil, err
	}
	return h.svc.SetResolved(r.Context(), id.OrgID, id.UserID, incidentID, resolved)
}
