// Package http provides http transport for geofence configuration,
// manager overrides and decision event reads
package http

import (
	stdhttp "net/http"
	"strconv"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/geofence/domain"
)

// Register mounts geofence endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.UpsertConfigInput](r, "/config", h.upsertConfig)
	httpkit.Get(r, "/config/{branchID}", h.getConfig)
	httpkit.PostJSON[domain.OverrideInput](r, "/override", h.override)
	httpkit.Get(r, "/events", h.events)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Create or replace a branch geofence
// @Tags Geofence
// @Accept json
// @Produce json
// @Param payload body domain.UpsertConfigInput true "Fence"
// @Success 200 {object} domain.Config "ok"
// @Router /geofence/config [post]
func (h *handlers) upsertConfig(r *stdhttp.Request, in domain.UpsertConfigInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.UpsertConfig(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Fence config for a branch
// @Tags Geofence
// @Produce json
// @Success 200 {object} domain.Config "ok"
// @Router /geofence/config/{branchID} [get]
func (h *handlers) getConfig(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	branchID, err := httpkit.MustParam(r, "branchID")
	if err != nil {
		return nil, err
	}
	cfg, found, err := h.svc.ConfigByBranch(r.Context(), id.OrgID, branchID)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]bool{"configured": false}, nil
	}
	return cfg, nil
}

// @Summary Bypass a geofence block on a time entry
// @Tags Geofence
// @Accept json
// @Produce json
// @Param payload body domain.OverrideInput true "Override"
// @Success 200 "ok"
// @Router /geofence/override [post]
func (h *handlers) override(r *stdhttp.Request, in domain.OverrideInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return nil, h.svc.Override(r.Context(), id.OrgID, id.UserID, id.RoleLevel, in)
}

// @Summary Recent geofence decision events
// @Tags Geofence
// @Produce json
// @Success 200 {array} domain.Event "ok"
// @Router /geofence/events [get]
func (h *handlers) events(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	f := domain.EventFilter{
		BranchID: q.Get("branch_id"),
		UserID:   q.Get("user_id"),
		Type:     domain.EventType(q.Get("type")),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return h.svc.Events(r.Context(), id.OrgID, f)
}
