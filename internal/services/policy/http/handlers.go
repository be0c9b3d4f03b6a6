// Package http provides http transport for workforce policy
package http

import (
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/policy/domain"
)

// Register mounts policy endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/", h.get)
	httpkit.PostJSON[updateBody](r, "/", h.update)
}

type handlers struct{ svc domain.ServicePort }

type updateBody struct {
	Options map[string]string `json:"options" validate:"required,min=1"`
}

// @Summary Resolved policy for the caller's org
// @Tags Policy
// @Produce json
// @Success 200 {object} domain.Policy "ok"
// @Router /policy [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.Resolve(r.Context(), id.OrgID)
}

// @Summary Update policy options; unknown keys and bad values fail whole
// @Tags Policy
// @Accept json
// @Produce json
// @Param payload body updateBody true "Options"
// @Success 200 {object} domain.Policy "ok"
// @Router /policy [post]
func (h *handlers) update(r *stdhttp.Request, in updateBody) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.Update(r.Context(), id.OrgID, id.UserID, in.Options)
}
