// Package http provides http transport for the org directory
package http

import (
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/directory/domain"
)

// Register mounts directory endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.ListUsersInput](r, "/users/search", h.list)
	httpkit.Get(r, "/users/{userID}", h.get)
	httpkit.PostJSON[domain.SetPinInput](r, "/users/pin", h.setPin)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Search org users
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body domain.ListUsersInput true "Filter"
// @Success 200 {array} domain.User "ok"
// @Router /directory/users/search [post]
func (h *handlers) list(r *stdhttp.Request, in domain.ListUsersInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), id.OrgID, in)
}

// @Summary Get one user
// @Tags Directory
// @Produce json
// @Success 200 {object} domain.User "ok"
// @Router /directory/users/{userID} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	userID, err := httpkit.MustParam(r, "userID")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id.OrgID, userID)
}

// @Summary Set or rotate a user's kiosk PIN
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body domain.SetPinInput true "PIN"
// @Success 200 "ok"
// @Router /directory/users/pin [post]
func (h *handlers) setPin(r *stdhttp.Request, in domain.SetPinInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return nil, h.svc.SetPin(r.Context(), id.OrgID, id.UserID, in)
}
