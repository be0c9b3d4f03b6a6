// Package http provides http transport for the timeclock
package http

import (
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/timeclock/domain"
)

// Register mounts timeclock endpoints on the given router. Every action
// operates on the authenticated caller's own clock state
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.ClockInInput](r, "/clock-in", h.clockIn)
	httpkit.PostJSON[domain.ClockOutInput](r, "/clock-out", h.clockOut)
	httpkit.Post(r, "/break/start", h.startBreak)
	httpkit.Post(r, "/break/end", h.endBreak)
	httpkit.Get(r, "/status", h.status)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Clock in
// @Tags Timeclock
// @Accept json
// @Produce json
// @Param payload body domain.ClockInInput true "Clock-in"
// @Success 200 {object} domain.TimeEntry "ok"
// @Router /timeclock/clock-in [post]
func (h *handlers) clockIn(r *stdhttp.Request, in domain.ClockInInput) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ClockIn(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Clock out
// @Tags Timeclock
// @Accept json
// @Produce json
// @Param payload body domain.ClockOutInput true "Clock-out"
// @Success 200 {object} domain.TimeEntry "ok"
// @Router /timeclock/clock-out [post]
func (h *handlers) clockOut(r *stdhttp.Request, in domain.ClockOutInput) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ClockOut(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Start a break
// @Tags Timeclock
// @Produce json
// @Success 200 {object} domain.BreakEntry "ok"
// @Router /timeclock/break/start [post]
func (h *handlers) startBreak(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.StartBreak(r.Context(), id.OrgID, id.UserID)
}

// @Summary End the active break
// @Tags Timeclock
// @Produce json
// @Success 200 {object} domain.BreakEntry "ok"
// @Router /timeclock/break/end [post]
func (h *handlers) endBreak(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.EndBreak(r.Context(), id.OrgID, id.UserID)
}

// @Summary Current clock state with today's shift
// @Tags Timeclock
// @Produce json
// @Success 200 {object} domain.Status "ok"
// @Router /timeclock/status [get]
func (h *handlers) status(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Status(r.Context(), id.OrgID, id.UserID)
}
