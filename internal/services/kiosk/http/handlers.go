// Package http provides kiosk transport: the bearer-protected device
// admin surface and the public endpoints tablets call directly
package http

import (
	"net"
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/services/kiosk/domain"
)

// SessionHeader carries the kiosk session id on public calls
const SessionHeader = "X-Kiosk-Session"

// Register mounts the device admin endpoints (bearer auth)
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.EnrollDeviceInput](r, "/devices", h.enroll)
	httpkit.Post(r, "/devices/{deviceID}/rotate", h.rotate)
	httpkit.Post(r, "/devices/{deviceID}/enable", h.enable)
	httpkit.Post(r, "/devices/{deviceID}/disable", h.disable)
	httpkit.Get(r, "/devices", h.list)
	httpkit.Get(r, "/devices/{deviceID}/attempts", h.attempts)
}

// RegisterPublic mounts the tablet-facing endpoints. No bearer: the
// device secret and session header are the only credentials
func RegisterPublic(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	r.Route("/{publicID}", func(pr httpkit.Router) {
		httpkit.PostJSON[authenticateBody](pr, "/authenticate", h.authenticate)
		httpkit.Post(pr, "/heartbeat", h.heartbeat)
		httpkit.Post(pr, "/session/end", h.endSession)
		httpkit.PostJSON[domain.BatchInput](pr, "/events/batch", h.batch)
		httpkit.PostJSON[pinBody](pr, "/clock-in", h.event(domain.EventClockIn))
		httpkit.PostJSON[pinBody](pr, "/clock-out", h.event(domain.EventClockOut))
		httpkit.PostJSON[pinBody](pr, "/break/start", h.event(domain.EventBreakStart))
		httpkit.PostJSON[pinBody](pr, "/break/end", h.event(domain.EventBreakEnd))
		httpkit.PostJSON[domain.StatusInput](pr, "/status", h.status)
	})
}

type handlers struct{ svc domain.ServicePort }

type authenticateBody struct {
	Secret string `json:"secret" validate:"required"`
}

type pinBody struct {
	Pin string `json:"pin" validate:"required"`
}

func sessionID(r *stdhttp.Request) (string, error) {
	sid := r.Header.Get(SessionHeader)
	if sid == "" {
		return "", perr.Unauthorizedf("missing %s header", SessionHeader)
	}
	return sid, nil
}

func clientIP(r *stdhttp.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// @Summary Enroll a kiosk device; returns the secret exactly once
// @Tags Kiosk
// @Accept json
// @Produce json
// @Param payload body domain.EnrollDeviceInput true "Device"
// @Success 200 {object} domain.EnrollDeviceResult "ok"
// @Router /kiosk/devices [post]
func (h *handlers) enroll(r *stdhttp.Request, in domain.EnrollDeviceInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.EnrollDevice(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Rotate a device secret, ending its sessions
// @Tags Kiosk
// @Produce json
// @Success 200 {object} domain.EnrollDeviceResult "ok"
// @Router /kiosk/devices/{deviceID}/rotate [post]
func (h *handlers) rotate(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	deviceID, err := httpkit.MustParam(r, "deviceID")
	if err != nil {
		return nil, err
	}
	return h.svc.RotateSecret(r.Context(), id.OrgID, id.UserID, deviceID)
}

// @Summary Enable a device
// @Tags Kiosk
// @Success 200 "ok"
// @Router /kiosk/devices/{deviceID}/enable [post]
func (h *handlers) enable(r *stdhttp.Request) (any, error) {
	return h.setEnabled(r, true)
}

// @Summary Disable a device
// @Tags Kiosk
// @Success 200 "ok"
// @Router /kiosk/devices/{deviceID}/disable [post]
func (h *handlers) disable(r *stdhttp.Request) (any, error) {
	return h.setEnabled(r, false)
}

func (h *handlers) setEnabled(r *stdhttp.Request, enabled bool) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	deviceID, err := httpkit.MustParam(r, "deviceID")
	if err != nil {
		return nil, err
	}
	return nil, h.svc.SetDeviceEnabled(r.Context(), id.OrgID, id.UserID, deviceID, enabled)
}

// @Summary List devices with derived health
// @Tags Kiosk
// @Produce json
// @Success 200 {array} domain.DeviceView "ok"
// @Router /kiosk/devices [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.ListDevices(r.Context(), id.OrgID, r.URL.Query().Get("branch_id"))
}

// @Summary Recent PIN attempts for a device
// @Tags Kiosk
// @Produce json
// @Success 200 {array} domain.PinAttempt "ok"
// @Router /kiosk/devices/{deviceID}/attempts [get]
func (h *handlers) attempts(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	deviceID, err := httpkit.MustParam(r, "deviceID")
	if err != nil {
		return nil, err
	}
	return h.svc.Attempts(r.Context(), id.OrgID, deviceID, 100)
}

// @Summary Authenticate a kiosk device and open a session
// @Tags KioskPublic
// @Accept json
// @Produce json
// @Success 200 {object} domain.AuthenticateResult "ok"
// @Router /public/kiosk/{publicID}/authenticate [post]
func (h *handlers) authenticate(r *stdhttp.Request, in authenticateBody) (any, error) {
	publicID, err := httpkit.MustParam(r, "publicID")
	if err != nil {
		return nil, err
	}
	sess, dev, err := h.svc.Authenticate(r.Context(), domain.AuthenticateInput{
		PublicID: publicID,
		Secret:   in.Secret,
		IP:       clientIP(r),
	})
	if err != nil {
		return nil, err
	}
	return domain.AuthenticateResult{
		SessionID: sess.ID,
		Device: domain.DevicePublic{
			ID: dev.ID, Name: dev.Name, PublicID: dev.PublicID, BranchID: dev.BranchID,
		},
	}, nil
}

// @Summary Session heartbeat
// @Tags KioskPublic
// @Produce json
// @Success 200 "ok"
// @Router /public/kiosk/{publicID}/heartbeat [post]
func (h *handlers) heartbeat(r *stdhttp.Request) (any, error) {
	sid, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	if _, err := h.svc.Heartbeat(r.Context(), sid); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}

// @Summary End the device session
// @Tags KioskPublic
// @Produce json
// @Success 200 "ok"
// @Router /public/kiosk/{publicID}/session/end [post]
func (h *handlers) endSession(r *stdhttp.Request) (any, error) {
	sid, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	if err := h.svc.EndSession(r.Context(), sid); err != nil {
		return nil, err
	}
	return map[string]bool{"success": true}, nil
}

// @Summary Replay an offline event batch (idempotent)
// @Tags KioskPublic
// @Accept json
// @Produce json
// @Param payload body domain.BatchInput true "Batch"
// @Success 200 {object} domain.BatchResult "ok"
// @Router /public/kiosk/{publicID}/events/batch [post]
func (h *handlers) batch(r *stdhttp.Request, in domain.BatchInput) (any, error) {
	sid, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	in.IP = clientIP(r)
	return h.svc.SubmitBatch(r.Context(), sid, in)
}

func (h *handlers) event(t domain.EventType) func(*stdhttp.Request, pinBody) (any, error) {
	return func(r *stdhttp.Request, in pinBody) (any, error) {
		sid, err := sessionID(r)
		if err != nil {
			return nil, err
		}
		return h.svc.SubmitEvent(r.Context(), sid, domain.ClockEventInput{
			Type: t,
			Pin:  in.Pin,
			IP:   clientIP(r),
		})
	}
}

// @Summary Clock state for the user matching the PIN
// @Tags KioskPublic
// @Accept json
// @Produce json
// @Param payload body domain.StatusInput true "PIN"
// @Success 200 {object} timeclock.Status "ok"
// @Router /public/kiosk/{publicID}/status [post]
func (h *handlers) status(r *stdhttp.Request, in domain.StatusInput) (any, error) {
	sid, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.SessionStatus(r.Context(), sid, in.Pin)
}
