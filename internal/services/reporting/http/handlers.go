// Package http provides http transport for reporting
package http

import (
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/reporting/domain"
)

// Register mounts reporting endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.RangeInput](r, "/labor", h.labor)
	httpkit.PostJSON[domain.RangeInput](r, "/incidents", h.incidents)
	httpkit.PostJSON[domain.RangeInput](r, "/kiosk-ingest", h.kioskIngest)
	httpkit.Get(r, "/device-health", h.deviceHealth)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Labor KPIs: plan vs clock for a window
// @Tags Reporting
// @Accept json
// @Produce json
// @Param payload body domain.RangeInput true "Range"
// @Success 200 {object} domain.LaborKPIs "ok"
// @Router /reporting/labor [post]
func (h *handlers) labor(r *stdhttp.Request, in domain.RangeInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.Labor(r.Context(), id.OrgID, in)
}

// @Summary Incident counts by type and severity
// @Tags Reporting
// @Accept json
// @Produce json
// @Param payload body domain.RangeInput true "Range"
// @Success 200 {array} domain.IncidentCount "ok"
// @Router /reporting/incidents [post]
func (h *handlers) incidents(r *stdhttp.Request, in domain.RangeInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.Incidents(r.Context(), id.OrgID, in)
}

// @Summary Kiosk ingest acceptance stats
// @Tags Reporting
// @Accept json
// @Produce json
// @Param payload body domain.RangeInput true "Range"
// @Success 200 {object} domain.IngestStats "ok"
// @Router /reporting/kiosk-ingest [post]
func (h *handlers) kioskIngest(r *stdhttp.Request, in domain.RangeInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.KioskIngest(r.Context(), id.OrgID, in)
}

// @Summary Device counts bucketed by derived health
// @Tags Reporting
// @Produce json
// @Success 200 {object} domain.HealthCounts "ok"
// @Router /reporting/device-health [get]
func (h *handlers) deviceHealth(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.DeviceHealth(r.Context(), id.OrgID, r.URL.Query().Get("branch_id"))
}
