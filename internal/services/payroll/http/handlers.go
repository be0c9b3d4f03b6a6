// Package http provides http transport for payroll
package http

import (
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/payroll/domain"
)

// Register mounts payroll endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	// pay periods
	httpkit.PostJSON[domain.CreatePeriodInput](r, "/periods", h.createPeriod)
	httpkit.Post(r, "/periods/{periodID}/close", h.closePeriod)
	httpkit.Post(r, "/periods/{periodID}/mark-exported", h.markExported)
	httpkit.Get(r, "/periods", h.listPeriods)

	// timesheet approvals
	httpkit.PostJSON[domain.SetApprovalInput](r, "/approvals", h.setApproval)
	httpkit.Get(r, "/approvals", h.listApprovals)

	// compensation setup
	httpkit.PostJSON[domain.CreateComponentInput](r, "/components", h.createComponent)
	httpkit.Post(r, "/components/{componentID}/enable", h.enableComponent)
	httpkit.Post(r, "/components/{componentID}/disable", h.disableComponent)
	httpkit.Get(r, "/components", h.listComponents)
	httpkit.PostJSON[domain.CreateProfileInput](r, "/profiles", h.createProfile)
	httpkit.Get(r, "/profiles", h.listProfiles)
	httpkit.PostJSON[domain.MappingInput](r, "/posting-mapping", h.setMapping)

	// run lifecycle
	httpkit.PostJSON[domain.CreateRunInput](r, "/runs", h.createRun)
	httpkit.Post(r, "/runs/{runID}/calculate", h.calculate)
	httpkit.Post(r, "/runs/{runID}/approve", h.approve)
	httpkit.Post(r, "/runs/{runID}/post", h.post)
	httpkit.Post(r, "/runs/{runID}/pay", h.pay)
	httpkit.Post(r, "/runs/{runID}/void", h.void)
	httpkit.Get(r, "/runs/{runID}", h.getRun)
}

type handlers struct{ svc domain.ServicePort }

func (h *handlers) runAction(
	r *stdhttp.Request,
	level int,
	fn func(orgID, actorID, runID string) (any, error),
) (any, error) {
	id, err := httpkit.RequireLevel(r, level)
	if err != nil {
		return nil, err
	}
	runID, err := httpkit.MustParam(r, "runID")
	if err != nil {
		return nil, err
	}
	return fn(id.OrgID, id.UserID, runID)
}

// @Summary Open a pay period
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body domain.CreatePeriodInput true "Period"
// @Success 200 {object} domain.PayPeriod "ok"
// @Router /payroll/periods [post]
func (h *handlers) createPeriod(r *stdhttp.Request, in domain.CreatePeriodInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.CreatePeriod(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Close a pay period, locking its approvals
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.PayPeriod "ok"
// @Router /payroll/periods/{periodID}/close [post]
func (h *handlers) closePeriod(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	periodID, err := httpkit.MustParam(r, "periodID")
	if err != nil {
		return nil, err
	}
	return h.svc.ClosePeriod(r.Context(), id.OrgID, id.UserID, periodID)
}

// @Summary Mark a closed period as exported
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.PayPeriod "ok"
// @Router /payroll/periods/{periodID}/mark-exported [post]
func (h *handlers) markExported(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	periodID, err := httpkit.MustParam(r, "periodID")
	if err != nil {
		return nil, err
	}
	return h.svc.MarkExported(r.Context(), id.OrgID, id.UserID, periodID)
}

// @Summary List pay periods
// @Tags Payroll
// @Produce json
// @Success 200 {array} domain.PayPeriod "ok"
// @Router /payroll/periods [get]
func (h *handlers) listPeriods(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.ListPeriods(r.Context(), id.OrgID, r.URL.Query().Get("branch_id"))
}

// @Summary Approve or reject a timesheet
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body domain.SetApprovalInput true "Decision"
// @Success 200 {object} domain.TimesheetApproval "ok"
// @Router /payroll/approvals [post]
func (h *handlers) setApproval(r *stdhttp.Request, in domain.SetApprovalInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.SetApproval(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary List timesheet approvals by status
// @Tags Payroll
// @Produce json
// @Success 200 {array} domain.TimesheetApproval "ok"
// @Router /payroll/approvals [get]
func (h *handlers) listApprovals(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	status := domain.ApprovalStatus(r.URL.Query().Get("status"))
	return h.svc.ListApprovals(r.Context(), id.OrgID, status)
}

// @Summary Define a compensation component
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body domain.CreateComponentInput true "Component"
// @Success 200 {object} domain.Component "ok"
// @Router /payroll/components [post]
func (h *handlers) createComponent(r *stdhttp.Request, in domain.CreateComponentInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateComponent(r.Context(), id.OrgID, in)
}

// @Summary Enable a component
// @Tags Payroll
// @Success 200 {object} domain.Component "ok"
// @Router /payroll/components/{componentID}/enable [post]
func (h *handlers) enableComponent(r *stdhttp.Request) (any, error) {
	return h.setComponentEnabled(r, true)
}

// @Summary Disable a component
// @Tags Payroll
// @Success 200 {object} domain.Component "ok"
// @Router /payroll/components/{componentID}/disable [post]
func (h *handlers) disableComponent(r *stdhttp.Request) (any, error) {
	return h.setComponentEnabled(r, false)
}

func (h *handlers) setComponentEnabled(r *stdhttp.Request, enabled bool) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	componentID, err := httpkit.MustParam(r, "componentID")
	if err != nil {
		return nil, err
	}
	return h.svc.SetComponentEnabled(r.Context(), id.OrgID, componentID, enabled)
}

// @Summary List components
// @Tags Payroll
// @Produce json
// @Success 200 {array} domain.Component "ok"
// @Router /payroll/components [get]
func (h *handlers) listComponents(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.ListComponents(r.Context(), id.OrgID)
}

// @Summary Create a compensation profile window
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body domain.CreateProfileInput true "Profile"
// @Success 200 {object} domain.Profile "ok"
// @Router /payroll/profiles [post]
func (h *handlers) createProfile(r *stdhttp.Request, in domain.CreateProfileInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateProfile(r.Context(), id.OrgID, in)
}

// @Summary List a user's profiles
// @Tags Payroll
// @Produce json
// @Success 200 {array} domain.Profile "ok"
// @Router /payroll/profiles [get]
func (h *handlers) listProfiles(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.ListProfiles(r.Context(), id.OrgID, r.URL.Query().Get("user_id"))
}

// @Summary Set the GL posting mapping for the org or a branch
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body domain.MappingInput true "Mapping"
// @Success 200 {object} domain.PostingMapping "ok"
// @Router /payroll/posting-mapping [post]
func (h *handlers) setMapping(r *stdhttp.Request, in domain.MappingInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.SetMapping(r.Context(), id.OrgID, in)
}

// @Summary Open a DRAFT payroll run
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body domain.CreateRunInput true "Run"
// @Success 200 {object} domain.Run "ok"
// @Router /payroll/runs [post]
func (h *handlers) createRun(r *stdhttp.Request, in domain.CreateRunInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateRun(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Calculate a run (DRAFT to CALCULATED)
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.RunDetail "ok"
// @Router /payroll/runs/{runID}/calculate [post]
func (h *handlers) calculate(r *stdhttp.Request) (any, error) {
	return h.runAction(r, 4, func(orgID, actorID, runID string) (any, error) {
		return h.svc.Calculate(r.Context(), orgID, actorID, runID)
	})
}

// @Summary Approve a calculated run
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.Run "ok"
// @Router /payroll/runs/{runID}/approve [post]
func (h *handlers) approve(r *stdhttp.Request) (any, error) {
	return h.runAction(r, 4, func(orgID, actorID, runID string) (any, error) {
		return h.svc.ApproveRun(r.Context(), orgID, actorID, runID)
	})
}

// @Summary Post the accrual journal (APPROVED to POSTED)
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.Run "ok"
// @Router /payroll/runs/{runID}/post [post]
func (h *handlers) post(r *stdhttp.Request) (any, error) {
	return h.runAction(r, 4, func(orgID, actorID, runID string) (any, error) {
		return h.svc.PostRun(r.Context(), orgID, actorID, runID)
	})
}

// @Summary Record payment (POSTED to PAID)
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.Run "ok"
// @Router /payroll/runs/{runID}/pay [post]
func (h *handlers) pay(r *stdhttp.Request) (any, error) {
	return h.runAction(r, 4, func(orgID, actorID, runID string) (any, error) {
		return h.svc.PayRun(r.Context(), orgID, actorID, runID)
	})
}

// @Summary Void a run, reversing posted journals
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.Run "ok"
// @Router /payroll/runs/{runID}/void [post]
func (h *handlers) void(r *stdhttp.Request) (any, error) {
	return h.runAction(r, 4, func(orgID, actorID, runID string) (any, error) {
		return h.svc.VoidRun(r.Context(), orgID, actorID, runID)
	})
}

// @Summary Run detail with lines and payslips
// @Tags Payroll
// @Produce json
// @Success 200 {object} domain.RunDetail "ok"
// @Router /payroll/runs/{runID} [get]
func (h *handlers) getRun(r *stdhttp.Request) (any, error) {
	return h.runAction(r, 3, func(orgID, _, runID string) (any, error) {
		return h.svc.GetRun(r.Context(), orgID, runID)
	})
}
