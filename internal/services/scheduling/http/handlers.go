// Package http provides http transport for scheduling
package http

import (
	stdhttp "net/http"

	"brigade/internal/modkit/httpkit"
	"brigade/internal/services/scheduling/domain"
)

// Register mounts scheduling endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	// templates
	httpkit.PostJSON[domain.UpsertTemplateInput](r, "/templates", h.upsertTemplate)
	httpkit.Get(r, "/templates", h.listTemplates)

	// shift CRUD and lifecycle
	httpkit.PostJSON[domain.CreateShiftInput](r, "/shifts", h.createShift)
	httpkit.PostJSON[domain.UpdateShiftInput](r, "/shifts/update", h.updateShift)
	httpkit.Delete(r, "/shifts/{shiftID}", h.deleteShift)
	httpkit.PostJSON[domain.CancelShiftInput](r, "/shifts/cancel", h.cancelShift)
	httpkit.Get(r, "/shifts/{shiftID}", h.getShift)
	httpkit.PostJSON[domain.ListShiftsInput](r, "/shifts/search", h.listShifts)
	httpkit.PostJSON[domain.PublishInput](r, "/shifts/publish", h.publish)

	// non-blocking weekly overtime warning
	httpkit.PostJSON[domain.OvertimeCheckInput](r, "/shifts/overtime-check", h.checkOvertime)

	// open-shift claims
	httpkit.PostJSON[domain.ClaimInput](r, "/claims", h.claim)
	httpkit.PostJSON[domain.DecideClaimInput](r, "/claims/approve", h.approveClaim)
	httpkit.PostJSON[domain.DecideClaimInput](r, "/claims/reject", h.rejectClaim)
	httpkit.PostJSON[domain.DecideClaimInput](r, "/claims/withdraw", h.withdrawClaim)

	// swaps
	httpkit.PostJSON[domain.SwapInput](r, "/swaps/validate", h.validateSwap)
	httpkit.PostJSON[domain.SwapInput](r, "/swaps/execute", h.executeSwap)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Create or update a shift template
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.UpsertTemplateInput true "Template"
// @Success 200 {object} domain.Template "ok"
// @Router /scheduling/templates [post]
func (h *handlers) upsertTemplate(r *stdhttp.Request, in domain.UpsertTemplateInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.UpsertTemplate(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary List shift templates
// @Tags Scheduling
// @Produce json
// @Success 200 {array} domain.Template "ok"
// @Router /scheduling/templates [get]
func (h *handlers) listTemplates(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	return h.svc.ListTemplates(r.Context(), id.OrgID, q.Get("branch_id"), q.Get("active") == "true")
}

// @Summary Create a DRAFT shift
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.CreateShiftInput true "Shift"
// @Success 200 {object} domain.Shift "ok"
// @Router /scheduling/shifts [post]
func (h *handlers) createShift(r *stdhttp.Request, in domain.CreateShiftInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateShift(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Update a DRAFT shift
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.UpdateShiftInput true "Shift"
// @Success 200 {object} domain.Shift "ok"
// @Router /scheduling/shifts/update [post]
func (h *handlers) updateShift(r *stdhttp.Request, in domain.UpdateShiftInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateShift(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Delete a DRAFT shift
// @Tags Scheduling
// @Success 200 "ok"
// @Router /scheduling/shifts/{shiftID} [delete]
func (h *handlers) deleteShift(r *stdhttp.Request) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	shiftID, err := httpkit.MustParam(r, "shiftID")
	if err != nil {
		return nil, err
	}
	return nil, h.svc.DeleteShift(r.Context(), id.OrgID, id.UserID, shiftID)
}

// @Summary Cancel a DRAFT or PUBLISHED shift
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.CancelShiftInput true "Cancellation"
// @Success 200 {object} domain.Shift "ok"
// @Router /scheduling/shifts/cancel [post]
func (h *handlers) cancelShift(r *stdhttp.Request, in domain.CancelShiftInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.CancelShift(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Get one shift
// @Tags Scheduling
// @Produce json
// @Success 200 {object} domain.Shift "ok"
// @Router /scheduling/shifts/{shiftID} [get]
func (h *handlers) getShift(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	shiftID, err := httpkit.MustParam(r, "shiftID")
	if err != nil {
		return nil, err
	}
	return h.svc.GetShift(r.Context(), id.OrgID, shiftID)
}

// @Summary Search shifts
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.ListShiftsInput true "Filter"
// @Success 200 {array} domain.Shift "ok"
// @Router /scheduling/shifts/search [post]
func (h *handlers) listShifts(r *stdhttp.Request, in domain.ListShiftsInput) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ListShifts(r.Context(), id.OrgID, in)
}

// @Summary Publish DRAFT shifts in a branch and date range
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.PublishInput true "Range"
// @Success 200 {object} domain.PublishResult "ok"
// @Router /scheduling/shifts/publish [post]
func (h *handlers) publish(r *stdhttp.Request, in domain.PublishInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 4)
	if err != nil {
		return nil, err
	}
	return h.svc.Publish(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Check whether extra minutes would cross the weekly OT threshold
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.OvertimeCheckInput true "Query"
// @Success 200 {object} domain.OvertimeWarning "ok"
// @Router /scheduling/shifts/overtime-check [post]
func (h *handlers) checkOvertime(r *stdhttp.Request, in domain.OvertimeCheckInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.CheckOvertime(r.Context(), id.OrgID, in.UserID, in.WeekStart, in.AdditionalMinutes)
}

// @Summary Claim an open shift
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.ClaimInput true "Claim"
// @Success 200 {object} domain.Claim "ok"
// @Router /scheduling/claims [post]
func (h *handlers) claim(r *stdhttp.Request, in domain.ClaimInput) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ClaimShift(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Approve a pending claim
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.DecideClaimInput true "Decision"
// @Success 200 {object} domain.Claim "ok"
// @Router /scheduling/claims/approve [post]
func (h *handlers) approveClaim(r *stdhttp.Request, in domain.DecideClaimInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.ApproveClaim(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Reject a pending claim
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.DecideClaimInput true "Decision"
// @Success 200 {object} domain.Claim "ok"
// @Router /scheduling/claims/reject [post]
func (h *handlers) rejectClaim(r *stdhttp.Request, in domain.DecideClaimInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return h.svc.RejectClaim(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Withdraw your own pending claim
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.DecideClaimInput true "Decision"
// @Success 200 {object} domain.Claim "ok"
// @Router /scheduling/claims/withdraw [post]
func (h *handlers) withdrawClaim(r *stdhttp.Request, in domain.DecideClaimInput) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.WithdrawClaim(r.Context(), id.OrgID, id.UserID, in)
}

// @Summary Validate a swap without executing it
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.SwapInput true "Swap"
// @Success 200 {array} domain.Conflict "ok"
// @Router /scheduling/swaps/validate [post]
func (h *handlers) validateSwap(r *stdhttp.Request, in domain.SwapInput) (any, error) {
	id, err := httpkit.Identity(r)
	if err != nil {
		return nil, err
	}
	return h.svc.ValidateSwap(r.Context(), id.OrgID, in)
}

// @Summary Execute a validated swap
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body domain.SwapInput true "Swap"
// @Success 200 "ok"
// @Router /scheduling/swaps/execute [post]
func (h *handlers) executeSwap(r *stdhttp.Request, in domain.SwapInput) (any, error) {
	id, err := httpkit.RequireLevel(r, 3)
	if err != nil {
		return nil, err
	}
	return nil, h.svc.ExecuteSwap(r.Context(), id.OrgID, id.UserID, in)
}
