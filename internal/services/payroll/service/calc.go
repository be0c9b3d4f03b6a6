package service

import (
	"context"
	"sort"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/logger"
	"brigade/internal/platform/money"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/payroll/domain"
	prepo "brigade/internal/services/payroll/repo"
	pdomain "brigade/internal/services/policy/domain"
)

// userMinutes aggregates one user's period minutes before conversion to hours
type userMinutes struct {
	regular  int
	overtime int
	breaks   int
}

// Calculate aggregates payable time entries into run lines and payslips,
// then flips the run DRAFT to CALCULATED. When policy requires approval,
// only entries with an APPROVED timesheet decision count
func (s *Svc) Calculate(ctx context.Context, orgID, actorID, runID string) (domain.RunDetail, error) {
	var out domain.RunDetail
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		run, err := r.GetRun(ctx, orgID, runID)
		if err != nil {
			return err
		}
		if run.Status != domain.RunDraft {
			return perr.StateConflictf("payroll run is %s, expected DRAFT", run.Status)
		}
		period, err := r.GetPeriod(ctx, orgID, run.PeriodID)
		if err != nil {
			return err
		}
		pol := s.resolvePolicy(ctx, orgID)

		entries, err := r.PayableEntries(
			ctx, orgID, run.BranchID, period.StartDate, period.EndDate, pol.RequireApproval)
		if err != nil {
			return err
		}

		perUser := aggregateMinutes(entries, pol)
		users := make([]string, 0, len(perUser))
		for uid := range perUser {
			users = append(users, uid)
		}
		sort.Strings(users)

		lines := make([]domain.RunLine, 0, len(users))
		slips := make([]domain.Payslip, 0, len(users))
		slipLines := make(map[string][]domain.PayslipLine, len(users))

		components, err := r.EnabledComponents(ctx, orgID, run.BranchID)
		if err != nil {
			return err
		}

		totalRegular, totalOvertime, totalPaid := money.Zero, money.Zero, money.Zero
		totalGross, totalNet := money.Zero, money.Zero

		for _, uid := range users {
			m := perUser[uid]
			line := domain.RunLine{
				RunID:         run.ID,
				UserID:        uid,
				RegularHours:  money.Round2(money.HoursFromMinutes(m.regular)),
				OvertimeHours: money.Round2(money.HoursFromMinutes(m.overtime)),
				BreakHours:    money.Round2(money.HoursFromMinutes(m.breaks)),
			}
			line.PaidHours = money.Round2(line.RegularHours.Add(line.OvertimeHours.Mul(money.New(15, -1))))
			lines = append(lines, line)

			rate := money.Zero
			if p, ok, err := r.ProfileFor(ctx, orgID, uid, period.EndDate); err != nil {
				return err
			} else if ok {
				rate = p.HourlyRate
			} else {
				logger.C(ctx).Warn().
					Str("user_id", uid).
					Str("run_id", run.ID).
					Msg("no compensation profile effective for user, base pay is zero")
			}

			slip, items := grossToNet(ctx, run.ID, uid, line.PaidHours, rate, components, pol)
			slips = append(slips, slip)
			slipLines[uid] = items

			totalRegular = totalRegular.Add(line.RegularHours)
			totalOvertime = totalOvertime.Add(line.OvertimeHours)
			totalPaid = totalPaid.Add(line.PaidHours)
			totalGross = totalGross.Add(slip.GrossEarnings)
			totalNet = totalNet.Add(slip.NetPay)
		}

		if err := r.ReplaceRunLines(ctx, run.ID, lines); err != nil {
			return err
		}
		if err := r.ReplacePayslips(ctx, run.ID, slips, slipLines); err != nil {
			return err
		}

		run.TotalRegularHours = totalRegular
		run.TotalOvertimeHours = totalOvertime
		run.TotalPaidHours = totalPaid
		run.TotalGross = totalGross
		run.TotalNet = totalNet
		if err := r.UpdateRunTotals(ctx, run); err != nil {
			return err
		}

		now := s.now().UTC()
		rows, err := r.SetRunStatus(ctx, orgID, run.ID, domain.RunDraft, domain.RunCalculated, actorID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return perr.StateConflictf("payroll run left DRAFT concurrently")
		}

		out.Run, err = r.GetRun(ctx, orgID, run.ID)
		if err != nil {
			return err
		}
		out.Lines = lines
		out.Payslips = slips

		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     adomain.ActionPayrollCalculated,
			EntityType: "payroll_run",
			EntityID:   run.ID,
			Payload: map[string]any{
				"users":       len(users),
				"entries":     len(entries),
				"total_gross": totalGross.StringFixed(2),
			},
		})
	})
	return out, err
}

// aggregateMinutes applies the daily split per entry, then the weekly cap
// per user: regular minutes above the weekly threshold shift into overtime
func aggregateMinutes(entries []prepo.PayableEntry, pol pdomain.Policy) map[string]*userMinutes {
	out := map[string]*userMinutes{}
	for _, e := range entries {
		m := out[e.UserID]
		if m == nil {
			m = &userMinutes{}
			out[e.UserID] = m
		}
		net := e.WorkedMinutes - e.BreakMinutes
		if net < 0 {
			net = 0
		}
		regular := net
		if regular > pol.DailyOTThresholdMinutes {
			regular = pol.DailyOTThresholdMinutes
		}
		m.regular += regular
		m.overtime += net - regular
		m.breaks += e.BreakMinutes
	}
	for _, m := range out {
		if m.regular > pol.WeeklyOTThresholdMinutes {
			m.overtime += m.regular - pol.WeeklyOTThresholdMinutes
			m.regular = pol.WeeklyOTThresholdMinutes
		}
	}
	return out
}

// grossToNet runs the contractual step order. Intermediate values keep
// four decimals; persisted totals are rounded to two
func grossToNet(
	ctx context.Context,
	runID, userID string,
	paidHours, hourlyRate money.Decimal,
	components []domain.Component,
	pol pdomain.Policy,
) (domain.Payslip, []domain.PayslipLine) {
	basePay := money.Round4(hourlyRate.Mul(paidHours))

	var items []domain.PayslipLine
	addItem := func(code string, t domain.ComponentType, amount money.Decimal) {
		items = append(items, domain.PayslipLine{
			ComponentCode: code,
			Type:          t,
			Amount:        money.Round2(amount),
		})
	}
	addItem(domain.BasePayCode, domain.ComponentEarning, basePay)

	amountOf := func(c domain.Component, base money.Decimal) money.Decimal {
		switch c.Calc {
		case domain.CalcFixed:
			return c.Value
		case domain.CalcRate:
			return c.Value.Mul(hourlyRate)
		case domain.CalcPercent:
			return money.Percent(base, c.Value)
		}
		return money.Zero
	}

	// step 1: gross earnings
	gross := basePay
	for _, c := range components {
		if c.Type != domain.ComponentEarning {
			continue
		}
		amt := money.Round4(amountOf(c, basePay))
		gross = gross.Add(amt)
		addItem(c.Code, c.Type, amt)
	}
	gross = money.Round4(gross)

	// steps 2 and 5: deductions split by the pre-tax flag
	preTax, postTax := money.Zero, money.Zero
	for _, c := range components {
		if c.Type != domain.ComponentDeduction {
			continue
		}
		amt := money.Round4(amountOf(c, gross))
		if c.PreTax {
			preTax = preTax.Add(amt)
		} else {
			postTax = postTax.Add(amt)
		}
		addItem(c.Code, c.Type, amt)
	}

	// step 3: taxable wages
	taxable := money.Round4(gross.Sub(preTax))

	// step 4: taxes
	taxes := money.Round4(money.Percent(taxable, pol.TaxPercent))
	for _, c := range components {
		if c.Type != domain.ComponentTax {
			continue
		}
		amt := money.Round4(amountOf(c, taxable))
		taxes = taxes.Add(amt)
		addItem(c.Code, c.Type, amt)
	}
	taxes = money.Round4(taxes)

	// step 6: net
	net := money.Round4(gross.Sub(preTax).Sub(taxes).Sub(postTax))

	// steps 7 and 8: employer side
	contrib := money.Zero
	for _, c := range components {
		if c.Type != domain.ComponentEmployerContrib {
			continue
		}
		amt := money.Round4(amountOf(c, gross))
		contrib = contrib.Add(amt)
		addItem(c.Code, c.Type, amt)
	}
	totalCost := money.Round4(gross.Add(contrib))

	slip := domain.Payslip{
		RunID:                runID,
		UserID:               userID,
		GrossEarnings:        money.Round2(gross),
		PreTaxDeductions:     money.Round2(preTax),
		TaxableWages:         money.Round2(taxable),
		TaxesWithheld:        money.Round2(taxes),
		PostTaxDeductions:    money.Round2(postTax),
		NetPay:               money.Round2(net),
		EmployerContribTotal: money.Round2(contrib),
		TotalEmployerCost:    money.Round2(totalCost),
	}

	// rounding drift between the persisted 2dp values is logged, never
	// silently corrected
	recomputed := slip.GrossEarnings.Sub(slip.PreTaxDeductions).Sub(slip.TaxesWithheld).Sub(slip.PostTaxDeductions)
	if !recomputed.Equal(slip.NetPay) {
		logger.C(ctx).Warn().
			Str("user_id", userID).
			Str("run_id", runID).
			Str("net", slip.NetPay.StringFixed(2)).
			Str("recomputed", recomputed.StringFixed(2)).
			Msg("net pay rounding drift")
	}

	return slip, items
}

func (s *Svc) resolvePolicy(ctx context.Context, orgID string) pdomain.Policy {
	if s.policy == nil {
		return pdomain.Defaults()
	}
	pol, err := s.policy.Resolve(ctx, orgID)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("org_id", orgID).Msg("policy resolution failed, using defaults")
		return pdomain.Defaults()
	}
	return pol
}
