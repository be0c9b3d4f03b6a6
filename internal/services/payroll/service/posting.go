package service

import (
	"context"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/money"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/payroll/domain"
	prepo "brigade/internal/services/payroll/repo"
)

// slipTotals sums the monetary columns posting needs across payslips
type slipTotals struct {
	gross      money.Decimal
	net        money.Decimal
	taxes      money.Decimal
	deductions money.Decimal
	contrib    money.Decimal
}

func sumPayslips(slips []domain.Payslip) slipTotals {
	t := slipTotals{
		gross: money.Zero, net: money.Zero, taxes: money.Zero,
		deductions: money.Zero, contrib: money.Zero,
	}
	for _, s := range slips {
		t.gross = t.gross.Add(s.GrossEarnings)
		t.net = t.net.Add(s.NetPay)
		t.taxes = t.taxes.Add(s.TaxesWithheld)
		t.deductions = t.deductions.Add(s.PreTaxDeductions).Add(s.PostTaxDeductions)
		t.contrib = t.contrib.Add(s.EmployerContribTotal)
	}
	return t
}

// PostRun writes the accrual journal and flips APPROVED to POSTED.
// An existing ACCRUAL link forbids re-posting
func (s *Svc) PostRun(ctx context.Context, orgID, actorID, runID string) (domain.Run, error) {
	var out domain.Run
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		run, err := r.GetRun(ctx, orgID, runID)
		if err != nil {
			return err
		}
		if run.Status != domain.RunApproved {
			return perr.StateConflictf("payroll run is %s, expected APPROVED", run.Status)
		}
		if _, exists, err := r.LinkOfType(ctx, run.ID, domain.LinkAccrual); err != nil {
			return err
		} else if exists {
			return perr.StateConflictf("payroll run already has an accrual journal")
		}

		mapping, err := s.mappingFor(ctx, r, orgID, run.BranchID)
		if err != nil {
			return err
		}
		slips, err := r.PayslipsForRun(ctx, run.ID)
		if err != nil {
			return err
		}
		if len(slips) == 0 {
			return perr.StateConflictf("payroll run has no payslips")
		}
		totals := sumPayslips(slips)

		b := lineBuilder{runID: run.ID}
		b.debit(mapping.LaborExpenseAccountID, totals.gross, "labor_expense")
		b.debit(mapping.EmployerContribExpenseAccountID, totals.contrib, "employer_contrib_expense")
		b.credit(mapping.WagesPayableAccountID, totals.net, "wages_payable")
		b.credit(mapping.TaxesPayableAccountID, totals.taxes, "taxes_payable")
		b.credit(mapping.DeductionsPayableAccountID, totals.deductions, "deductions_payable")
		b.credit(mapping.EmployerContribPayableAccountID, totals.contrib, "employer_contrib_payable")

		journal, err := s.writeJournal(ctx, r, orgID, domain.LinkAccrual, run.ID, b.lines)
		if err != nil {
			return err
		}

		out, err = s.flip(ctx, r, orgID, actorID, run.ID, domain.RunApproved, domain.RunPosted)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     adomain.ActionPayrollPosted,
			EntityType: "payroll_run",
			EntityID:   run.ID,
			Payload:    map[string]any{"journal_id": journal.ID, "gross": totals.gross.StringFixed(2)},
		})
	})
	return out, err
}

// PayRun writes the payment journal and flips POSTED to PAID.
// An existing PAYMENT link forbids re-paying
func (s *Svc) PayRun(ctx context.Context, orgID, actorID, runID string) (domain.Run, error) {
	var out domain.Run
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		run, err := r.GetRun(ctx, orgID, runID)
		if err != nil {
			return err
		}
		if run.Status != domain.RunPosted {
			return perr.StateConflictf("payroll run is %s, expected POSTED", run.Status)
		}
		if _, exists, err := r.LinkOfType(ctx, run.ID, domain.LinkPayment); err != nil {
			return err
		} else if exists {
			return perr.StateConflictf("payroll run already has a payment journal")
		}

		mapping, err := s.mappingFor(ctx, r, orgID, run.BranchID)
		if err != nil {
			return err
		}
		slips, err := r.PayslipsForRun(ctx, run.ID)
		if err != nil {
			return err
		}
		totals := sumPayslips(slips)

		b := lineBuilder{runID: run.ID}
		b.debit(mapping.WagesPayableAccountID, totals.net, "wages_payable")
		b.credit(mapping.CashAccountID, totals.net, "cash")

		journal, err := s.writeJournal(ctx, r, orgID, domain.LinkPayment, run.ID, b.lines)
		if err != nil {
			return err
		}

		out, err = s.flip(ctx, r, orgID, actorID, run.ID, domain.RunPosted, domain.RunPaid)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     adomain.ActionPayrollPaid,
			EntityType: "payroll_run",
			EntityID:   run.ID,
			Payload:    map[string]any{"journal_id": journal.ID, "net": totals.net.StringFixed(2)},
		})
	})
	return out, err
}

// VoidRun reverses every linked journal and flips the run to VOID
func (s *Svc) VoidRun(ctx context.Context, orgID, actorID, runID string) (domain.Run, error) {
	var out domain.Run
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		run, err := r.GetRun(ctx, orgID, runID)
		if err != nil {
			return err
		}
		if run.Status != domain.RunPosted && run.Status != domain.RunPaid {
			return perr.StateConflictf("payroll run is %s, expected POSTED or PAID", run.Status)
		}

		links, err := r.LinksForRun(ctx, run.ID)
		if err != nil {
			return err
		}
		reversalType := map[domain.LinkType]domain.LinkType{
			domain.LinkAccrual: domain.LinkAccrualReversal,
			domain.LinkPayment: domain.LinkPaymentReversal,
		}
		now := s.now().UTC()
		var reversed []string
		for _, link := range links {
			revType, ok := reversalType[link.Type]
			if !ok {
				continue
			}
			original, err := r.GetJournal(ctx, orgID, link.JournalID)
			if err != nil {
				return err
			}
			flipped := make([]domain.JournalLine, 0, len(original.Lines))
			for _, l := range original.Lines {
				f := l.Flip()
				f.ID = ""
				f.JournalID = ""
				flipped = append(flipped, f)
			}
			reversal, err := r.InsertJournal(ctx, domain.JournalEntry{
				OrgID:      orgID,
				Source:     revType,
				ReversesID: original.ID,
				EntryDate:  now,
				CreatedAt:  now,
				Lines:      flipped,
			})
			if err != nil {
				return err
			}
			if err := r.MarkJournalReversed(ctx, orgID, original.ID); err != nil {
				return err
			}
			if _, err := r.InsertLink(ctx, domain.JournalLink{
				RunID:     run.ID,
				JournalID: reversal.ID,
				Type:      revType,
				CreatedAt: now,
			}); err != nil {
				return err
			}
			reversed = append(reversed, original.ID)
		}

		out, err = s.flip(ctx, r, orgID, actorID, run.ID, run.Status, domain.RunVoid)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     adomain.ActionPayrollVoided,
			EntityType: "payroll_run",
			EntityID:   run.ID,
			Payload:    map[string]any{"reversed_journals": reversed},
		})
	})
	return out, err
}

// lineBuilder accumulates journal lines, dropping zero amounts
type lineBuilder struct {
	runID string
	lines []domain.JournalLine
}

func (b *lineBuilder) add(accountID string, debit, credit money.Decimal, component string) {
	if debit.IsZero() && credit.IsZero() {
		return
	}
	b.lines = append(b.lines, domain.JournalLine{
		AccountID: accountID,
		Debit:     debit,
		Credit:    credit,
		Meta:      map[string]any{"payroll_run_id": b.runID, "component": component},
	})
}

func (b *lineBuilder) debit(accountID string, amt money.Decimal, component string) {
	b.add(accountID, amt, money.Zero, component)
}

func (b *lineBuilder) credit(accountID string, amt money.Decimal, component string) {
	b.add(accountID, money.Zero, amt, component)
}

func (s *Svc) mappingFor(
	ctx context.Context,
	r prepo.Repo,
	orgID, branchID string,
) (domain.PostingMapping, error) {
	mapping, ok, err := r.MappingFor(ctx, orgID, branchID)
	if err != nil {
		return domain.PostingMapping{}, err
	}
	if !ok {
		return domain.PostingMapping{}, perr.NotFoundf("no posting mapping configured")
	}
	if err := mapping.Validate(); err != nil {
		return domain.PostingMapping{}, err
	}
	return mapping, nil
}

// writeJournal validates balance and account ownership, then persists the
// entry and its run link
func (s *Svc) writeJournal(
	ctx context.Context,
	r prepo.Repo,
	orgID string,
	source domain.LinkType,
	runID string,
	lines []domain.JournalLine,
) (domain.JournalEntry, error) {
	if !domain.Balanced(lines) {
		return domain.JournalEntry{}, perr.Internalf("unbalanced %s journal for run %s", source, runID)
	}
	accounts := make([]string, 0, len(lines))
	seen := map[string]struct{}{}
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		accounts = append(accounts, l.AccountID)
	}
	owned, err := r.AccountsOwned(ctx, orgID, accounts)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if owned != len(accounts) {
		return domain.JournalEntry{}, perr.Internalf("journal references accounts outside org %s", orgID)
	}

	now := s.now().UTC()
	journal, err := r.InsertJournal(ctx, domain.JournalEntry{
		OrgID:     orgID,
		Source:    source,
		EntryDate: now,
		CreatedAt: now,
		Lines:     lines,
	})
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if _, err := r.InsertLink(ctx, domain.JournalLink{
		RunID:     runID,
		JournalID: journal.ID,
		Type:      source,
		CreatedAt: now,
	}); err != nil {
		return domain.JournalEntry{}, err
	}
	return journal, nil
}

// flip is the in-transaction update-where-status transition
func (s *Svc) flip(
	ctx context.Context,
	r prepo.Repo,
	orgID, actorID, runID string,
	from, to domain.RunStatus,
) (domain.Run, error) {
	rows, err := r.SetRunStatus(ctx, orgID, runID, from, to, actorID, s.now().UTC())
	if err != nil {
		return domain.Run{}, err
	}
	if rows == 0 {
		return domain.Run{}, perr.StateConflictf("payroll run changed state concurrently")
	}
	return r.GetRun(ctx, orgID, runID)
}
