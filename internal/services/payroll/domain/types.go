// Package domain holds payroll types: periods, approvals, components,
// profiles, runs and the general ledger shapes posting writes to
package domain

import (
	"time"

	"brigade/internal/platform/money"
)

// PeriodType is the pay period cadence
type PeriodType string

// Period cadences
const (
	PeriodWeekly   PeriodType = "WEEKLY"
	PeriodBiweekly PeriodType = "BIWEEKLY"
	PeriodMonthly  PeriodType = "MONTHLY"
)

// Valid reports whether t is a recognized cadence
func (t PeriodType) Valid() bool {
	switch t {
	case PeriodWeekly, PeriodBiweekly, PeriodMonthly:
		return true
	}
	return false
}

// PeriodStatus is the pay period lifecycle state
type PeriodStatus string

// Period statuses. Closing locks contained timesheet approvals
const (
	PeriodOpen     PeriodStatus = "OPEN"
	PeriodClosed   PeriodStatus = "CLOSED"
	PeriodExported PeriodStatus = "EXPORTED"
)

// PayPeriod is a closed interval payroll is computed over
type PayPeriod struct {
	ID        string       `json:"id"`
	OrgID     string       `json:"org_id"`
	BranchID  string       `json:"branch_id,omitempty"`
	Type      PeriodType   `json:"type"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	ClosedBy  string       `json:"closed_by,omitempty"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// ApprovalStatus is the timesheet approval state
type ApprovalStatus string

// Approval statuses
const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// TimesheetApproval is one-to-one with a time entry. A locked approval
// rejects further mutation
type TimesheetApproval struct {
	ID          string         `json:"id"`
	OrgID       string         `json:"org_id"`
	TimeEntryID string         `json:"time_entry_id"`
	UserID      string         `json:"user_id"`
	Status      ApprovalStatus `json:"status"`
	DecidedBy   string         `json:"decided_by,omitempty"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
	LockedAt    *time.Time     `json:"locked_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Locked reports whether the approval was frozen by a pay period close
func (a TimesheetApproval) Locked() bool { return a.LockedAt != nil }

// ComponentType classifies a compensation component
type ComponentType string

// Component types
const (
	ComponentEarning         ComponentType = "EARNING"
	ComponentDeduction       ComponentType = "DEDUCTION"
	ComponentEmployerContrib ComponentType = "EMPLOYER_CONTRIB"
	ComponentTax             ComponentType = "TAX"
)

// Valid reports whether t is a recognized component type
func (t ComponentType) Valid() bool {
	switch t {
	case ComponentEarning, ComponentDeduction, ComponentEmployerContrib, ComponentTax:
		return true
	}
	return false
}

// CalcMethod is how a component's amount is derived
type CalcMethod string

// Calc methods. FIXED contributes its value, RATE contributes
// value times the hourly rate, PERCENT contributes value percent of its base
const (
	CalcFixed   CalcMethod = "FIXED"
	CalcRate    CalcMethod = "RATE"
	CalcPercent CalcMethod = "PERCENT"
)

// Valid reports whether m is a recognized calc method
func (m CalcMethod) Valid() bool {
	switch m {
	case CalcFixed, CalcRate, CalcPercent:
		return true
	}
	return false
}

// Component is one compensation component, org-wide or branch-scoped
type Component struct {
	ID        string        `json:"id"`
	OrgID     string        `json:"org_id"`
	BranchID  string        `json:"branch_id,omitempty"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	Type      ComponentType `json:"type"`
	Calc      CalcMethod    `json:"calc"`
	Value     money.Decimal `json:"value"`
	Taxable   bool          `json:"taxable"`
	PreTax    bool          `json:"pre_tax"`
	Enabled   bool          `json:"enabled"`
	CreatedAt time.Time     `json:"created_at"`
}

// Profile is a user's effective compensation configuration. Exactly one
// profile is effective on any given date
type Profile struct {
	ID            string        `json:"id"`
	OrgID         string        `json:"org_id"`
	UserID        string        `json:"user_id"`
	HourlyRate    money.Decimal `json:"hourly_rate"`
	EffectiveFrom time.Time     `json:"effective_from"`
	EffectiveTo   *time.Time    `json:"effective_to,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// EffectiveOn reports whether the profile covers the date
func (p Profile) EffectiveOn(date time.Time) bool {
	if date.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || !date.After(*p.EffectiveTo)
}

// RunStatus is the payroll run lifecycle state
type RunStatus string

// Run statuses
const (
	RunDraft      RunStatus = "DRAFT"
	RunCalculated RunStatus = "CALCULATED"
	RunApproved   RunStatus = "APPROVED"
	RunPosted     RunStatus = "POSTED"
	RunPaid       RunStatus = "PAID"
	RunVoid       RunStatus = "VOID"
)

// Run is one payroll computation over a pay period
type Run struct {
	ID       string    `json:"id"`
	OrgID    string    `json:"org_id"`
	BranchID string    `json:"branch_id,omitempty"`
	PeriodID string    `json:"period_id"`
	Status   RunStatus `json:"status"`

	TotalRegularHours  money.Decimal `json:"total_regular_hours"`
	TotalOvertimeHours money.Decimal `json:"total_overtime_hours"`
	TotalPaidHours     money.Decimal `json:"total_paid_hours"`
	TotalGross         money.Decimal `json:"total_gross"`
	TotalNet           money.Decimal `json:"total_net"`

	CalculatedBy string     `json:"calculated_by,omitempty"`
	CalculatedAt *time.Time `json:"calculated_at,omitempty"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	PostedBy     string     `json:"posted_by,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	PaidBy       string     `json:"paid_by,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	VoidedBy     string     `json:"voided_by,omitempty"`
	VoidedAt     *time.Time `json:"voided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RunLine is one user's hours on a run, 2-decimal fixed point
type RunLine struct {
	ID            string        `json:"id"`
	RunID         string        `json:"run_id"`
	UserID        string        `json:"user_id"`
	RegularHours  money.Decimal `json:"regular_hours"`
	OvertimeHours money.Decimal `json:"overtime_hours"`
	BreakHours    money.Decimal `json:"break_hours"`
	PaidHours     money.Decimal `json:"paid_hours"`
}

// Payslip is one user's gross-to-net result on a run
type Payslip struct {
	ID                   string        `json:"id"`
	RunID                string        `json:"run_id"`
	UserID               string        `json:"user_id"`
	GrossEarnings        money.Decimal `json:"gross_earnings"`
	PreTaxDeductions     money.Decimal `json:"pre_tax_deductions"`
	TaxableWages         money.Decimal `json:"taxable_wages"`
	TaxesWithheld        money.Decimal `json:"taxes_withheld"`
	PostTaxDeductions    money.Decimal `json:"post_tax_deductions"`
	NetPay               money.Decimal `json:"net_pay"`
	EmployerContribTotal money.Decimal `json:"employer_contrib_total"`
	TotalEmployerCost    money.Decimal `json:"total_employer_cost"`
}

// BasePayCode labels the rate-times-hours line on a payslip
const BasePayCode = "BASE_PAY"

// PayslipLine itemizes one component's contribution
type PayslipLine struct {
	ID            string        `json:"id"`
	PayslipID     string        `json:"payslip_id"`
	ComponentCode string        `json:"component_code"`
	Type          ComponentType `json:"type"`
	Amount        money.Decimal `json:"amount"`
}

// LinkType classifies a journal link on a run
type LinkType string

// Journal link types
const (
	LinkAccrual         LinkType = "ACCRUAL"
	LinkPayment         LinkType = "PAYMENT"
	LinkAccrualReversal LinkType = "ACCRUAL_REVERSAL"
	LinkPaymentReversal LinkType = "PAYMENT_REVERSAL"
)

// JournalLink ties a run to a GL journal entry
type JournalLink struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	JournalID string    `json:"journal_id"`
	Type      LinkType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
