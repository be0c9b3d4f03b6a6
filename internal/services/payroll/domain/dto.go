package domain

import (
	"time"

	"brigade/internal/platform/money"
)

// CreatePeriodInput opens a new pay period
type CreatePeriodInput struct {
	BranchID  string     `json:"branch_id,omitempty"`
	Type      PeriodType `json:"type"       validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   time.Time  `json:"end_date"   validate:"required"`
}

// SetApprovalInput decides one timesheet approval
type SetApprovalInput struct {
	TimeEntryID string         `json:"time_entry_id" validate:"required"`
	Status      ApprovalStatus `json:"status"        validate:"required"`
}

// CreateComponentInput defines a compensation component
type CreateComponentInput struct {
	BranchID string        `json:"branch_id,omitempty"`
	Code     string        `json:"code"  validate:"required,max=32"`
	Name     string        `json:"name"  validate:"required,max=120"`
	Type     ComponentType `json:"type"  validate:"required"`
	Calc     CalcMethod    `json:"calc"  validate:"required"`
	Value    money.Decimal `json:"value"`
	Taxable  bool          `json:"taxable"`
	PreTax   bool          `json:"pre_tax"`
}

// CreateProfileInput sets a user's compensation window
type CreateProfileInput struct {
	UserID        string        `json:"user_id"        validate:"required"`
	HourlyRate    money.Decimal `json:"hourly_rate"`
	EffectiveFrom time.Time     `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time    `json:"effective_to,omitempty"`
}

// CreateRunInput opens a draft payroll run over a period
type CreateRunInput struct {
	PeriodID string `json:"period_id" validate:"required"`
	BranchID string `json:"branch_id,omitempty"`
}

// RunDetail is a run with its lines and payslips
type RunDetail struct {
	Run      Run       `json:"run"`
	Lines    []RunLine `json:"lines"`
	Payslips []Payslip `json:"payslips"`
}

// MappingInput sets the posting mapping for an org or branch
type MappingInput struct {
	BranchID string `json:"branch_id,omitempty"`

	LaborExpenseAccountID           string `json:"labor_expense_account_id"            validate:"required"`
	WagesPayableAccountID           string `json:"wages_payable_account_id"            validate:"required"`
	TaxesPayableAccountID           string `json:"taxes_payable_account_id"            validate:"required"`
	DeductionsPayableAccountID      string `json:"deductions_payable_account_id"       validate:"required"`
	EmployerContribExpenseAccountID string `json:"employer_contrib_expense_account_id" validate:"required"`
	EmployerContribPayableAccountID string `json:"employer_contrib_payable_account_id" validate:"required"`
	CashAccountID                   string `json:"cash_account_id"                     validate:"required"`
}
