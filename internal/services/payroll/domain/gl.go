package domain

import (
	"time"

	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/money"
)

// Account is a GL account owned by an org
type Account struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry is one balanced GL entry. Source names the payroll
// operation that wrote it
type JournalEntry struct {
	ID         string        `json:"id"`
	OrgID      string        `json:"org_id"`
	Source     LinkType      `json:"source"`
	Memo       string        `json:"memo,omitempty"`
	Reversed   bool          `json:"reversed"`
	ReversesID string        `json:"reverses_id,omitempty"`
	EntryDate  time.Time     `json:"entry_date"`
	CreatedAt  time.Time     `json:"created_at"`
	Lines      []JournalLine `json:"lines,omitempty"`
}

// JournalLine is one side of a journal entry. Exactly one of Debit and
// Credit is non-zero
type JournalLine struct {
	ID        string         `json:"id"`
	JournalID string         `json:"journal_id"`
	AccountID string         `json:"account_id"`
	Debit     money.Decimal  `json:"debit"`
	Credit    money.Decimal  `json:"credit"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Balanced reports whether debits equal credits across the lines
func Balanced(lines []JournalLine) bool {
	debits, credits := money.Zero, money.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits.Equal(credits)
}

// Flip swaps the debit and credit sides of a line, for reversals
func (l JournalLine) Flip() JournalLine {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}

// PostingMapping names the seven GL accounts payroll posting writes to.
// Scoped to the org with an optional branch override
type PostingMapping struct {
	ID       string `json:"id"`
	OrgID    string `json:"org_id"`
	BranchID string `json:"branch_id,omitempty"`

	LaborExpenseAccountID           string `json:"labor_expense_account_id"`
	WagesPayableAccountID           string `json:"wages_payable_account_id"`
	TaxesPayableAccountID           string `json:"taxes_payable_account_id"`
	DeductionsPayableAccountID      string `json:"deductions_payable_account_id"`
	EmployerContribExpenseAccountID string `json:"employer_contrib_expense_account_id"`
	EmployerContribPayableAccountID string `json:"employer_contrib_payable_account_id"`
	CashAccountID                   string `json:"cash_account_id"`

	CreatedAt time.Time `json:"created_at"`
}

// AccountIDs returns the seven referenced accounts
func (m PostingMapping) AccountIDs() []string {
	return []string{
		m.LaborExpenseAccountID,
		m.WagesPayableAccountID,
		m.TaxesPayableAccountID,
		m.DeductionsPayableAccountID,
		m.EmployerContribExpenseAccountID,
		m.EmployerContribPayableAccountID,
		m.CashAccountID,
	}
}

// Validate rejects a mapping with any empty slot
func (m PostingMapping) Validate() error {
	for _, id := range m.AccountIDs() {
		if id == "" {
			return perr.Validationf("posting mapping must name all seven accounts")
		}
	}
	return nil
}
