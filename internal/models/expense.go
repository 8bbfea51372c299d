package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in expense views.
const DateLayout = "2006-01-02"

// Expense is a single payment recorded against a group.
type Expense struct {
	ID int64 `db:"id"`

	// Amount is non-negative and carries no currency.
	Amount decimal.Decimal `db:"amount"`

	Category    string `db:"category"`
	Description string `db:"description"`

	// CreatedAt is set once on insert and never changed by updates.
	CreatedAt int64 `db:"created_at"`

	// GroupID and PaidByID are immutable after creation.
	GroupID  int64 `db:"group_id"`
	PaidByID int64 `db:"paid_by_id"`
}

// ExpenseView is an expense joined with its payer's username, as listed
// for a group.
type ExpenseView struct {
	ID          int64
	Amount      decimal.Decimal
	Category    string
	Description string

	// Date is the UTC calendar date of creation in YYYY-MM-DD form.
	Date string

	// Payer is the username of the user who paid.
	Payer string
}

// FormatDate renders a Unix timestamp as a UTC calendar date.
func FormatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(DateLayout)
}

// ExpensePatch describes a partial update. Only fields that are Set are
// written; the rest keep their stored value.
type ExpensePatch struct {
	Amount      Optional[decimal.Decimal]
	Category    Optional[string]
	Description Optional[string]
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return !p.Amount.Set && !p.Category.Set && !p.Description.Set
}

// Apply returns e with the patch applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Amount.Set {
		e.Amount = p.Amount.Value
	}
	if p.Category.Set {
		e.Category = p.Category.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Value
	}
	return e
}
