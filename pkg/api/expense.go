package api

import "github.com/shopspring/decimal"

type Expense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	// Date is YYYY-MM-DD (UTC).
	Date  string `json:"date"`
	Payer string `json:"payer"`
}

type ListExpensesRequest struct {
	GroupID int64 `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type AddExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	GroupID     int64           `json:"group_id"`
	// PaidByID defaults to the caller when omitted.
	PaidByID *int64 `json:"paid_by_id,omitempty"`
}

type AddExpenseResponse struct {
	ExpenseID int64 `json:"expense_id"`
}

// UpdateExpenseRequest changes only the fields that are present.
type UpdateExpenseRequest struct {
	ExpenseID   int64            `json:"expense_id"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
}

type UpdateExpenseResponse struct{}

type DeleteExpenseRequest struct {
	ExpenseID int64 `json:"expense_id"`
}

type DeleteExpenseResponse struct{}
