package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// AddExpense records an expense against a group. Both the group and the payer
// are checked inside the insert transaction.
func (s *Store) AddExpense(ctx context.Context, amount decimal.Decimal, category, description string, groupID, paidByID int64) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative: %w", amount, storage.ErrInvalidArgument)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.exists(ctx, tx, "groups", groupID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("group %d: %w", groupID, storage.ErrNotFound)
		}

		ok, err = s.userExists(ctx, tx, paidByID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("payer %d: %w", paidByID, storage.ErrNotFound)
		}

		err = tx.QueryRowxContext(ctx, s.q(`
			INSERT INTO expenses (amount, category, description, created_at, group_id, paid_by_id)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id
		`), amount, category, description, s.unixNow(), groupID, paidByID).Scan(&id)
		if err != nil {
			return wrap("insert expense", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ListExpenses returns a group's expenses with payer usernames, oldest first.
func (s *Store) ListExpenses(ctx context.Context, groupID int64) ([]*models.ExpenseView, error) {
	type row struct {
		ID          int64           `db:"id"`
		Amount      decimal.Decimal `db:"amount"`
		Category    string          `db:"category"`
		Description string          `db:"description"`
		CreatedAt   int64           `db:"created_at"`
		Payer       string          `db:"payer"`
	}

	var rows []row
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT e.id, e.amount, e.category, e.description, e.created_at, u.username AS payer
		FROM expenses e
		JOIN users u ON u.id = e.paid_by_id
		WHERE e.group_id = ?
		ORDER BY e.id
	`), groupID)
	if err != nil {
		return nil, wrap("list expenses", err)
	}

	views := make([]*models.ExpenseView, 0, len(rows))
	for _, r := range rows {
		views = append(views, &models.ExpenseView{
			ID:          r.ID,
			Amount:      r.Amount,
			Category:    r.Category,
			Description: r.Description,
			Date:        models.FormatDate(r.CreatedAt),
			Payer:       r.Payer,
		})
	}
	return views, nil
}

// GetExpense retrieves an expense by its ID.
func (s *Store) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.GetContext(ctx, expense, s.q(`
		SELECT id, amount, category, description, created_at, group_id, paid_by_id
		FROM expenses
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get expense", err)
	}
	return expense, nil
}

// UpdateExpense writes only the fields present in patch. CreatedAt, GroupID
// and PaidByID are never touched.
func (s *Store) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) error {
	if amount, ok := patch.Amount.Get(); ok && amount.IsNegative() {
		return fmt.Errorf("amount %s is negative: %w", amount, storage.ErrInvalidArgument)
	}

	if patch.IsEmpty() {
		ok, err := s.exists(ctx, s.db, "expenses", id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
		}
		return nil
	}

	var (
		sets []string
		args []any
	)
	if v, ok := patch.Amount.Get(); ok {
		sets = append(sets, "amount = ?")
		args = append(args, v)
	}
	if v, ok := patch.Category.Get(); ok {
		sets = append(sets, "category = ?")
		args = append(args, v)
	}
	if v, ok := patch.Description.Get(); ok {
		sets = append(sets, "description = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := s.q("UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap("update expense", err)
	}

	return expectAffected(result, "expense", id)
}

// DeleteExpense removes an expense permanently.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM expenses WHERE id = ?"), id)
	if err != nil {
		return wrap("delete expense", err)
	}

	return expectAffected(result, "expense", id)
}

func expectAffected(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return wrap("read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, storage.ErrNotFound)
	}
	return nil
}
