package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	ledger *ledger.Service
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(l *ledger.Service) *ExpenseService {
	return &ExpenseService{ledger: l}
}

// ListExpenses returns a group's expenses, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}

	views, err := s.ledger.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, 0, len(views))
	for _, v := range views {
		out = append(out, expenseToAPI(v))
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// AddExpense records an expense. The payer defaults to the caller.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	paidBy := userID
	if req.Msg.PaidByID != nil {
		paidBy = *req.Msg.PaidByID
	}
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"paid_by_id", paidBy,
		"amount", req.Msg.Amount.String(),
	)

	id, err := s.ledger.AddExpense(ctx, ledger.NewExpense{
		Amount:      req.Msg.Amount,
		Category:    req.Msg.Category,
		Description: req.Msg.Description,
		GroupID:     req.Msg.GroupID,
		PaidByID:    paidBy,
	})
	if err != nil {
		slog.Warn("AddExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.AddExpenseResponse{ExpenseID: id}), nil
}

// UpdateExpense changes the fields present in the request.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}

	patch := models.ExpensePatch{
		Amount:      models.FromPtr(req.Msg.Amount),
		Category:    models.FromPtr(req.Msg.Category),
		Description: models.FromPtr(req.Msg.Description),
	}
	if err := s.ledger.UpdateExpense(ctx, req.Msg.ExpenseID, patch); err != nil {
		slog.Warn("UpdateExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.UpdateExpenseResponse{}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		slog.Warn("DeleteExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}
