package service

import (
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func groupToAPI(g *models.Group) *api.Group {
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Code:      g.Code,
		CreatedAt: g.CreatedAt,
	}
}

func memberToAPI(m *models.Member) *api.Member {
	return &api.Member{
		UserID:   m.UserID,
		Username: m.Username,
		JoinedAt: m.JoinedAt,
	}
}

func expenseToAPI(e *models.ExpenseView) *api.Expense {
	return &api.Expense{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		Payer:       e.Payer,
	}
}
