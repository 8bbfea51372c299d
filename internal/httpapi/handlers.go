package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
}

type groupOut struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type joinResponse struct {
	Message string    `json:"message"`
	Group   *groupOut `json:"group,omitempty"`
}

type expenseOut struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	PaidBy      string      `json:"paid_by"`
}

type memberOut struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// expenseCreate mirrors the frontend payload. Every field is required.
type expenseCreate struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	GroupID     *int64           `json:"group_id"`
	PaidByID    *int64           `json:"paid_by_id"`
}

func (e *expenseCreate) missing() string {
	switch {
	case e.Amount == nil:
		return "amount"
	case e.Category == nil:
		return "category"
	case e.Description == nil:
		return "description"
	case e.GroupID == nil:
		return "group_id"
	case e.PaidByID == nil:
		return "paid_by_id"
	}
	return ""
}

// expenseUpdate holds optional fields; absent and null both leave the
// stored value unchanged.
type expenseUpdate struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
}

func toGroupOut(g *models.Group) *groupOut {
	return &groupOut{ID: g.ID, Name: g.Name, Code: g.Code}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if _, err := s.ledger.Register(r.Context(), req.Username, req.Password); err != nil {
		respondLedgerError(w, r, err, "User not found")
		return
	}
	respondMessage(w, "User created successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := s.ledger.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// Empty fields get the same answer as a wrong password.
		if errors.Is(err, ledger.ErrInvalidArgument) {
			err = ledger.ErrInvalidCredentials
		}
		respondLedgerError(w, r, err, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: session.Token,
		TokenType:   session.TokenType,
		UserID:      session.User.ID,
		Username:    session.User.Username,
	})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !s.authorize(w, r, userID) {
		return
	}

	groups, err := s.ledger.ListGroups(r.Context(), userID)
	if err != nil {
		respondLedgerError(w, r, err, "User not found")
		return
	}

	out := make([]*groupOut, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupOut(g))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !s.authorize(w, r, userID) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	group, err := s.ledger.CreateGroup(r.Context(), userID, req.Name)
	if err != nil {
		respondLedgerError(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, toGroupOut(group))
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !s.authorize(w, r, userID) {
		return
	}

	code := r.URL.Query().Get("code")
	if strings.TrimSpace(code) == "" {
		respondError(w, http.StatusUnprocessableEntity, "missing query parameter code")
		return
	}

	result, err := s.ledger.JoinGroup(r.Context(), userID, code)
	if err != nil {
		respondLedgerError(w, r, err, "Group not found")
		return
	}

	if result.AlreadyMember {
		respondJSON(w, http.StatusOK, joinResponse{Message: "Already a member"})
		return
	}
	respondJSON(w, http.StatusOK, joinResponse{
		Message: "Joined group successfully",
		Group:   toGroupOut(result.Group),
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	views, err := s.ledger.ListExpenses(r.Context(), groupID)
	if err != nil {
		respondLedgerError(w, r, err, "Group not found")
		return
	}

	out := make([]*expenseOut, 0, len(views))
	for _, v := range views {
		out = append(out, &expenseOut{
			ID:          v.ID,
			Amount:      json.Number(v.Amount.String()),
			Category:    v.Category,
			Description: v.Description,
			Date:        v.Date,
			PaidBy:      v.Payer,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	members, err := s.ledger.ListMembers(r.Context(), groupID)
	if err != nil {
		respondLedgerError(w, r, err, "Group not found")
		return
	}

	out := make([]*memberOut, 0, len(members))
	for _, m := range members {
		out = append(out, &memberOut{UserID: m.UserID, Username: m.Username})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if field := req.missing(); field != "" {
		respondError(w, http.StatusUnprocessableEntity, "field required: "+field)
		return
	}

	slog.Info("AddExpense request received",
		"group_id", *req.GroupID,
		"paid_by_id", *req.PaidByID,
		"amount", req.Amount.String(),
	)

	_, err := s.ledger.AddExpense(r.Context(), ledger.NewExpense{
		Amount:      *req.Amount,
		Category:    *req.Category,
		Description: *req.Description,
		GroupID:     *req.GroupID,
		PaidByID:    *req.PaidByID,
	})
	if err != nil {
		respondLedgerError(w, r, err, "Group or payer not found")
		return
	}
	respondMessage(w, "Expense added")
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "expense_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var req expenseUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	patch := models.ExpensePatch{
		Amount:      models.FromPtr(req.Amount),
		Category:    models.FromPtr(req.Category),
		Description: models.FromPtr(req.Description),
	}
	if err := s.ledger.UpdateExpense(r.Context(), id, patch); err != nil {
		respondLedgerError(w, r, err, "Expense not found")
		return
	}
	respondMessage(w, "Expense updated")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "expense_id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		respondLedgerError(w, r, err, "Expense not found")
		return
	}
	respondMessage(w, "Expense deleted")
}

// authorize checks an optional bearer token against the acting user. A
// request without a token passes; a token for someone else is rejected.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, userID int64) bool {
	header := r.Header.Get("Authorization")
	if header == "" || s.opts.JWT == nil {
		return true
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		respondError(w, http.StatusUnauthorized, "Invalid authorization header")
		return false
	}
	claims, err := s.opts.JWT.Validate(strings.TrimSpace(token))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return false
	}
	if claims.UserID != userID {
		slog.Warn("token does not match user_id", "token_user_id", claims.UserID, "user_id", userID)
		respondError(w, http.StatusForbidden, "Not permitted for this user")
		return false
	}
	return true
}
