// Package ledger implements the shared-expense ledger operations on top of a
// storage.Store: accounts, groups joined by invite code, and the expenses
// recorded against them.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/joincode"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultTimeout bounds every ledger operation unless overridden.
const DefaultTimeout = 5 * time.Second

// Recorder observes the outcome of ledger operations.
type Recorder interface {
	RecordOperation(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string) {}

// Session is the result of a successful login.
type Session struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      *models.User
}

// JoinResult reports the group joined and whether the caller was already in it.
type JoinResult struct {
	Group         *models.Group
	AlreadyMember bool
}

// NewExpense holds the fields of an expense to be recorded.
type NewExpense struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	GroupID     int64
	PaidByID    int64
}

// Service orchestrates ledger operations.
type Service struct {
	store    storage.Store
	authn    auth.Authenticator
	tokens   *auth.JWTManager
	timeout  time.Duration
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the per-operation deadline. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRecorder registers a Recorder for operation outcomes.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a ledger service.
func NewService(store storage.Store, authn auth.Authenticator, tokens *auth.JWTManager, opts ...Option) *Service {
	s := &Service{
		store:    store,
		authn:    authn,
		tokens:   tokens,
		timeout:  DefaultTimeout,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run executes fn under the operation timeout, translates its error and
// records the outcome.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := translate(fn(ctx))
	s.recorder.RecordOperation(op, outcome(err))
	return err
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	var user *models.User
	err := s.run(ctx, "register", func(ctx context.Context) error {
		var err error
		user, err = s.authn.Register(ctx, username, password)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	var session *Session
	err := s.run(ctx, "login", func(ctx context.Context) error {
		user, err := s.authn.Authenticate(ctx, username, password)
		if err != nil {
			return err
		}
		token, err := s.tokens.Generate(user)
		if err != nil {
			return err
		}
		session = &Session{
			Token:     token,
			TokenType: "bearer",
			ExpiresAt: time.Now().Add(s.tokens.TokenDuration()),
			User:      user,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CreateGroup creates a group and makes creatorID its first member.
func (s *Service) CreateGroup(ctx context.Context, creatorID int64, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	}

	var group *models.Group
	err := s.run(ctx, "create_group", func(ctx context.Context) error {
		var err error
		group, err = s.store.CreateGroup(ctx, name, creatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "creator_id", creatorID)
	return group, nil
}

// ListGroups returns the groups userID belongs to, in join order.
func (s *Service) ListGroups(ctx context.Context, userID int64) ([]*models.Group, error) {
	var groups []*models.Group
	err := s.run(ctx, "list_groups", func(ctx context.Context) error {
		var err error
		groups, err = s.store.ListGroupsForUser(ctx, userID)
		return err
	})
	return groups, err
}

// JoinGroup adds userID to the group with the given invite code. Joining a
// group twice succeeds with AlreadyMember set.
func (s *Service) JoinGroup(ctx context.Context, userID int64, code string) (*JoinResult, error) {
	code = joincode.Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("%w: join code is required", ErrInvalidArgument)
	}

	var result *JoinResult
	err := s.run(ctx, "join_group", func(ctx context.Context) error {
		group, err := s.store.GetGroupByCode(ctx, code)
		if err != nil {
			return err
		}
		if group == nil {
			return fmt.Errorf("group with code %q: %w", code, storage.ErrNotFound)
		}

		_, created, err := s.store.AddMember(ctx, userID, group.ID)
		if err != nil {
			return err
		}
		result = &JoinResult{Group: group, AlreadyMember: !created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Group joined", "group_id", result.Group.ID, "user_id", userID, "already_member", result.AlreadyMember)
	return result, nil
}

// ListMembers returns the members of a group in join order.
func (s *Service) ListMembers(ctx context.Context, groupID int64) ([]*models.Member, error) {
	var members []*models.Member
	err := s.run(ctx, "list_members", func(ctx context.Context) error {
		var err error
		members, err = s.store.ListMembers(ctx, groupID)
		return err
	})
	return members, err
}

// ListExpenses returns a group's expenses, oldest first.
func (s *Service) ListExpenses(ctx context.Context, groupID int64) ([]*models.ExpenseView, error) {
	var views []*models.ExpenseView
	err := s.run(ctx, "list_expenses", func(ctx context.Context) error {
		var err error
		views, err = s.store.ListExpenses(ctx, groupID)
		return err
	})
	return views, err
}

// AddExpense records an expense and returns its ID.
func (s *Service) AddExpense(ctx context.Context, e NewExpense) (int64, error) {
	if e.Amount.IsNegative() {
		return 0, fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	}

	var id int64
	err := s.run(ctx, "add_expense", func(ctx context.Context) error {
		var err error
		id, err = s.store.AddExpense(ctx, e.Amount, e.Category, e.Description, e.GroupID, e.PaidByID)
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Expense added", "expense_id", id, "group_id", e.GroupID, "paid_by_id", e.PaidByID)
	return id, nil
}

// UpdateExpense applies a partial update to an expense.
func (s *Service) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) error {
	if amount, ok := patch.Amount.Get(); ok && amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	}

	return s.run(ctx, "update_expense", func(ctx context.Context) error {
		return s.store.UpdateExpense(ctx, id, patch)
	})
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	err := s.run(ctx, "delete_expense", func(ctx context.Context) error {
		return s.store.DeleteExpense(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("Expense deleted", "expense_id", id)
	return nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return translate(s.store.Ping(ctx))
}
