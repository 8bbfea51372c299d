// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")

	// ErrInvalidArgument is returned for input the store refuses to persist.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable wraps connectivity and lock-contention failures of the
	// underlying database. Callers may retry.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrCodeSpaceExhausted is returned when no unused join code was found
	// within the retry budget.
	ErrCodeSpaceExhausted = errors.New("join code space exhausted")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts user and populates user.ID.
	// Returns ErrDuplicate if the username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername returns nil, nil when no user has that exact username.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// GroupStore persists groups.
type GroupStore interface {
	// CreateGroup inserts a group with a freshly generated join code and
	// enrolls creatorID as its first member, atomically.
	// Returns ErrNotFound if the creator does not exist.
	CreateGroup(ctx context.Context, name string, creatorID int64) (*models.Group, error)

	// GetGroupByCode returns nil, nil when no group has that exact code.
	GetGroupByCode(ctx context.Context, code string) (*models.Group, error)

	// GetGroupByID returns nil, nil when the group does not exist.
	GetGroupByID(ctx context.Context, id int64) (*models.Group, error)
}

// MembershipStore persists the user/group relation.
type MembershipStore interface {
	// AddMember enrolls userID in groupID. When the pair already exists the
	// stored membership is returned with created set to false.
	AddMember(ctx context.Context, userID, groupID int64) (m *models.Membership, created bool, err error)

	// ListGroupsForUser returns the user's groups in join order.
	// Memberships whose group no longer resolves are skipped.
	ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error)

	// ListMembers returns the members of a group in join order.
	ListMembers(ctx context.Context, groupID int64) ([]*models.Member, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	// AddExpense records an expense and returns its ID.
	// Returns ErrNotFound if the group or the payer does not exist and
	// ErrInvalidArgument for a negative amount.
	AddExpense(ctx context.Context, amount decimal.Decimal, category, description string, groupID, paidByID int64) (int64, error)

	// ListExpenses returns the group's expenses in creation order.
	// An unknown group yields an empty list.
	ListExpenses(ctx context.Context, groupID int64) ([]*models.ExpenseView, error)

	// GetExpense returns nil, nil when the expense does not exist.
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)

	// UpdateExpense writes the fields set in patch.
	// Returns ErrNotFound if the expense does not exist.
	UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) error

	// DeleteExpense removes the expense.
	// Returns ErrNotFound if the expense does not exist.
	DeleteExpense(ctx context.Context, id int64) error
}

// Store defines the full set of ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	MembershipStore
	ExpenseStore

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
