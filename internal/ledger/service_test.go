package ledger

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

type recorded struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorded) RecordOperation(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, op+":"+outcome)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *sqlstore.Store) {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authn := auth.NewPasswordAuthenticator(store, bcrypt.MinCost)
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	return NewService(store, authn, tokens, opts...), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", alice.PasswordHash)

	_, err = svc.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = svc.Register(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	session, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, alice.ID, session.User.ID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	_, wrongPassword := svc.Login(ctx, "alice", "nope")
	_, unknownUser := svc.Login(ctx, "mallory", "pw1")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestTripScenario(t *testing.T) {
	rec := &recorded{}
	svc, _ := newTestService(t, WithRecorder(rec))
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	bob, err := svc.Register(ctx, "bob", "pw2")
	require.NoError(t, err)

	trip, err := svc.CreateGroup(ctx, alice.ID, "Trip")
	require.NoError(t, err)
	assert.Len(t, trip.Code, 8)

	joined, err := svc.JoinGroup(ctx, bob.ID, trip.Code)
	require.NoError(t, err)
	assert.False(t, joined.AlreadyMember)
	assert.Equal(t, trip.ID, joined.Group.ID)

	again, err := svc.JoinGroup(ctx, bob.ID, " "+trip.Code+" ")
	require.NoError(t, err)
	assert.True(t, again.AlreadyMember)

	members, err := svc.ListMembers(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)
	assert.Equal(t, "bob", members[1].Username)

	id, err := svc.AddExpense(ctx, NewExpense{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    "Food",
		Description: "dinner",
		GroupID:     trip.ID,
		PaidByID:    bob.ID,
	})
	require.NoError(t, err)

	expenses, err := svc.ListExpenses(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, id, expenses[0].ID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(expenses[0].Amount))
	assert.Equal(t, "Food", expenses[0].Category)
	assert.Equal(t, "dinner", expenses[0].Description)
	assert.Equal(t, "bob", expenses[0].Payer)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), expenses[0].Date)

	require.NoError(t, svc.UpdateExpense(ctx, id, models.ExpensePatch{Category: models.Some("Dining")}))
	expenses, err = svc.ListExpenses(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Dining", expenses[0].Category)
	assert.Equal(t, "dinner", expenses[0].Description)
	assert.True(t, decimal.RequireFromString("12.5").Equal(expenses[0].Amount))

	require.NoError(t, svc.DeleteExpense(ctx, id))
	expenses, err = svc.ListExpenses(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses)

	err = svc.DeleteExpense(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	groups, err := svc.ListGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Trip", groups[0].Name)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Contains(t, rec.seen, "join_group:ok")
	assert.Contains(t, rec.seen, "delete_expense:not_found")
}

func TestJoinGroupErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, alice.ID, "ZZZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.JoinGroup(ctx, alice.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	trip, err := svc.CreateGroup(ctx, alice.ID, "Trip")
	require.NoError(t, err)

	// Codes are matched after upper-casing.
	res, err := svc.JoinGroup(ctx, alice.ID, strings.ToLower(trip.Code))
	require.NoError(t, err)
	assert.True(t, res.AlreadyMember, "creator is already a member")
}

func TestAddExpenseErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	trip, err := svc.CreateGroup(ctx, alice.ID, "Trip")
	require.NoError(t, err)

	_, err = svc.AddExpense(ctx, NewExpense{Amount: decimal.NewFromInt(-1), GroupID: trip.ID, PaidByID: alice.ID})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.AddExpense(ctx, NewExpense{Amount: decimal.NewFromInt(1), GroupID: 9999, PaidByID: alice.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddExpense(ctx, NewExpense{Amount: decimal.NewFromInt(1), GroupID: trip.ID, PaidByID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.UpdateExpense(ctx, 9999, models.ExpensePatch{Category: models.Some("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateGroup(ctx, alice.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.CreateGroup(ctx, 9999, "Ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// slowStore blocks ListExpenses until the context is done.
type slowStore struct {
	storage.Store
}

func (slowStore) ListExpenses(ctx context.Context, _ int64) ([]*models.ExpenseView, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOperationTimeout(t *testing.T) {
	_, store := newTestService(t)
	svc := NewService(slowStore{store}, nil, nil, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := svc.ListExpenses(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPing(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.Ping(context.Background()))
}
