package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// memoryUsers is a map-backed UserStorage.
type memoryUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int64
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byName: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byName[user.Username]; ok {
		return storage.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	m.byName[user.Username] = user
	return nil
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.byName[username], nil
}

func TestRegister(t *testing.T) {
	users := newMemoryUsers()
	a := NewPasswordAuthenticator(users, bcrypt.MinCost)
	ctx := context.Background()

	user, err := a.Register(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if user.PasswordHash == "pw1" || user.PasswordHash == "" {
		t.Errorf("password was not hashed: %q", user.PasswordHash)
	}

	if _, err := a.Register(ctx, "alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate Register error = %v, want ErrUsernameTaken", err)
	}

	if _, err := a.Register(ctx, "", "pw"); !errors.Is(err, ErrEmptyUsername) {
		t.Errorf("empty username error = %v, want ErrEmptyUsername", err)
	}
	if _, err := a.Register(ctx, "bob", ""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("empty password error = %v, want ErrEmptyPassword", err)
	}

	// Any non-empty password is accepted.
	if _, err := a.Register(ctx, "carol", "x"); err != nil {
		t.Errorf("short password rejected: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	users := newMemoryUsers()
	a := NewPasswordAuthenticator(users, bcrypt.MinCost)
	ctx := context.Background()

	registered, err := a.Register(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := a.Authenticate(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Authenticate returned user %d, want %d", user.ID, registered.ID)
	}

	_, wrongPassword := a.Authenticate(ctx, "alice", "nope")
	_, unknownUser := a.Authenticate(ctx, "ghost", "pw1")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("errors differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestAuthenticateStorageFailure(t *testing.T) {
	users := newMemoryUsers()
	users.err = storage.ErrUnavailable
	a := NewPasswordAuthenticator(users, bcrypt.MinCost)

	_, err := a.Authenticate(context.Background(), "alice", "pw1")
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("error = %v, want storage.ErrUnavailable", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("storage failure must not look like bad credentials")
	}
}

func TestNewPasswordAuthenticatorCost(t *testing.T) {
	a := NewPasswordAuthenticator(newMemoryUsers(), 99)
	if a.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", a.cost, bcrypt.DefaultCost)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Username: "alice"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Subject != "42" {
		t.Errorf("subject = %q, want 42", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected a token ID")
	}

	other, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if other == token {
		t.Error("two tokens for the same user should differ")
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 1, Username: "alice"}

	t.Run("missing", func(t *testing.T) {
		if _, err := m.Validate(""); !errors.Is(err, ErrMissingToken) {
			t.Errorf("error = %v, want ErrMissingToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := NewJWTManager("other-secret", time.Hour).Generate(user)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		token, _ := NewJWTManager("test-secret", -time.Minute).Generate(user)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("tampered", func(t *testing.T) {
		token, _ := m.Generate(user)
		if _, err := m.Validate(token + "x"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build token: %v", err)
		}
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate(strings.Repeat("a", 40)); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
}
