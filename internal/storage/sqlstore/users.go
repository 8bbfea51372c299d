package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateUser inserts a new user into the database and sets user.ID.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = s.unixNow()
	}

	query := s.q(`
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	err := s.db.QueryRowxContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID)

	if isUniqueViolation(err, "users.username") {
		return fmt.Errorf("username %q: %w", user.Username, storage.ErrDuplicate)
	}
	if err != nil {
		return wrap("create user", err)
	}

	return nil
}

// GetUserByUsername retrieves a user by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := s.q(`
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`)

	user := &models.User{}
	err := s.db.GetContext(ctx, user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, wrap("get user by username", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := s.q(`
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = ?
	`)

	user := &models.User{}
	err := s.db.GetContext(ctx, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, wrap("get user by ID", err)
	}

	return user, nil
}

// userExists checks for a user row inside tx.
func (s *Store) userExists(ctx context.Context, tx queryer, id int64) (bool, error) {
	return s.exists(ctx, tx, "users", id)
}

// exists reports whether table has a row with the given id.
func (s *Store) exists(ctx context.Context, tx queryer, table string, id int64) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, s.q("SELECT COUNT(*) FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return false, wrap("look up "+table, err)
	}
	return n > 0, nil
}
