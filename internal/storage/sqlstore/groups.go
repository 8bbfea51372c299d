package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var errCodeTaken = errors.New("join code taken")

// CreateGroup persists a new group under a fresh join code and enrolls the
// creator in the same transaction. A code collision rolls back and retries
// with a new code.
func (s *Store) CreateGroup(ctx context.Context, name string, creatorID int64) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("group name is empty: %w", storage.ErrInvalidArgument)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}

		group, err := s.createGroupWithCode(ctx, name, code, creatorID)
		if errors.Is(err, errCodeTaken) {
			slog.Debug("Join code collision, retrying", "attempt", attempt)
			s.onCollision()
			continue
		}
		if err != nil {
			return nil, err
		}
		return group, nil
	}

	return nil, fmt.Errorf("no free code after %d attempts: %w", maxCodeAttempts, storage.ErrCodeSpaceExhausted)
}

func (s *Store) createGroupWithCode(ctx context.Context, name, code string, creatorID int64) (*models.Group, error) {
	group := &models.Group{
		Name:      name,
		Code:      code,
		CreatedAt: s.unixNow(),
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.userExists(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("creator %d: %w", creatorID, storage.ErrNotFound)
		}

		err = tx.QueryRowxContext(ctx,
			s.q("INSERT INTO groups (name, code, created_at) VALUES (?, ?, ?) RETURNING id"),
			group.Name, group.Code, group.CreatedAt,
		).Scan(&group.ID)
		if isUniqueViolation(err, "groups.code") {
			return errCodeTaken
		}
		if err != nil {
			return wrap("insert group", err)
		}

		_, err = tx.ExecContext(ctx,
			s.q("INSERT INTO memberships (user_id, group_id, joined_at) VALUES (?, ?, ?)"),
			creatorID, group.ID, group.CreatedAt,
		)
		if err != nil {
			return wrap("insert creator membership", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// GetGroupByCode retrieves a group by its exact join code.
func (s *Store) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	return s.getGroup(ctx, "code", code)
}

// GetGroupByID retrieves a group by its ID.
func (s *Store) GetGroupByID(ctx context.Context, id int64) (*models.Group, error) {
	return s.getGroup(ctx, "id", id)
}

func (s *Store) getGroup(ctx context.Context, column string, value any) (*models.Group, error) {
	query := s.q("SELECT id, name, code, created_at FROM groups WHERE " + column + " = ?")

	group := &models.Group{}
	err := s.db.GetContext(ctx, group, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get group by "+column, err)
	}
	return group, nil
}
