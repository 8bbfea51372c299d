package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// AddMember enrolls a user in a group. Adding an existing member is not an
// error: the stored membership is returned with created=false.
func (s *Store) AddMember(ctx context.Context, userID, groupID int64) (*models.Membership, bool, error) {
	m := &models.Membership{
		UserID:   userID,
		GroupID:  groupID,
		JoinedAt: s.unixNow(),
	}
	created := false

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, s.q(`
			INSERT INTO memberships (user_id, group_id, joined_at)
			VALUES (?, ?, ?)
			ON CONFLICT (user_id, group_id) DO NOTHING
			RETURNING id
		`), userID, groupID, m.JoinedAt).Scan(&m.ID)

		switch {
		case err == nil:
			created = true
			return nil
		case isForeignKeyViolation(err):
			return fmt.Errorf("user %d or group %d: %w", userID, groupID, storage.ErrNotFound)
		case !errors.Is(err, sql.ErrNoRows):
			return wrap("insert membership", err)
		}

		// Nothing inserted: the pair already exists.
		err = tx.GetContext(ctx, m, s.q(`
			SELECT id, user_id, group_id, joined_at
			FROM memberships
			WHERE user_id = ? AND group_id = ?
		`), userID, groupID)
		if err != nil {
			return wrap("get existing membership", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return m, created, nil
}

// ListGroupsForUser returns the groups a user belongs to, in join order.
func (s *Store) ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error) {
	type row struct {
		MembershipID int64          `db:"membership_id"`
		GroupID      int64          `db:"group_id"`
		ID           sql.NullInt64  `db:"id"`
		Name         sql.NullString `db:"name"`
		Code         sql.NullString `db:"code"`
		CreatedAt    sql.NullInt64  `db:"created_at"`
	}

	var rows []row
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT m.id AS membership_id, m.group_id, g.id, g.name, g.code, g.created_at
		FROM memberships m
		LEFT JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = ?
		ORDER BY m.id
	`), userID)
	if err != nil {
		return nil, wrap("list groups for user", err)
	}

	groups := make([]*models.Group, 0, len(rows))
	for _, r := range rows {
		if !r.ID.Valid {
			slog.Debug("Skipping membership with missing group",
				"membership_id", r.MembershipID,
				"group_id", r.GroupID,
				"user_id", userID,
			)
			continue
		}
		groups = append(groups, &models.Group{
			ID:        r.ID.Int64,
			Name:      r.Name.String,
			Code:      r.Code.String,
			CreatedAt: r.CreatedAt.Int64,
		})
	}

	return groups, nil
}

// ListMembers returns a group's members in join order.
func (s *Store) ListMembers(ctx context.Context, groupID int64) ([]*models.Member, error) {
	members := []*models.Member{}
	err := s.db.SelectContext(ctx, &members, s.q(`
		SELECT m.user_id, u.username, m.joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.id
	`), groupID)
	if err != nil {
		return nil, wrap("list members", err)
	}
	return members, nil
}
