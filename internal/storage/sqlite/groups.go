package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
)

// CreateGroup inserts a group under a fresh join code and adds the creator as
// its first member.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, creatorID string) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := userGroup(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if current != "" {
			return storage.ErrAlreadyInGroup
		}

		code, err := s.unusedCode(ctx, tx)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO groups (id, code, name, description, ledger_version, created_at)
			 VALUES (?, ?, ?, ?, 1, ?)`,
			group.ID, code, group.Name, group.Description, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET group_id = ? WHERE id = ?", group.ID, creatorID,
		); err != nil {
			return fmt.Errorf("failed to add creator to group: %w", err)
		}

		group.Code = code
		group.LedgerVersion = 1
		return nil
	})
}

func (s *SQLiteStore) unusedCode(ctx context.Context, tx *sql.Tx) (int, error) {
	for range maxCodeAttempts {
		code := s.newCode()
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM groups WHERE code = ?)", code,
		).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to check group code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return 0, storage.ErrCodeExhausted
}

const groupColumns = "id, code, name, description, ledger_version, created_at"

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	err := row.Scan(
		&group.ID,
		&group.Code,
		&group.Name,
		&group.Description,
		&group.LedgerVersion,
		&group.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", groupID,
	))
	if err != nil {
		return nil, err
	}
	if err := s.loadMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroupByCode retrieves a group by its join code, including its members.
func (s *SQLiteStore) GetGroupByCode(ctx context.Context, code int) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE code = ?", code,
	))
	if err != nil {
		return nil, err
	}
	if err := s.loadMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, group *models.Group) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE group_id = ? ORDER BY id", group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	group.Members = nil
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return fmt.Errorf("failed to scan group member: %w", err)
		}
		group.Members = append(group.Members, *user)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate group members: %w", err)
	}
	return nil
}

// JoinGroup adds a user who is not yet in any group to groupID.
func (s *SQLiteStore) JoinGroup(ctx context.Context, userID, groupID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := userGroup(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != "" {
			return storage.ErrAlreadyInGroup
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM groups WHERE id = ?)", groupID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check group: %w", err)
		}
		if !exists {
			return storage.ErrGroupNotFound
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET group_id = ? WHERE id = ?", groupID, userID,
		); err != nil {
			return fmt.Errorf("failed to join group: %w", err)
		}
		return nil
	})
}

// LeaveGroup removes the user from their group. The group is deleted along
// with its ledger when its last member leaves. While others remain, a member
// with payments in the unsettled ledger cannot leave: their payments would
// drop out of the balances while the transaction totals still count them.
func (s *SQLiteStore) LeaveGroup(ctx context.Context, userID string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		groupID, err := userGroup(ctx, tx, userID)
		if err != nil {
			return err
		}
		if groupID == "" {
			return storage.ErrNotInGroup
		}

		var others int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE group_id = ? AND id != ?", groupID, userID,
		).Scan(&others); err != nil {
			return fmt.Errorf("failed to count group members: %w", err)
		}

		if others > 0 {
			var paid bool
			if err := tx.QueryRowContext(ctx,
				"SELECT EXISTS (SELECT 1 FROM payments WHERE group_id = ? AND user_id = ?)", groupID, userID,
			).Scan(&paid); err != nil {
				return fmt.Errorf("failed to check payments: %w", err)
			}
			if paid {
				return storage.ErrOutstandingPayments
			}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET group_id = NULL WHERE id = ?", userID,
		); err != nil {
			return fmt.Errorf("failed to leave group: %w", err)
		}
		if others > 0 {
			return nil
		}

		if err := deleteGroupRows(ctx, tx, groupID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ListOrphanGroups returns groups without members, ordered by ID.
func (s *SQLiteStore) ListOrphanGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id FROM groups g
		WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.group_id = g.id)
		ORDER BY g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orphan groups: %w", err)
	}
	return ids, nil
}
