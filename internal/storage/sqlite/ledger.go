package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharelyst/internal/models"
)

// LoadLedger snapshots a group's total and per-member payments. Members who
// paid nothing are included with a zero contribution. Payments are attributed
// through current membership; LeaveGroup keeps payers in place until a reset.
func (s *SQLiteStore) LoadLedger(ctx context.Context, groupID string) (*models.Ledger, error) {
	ledger := &models.Ledger{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		group, err := scanGroup(tx.QueryRowContext(ctx,
			"SELECT "+groupColumns+" FROM groups WHERE id = ?", groupID,
		))
		if err != nil {
			return err
		}
		ledger.Group = *group

		ledger.Total, err = sumTotals(ctx, tx, groupID)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT u.id, u.first_name, u.last_name, p.amount
			FROM users u
			LEFT JOIN payments p ON p.user_id = u.id AND p.group_id = u.group_id
			WHERE u.group_id = ?
			ORDER BY u.id
		`, groupID)
		if err != nil {
			return fmt.Errorf("failed to get member payments: %w", err)
		}
		defer rows.Close()

		index := make(map[string]int)
		for rows.Next() {
			var id, first, last string
			var amount decimal.NullDecimal
			if err := rows.Scan(&id, &first, &last, &amount); err != nil {
				return fmt.Errorf("failed to scan member payment: %w", err)
			}

			i, ok := index[id]
			if !ok {
				i = len(ledger.Contributions)
				index[id] = i
				ledger.Contributions = append(ledger.Contributions, models.Contribution{
					MemberID:   id,
					Name:       (&models.User{FirstName: first, LastName: last}).DisplayName(),
					AmountPaid: decimal.Zero,
				})
			}
			if amount.Valid {
				c := &ledger.Contributions[i]
				c.AmountPaid = c.AmountPaid.Add(amount.Decimal)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate member payments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// ResetGroup clears the group's transactions and payments. The ledger
// version only moves when something was actually removed, so resetting an
// empty ledger changes nothing.
func (s *SQLiteStore) ResetGroup(ctx context.Context, groupID string, expectedVersion int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := checkVersion(ctx, tx, groupID, expectedVersion); err != nil {
			return err
		}

		removed, err := deleteLedgerRows(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE groups SET ledger_version = ledger_version + 1 WHERE id = ?", groupID,
		); err != nil {
			return fmt.Errorf("failed to bump ledger version: %w", err)
		}
		return nil
	})
}

// DeleteGroup clears the ledger, detaches all members and removes the group.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string, expectedVersion int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := checkVersion(ctx, tx, groupID, expectedVersion); err != nil {
			return err
		}
		return deleteGroupRows(ctx, tx, groupID)
	})
}

// deleteLedgerRows removes payments before transactions and reports how
// many rows went in total.
func deleteLedgerRows(ctx context.Context, tx *sql.Tx, groupID string) (int64, error) {
	var removed int64
	for _, stmt := range []struct{ query, what string }{
		{"DELETE FROM payments WHERE group_id = ?", "payments"},
		{"DELETE FROM transactions WHERE group_id = ?", "transactions"},
	} {
		res, err := tx.ExecContext(ctx, stmt.query, groupID)
		if err != nil {
			return 0, fmt.Errorf("failed to delete %s: %w", stmt.what, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count deleted %s: %w", stmt.what, err)
		}
		removed += n
	}
	return removed, nil
}

func deleteGroupRows(ctx context.Context, tx *sql.Tx, groupID string) error {
	if _, err := deleteLedgerRows(ctx, tx, groupID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET group_id = NULL WHERE group_id = ?", groupID,
	); err != nil {
		return fmt.Errorf("failed to detach members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}
