package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
)

// CreateTransaction persists a transaction with its payments and bumps the
// group's ledger version.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}
	for i := range txn.Payments {
		p := &txn.Payments[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.PaymentType == "" {
			p.PaymentType = models.PaymentTypeTransaction
		}
		p.TransactionID = txn.ID
		p.GroupID = txn.GroupID
		p.CreatedAt = txn.CreatedAt
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := checkVersion(ctx, tx, txn.GroupID, 0); err != nil {
			return err
		}

		for _, p := range txn.Payments {
			groupID, err := userGroup(ctx, tx, p.UserID)
			if err != nil {
				return err
			}
			if groupID != txn.GroupID {
				return fmt.Errorf("%w: %s", storage.ErrNotGroupMember, p.UserID)
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, group_id, name, total, split, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.GroupID, txn.Name, txn.Total, txn.Split, txn.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		for _, p := range txn.Payments {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO payments (id, transaction_id, group_id, user_id, amount, payment_type, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.TransactionID, p.GroupID, p.UserID, p.Amount, p.PaymentType, p.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert payment: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE groups SET ledger_version = ledger_version + 1 WHERE id = ?", txn.GroupID,
		); err != nil {
			return fmt.Errorf("failed to bump ledger version: %w", err)
		}
		return nil
	})
}

// ListTransactions retrieves a group's transactions, newest first, with
// their payments in insertion order.
func (s *SQLiteStore) ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, group_id, name, total, split, created_at
			FROM transactions
			WHERE group_id = ?
			ORDER BY created_at DESC, rowid DESC
		`, groupID)
		if err != nil {
			return fmt.Errorf("failed to get transactions: %w", err)
		}
		defer rows.Close()

		byID := make(map[string]*models.Transaction)
		for rows.Next() {
			t := &models.Transaction{}
			if err := rows.Scan(&t.ID, &t.GroupID, &t.Name, &t.Total, &t.Split, &t.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan transaction: %w", err)
			}
			txns = append(txns, t)
			byID[t.ID] = t
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate transactions: %w", err)
		}

		payRows, err := tx.QueryContext(ctx, `
			SELECT p.id, p.transaction_id, p.group_id, p.user_id, p.amount, p.payment_type,
			       p.created_at, u.first_name, u.last_name
			FROM payments p
			JOIN users u ON u.id = p.user_id
			WHERE p.group_id = ?
			ORDER BY p.rowid
		`, groupID)
		if err != nil {
			return fmt.Errorf("failed to get payments: %w", err)
		}
		defer payRows.Close()

		for payRows.Next() {
			var p models.Payment
			var first, last string
			if err := payRows.Scan(
				&p.ID, &p.TransactionID, &p.GroupID, &p.UserID, &p.Amount,
				&p.PaymentType, &p.CreatedAt, &first, &last,
			); err != nil {
				return fmt.Errorf("failed to scan payment: %w", err)
			}
			p.PayerName = (&models.User{FirstName: first, LastName: last}).DisplayName()
			if t, ok := byID[p.TransactionID]; ok {
				t.Payments = append(t.Payments, p)
			}
		}
		if err := payRows.Err(); err != nil {
			return fmt.Errorf("failed to iterate payments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// GroupTotal returns the sum of the group's transaction totals.
func (s *SQLiteStore) GroupTotal(ctx context.Context, groupID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		total, err = sumTotals(ctx, tx, groupID)
		return err
	})
	return total, err
}

// sumTotals adds transaction totals in Go so money never passes through
// SQLite's floating point SUM.
func sumTotals(ctx context.Context, tx *sql.Tx, groupID string) (decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx, "SELECT total FROM transactions WHERE group_id = ?", groupID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get transaction totals: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan transaction total: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate transaction totals: %w", err)
	}
	return total, nil
}
