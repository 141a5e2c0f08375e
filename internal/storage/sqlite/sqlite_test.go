package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, id, first string) *models.User {
	t.Helper()
	user := models.NewUser(first+"@example.com", first, "Tester", "hash")
	user.ID = id
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func createGroup(t *testing.T, store *SQLiteStore, creatorID string, memberIDs ...string) *models.Group {
	t.Helper()
	ctx := context.Background()
	group := &models.Group{Name: "Flat"}
	require.NoError(t, store.CreateGroup(ctx, group, creatorID))
	for _, id := range memberIDs {
		require.NoError(t, store.JoinGroup(ctx, id, group.ID))
	}
	return group
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addTransaction(t *testing.T, store *SQLiteStore, groupID, name, total string, payments map[string]string) *models.Transaction {
	t.Helper()
	txn := &models.Transaction{GroupID: groupID, Name: name, Total: money(total)}
	for userID, amount := range payments {
		txn.Payments = append(txn.Payments, models.Payment{UserID: userID, Amount: money(amount)})
	}
	require.NoError(t, store.CreateTransaction(context.Background(), txn))
	return txn
}

func countRows(t *testing.T, store *SQLiteStore, table, groupID string) int {
	t.Helper()
	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE group_id = ?", groupID).Scan(&n))
	return n
}

func TestMigrate_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, Migrate(dbPath))
	require.NoError(t, Migrate(dbPath))

	version, dirty, err := SchemaVersion(dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "u1", "Alice")

	t.Run("lookup by email is case insensitive", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "  ALICE@example.com ")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, "Alice Tester", got.DisplayName())
		assert.Empty(t, got.GroupID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Other", "Person", "hash")
		assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrEmailExists)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
		_, err = store.GetUserByEmail(ctx, "nope@example.com")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	createUser(t, store, "u3", "Carol")

	group := &models.Group{Name: "Flat", Description: "rent and food"}
	require.NoError(t, store.CreateGroup(ctx, group, "u1"))
	require.NotEmpty(t, group.ID)
	assert.True(t, models.ValidGroupCode(group.Code), "code %d", group.Code)
	assert.Equal(t, int64(1), group.LedgerVersion)

	t.Run("creator is already in a group", func(t *testing.T) {
		err := store.CreateGroup(ctx, &models.Group{Name: "Other"}, "u1")
		assert.ErrorIs(t, err, storage.ErrAlreadyInGroup)
	})

	t.Run("join by code", func(t *testing.T) {
		found, err := store.GetGroupByCode(ctx, group.Code)
		require.NoError(t, err)
		require.NoError(t, store.JoinGroup(ctx, "u3", found.ID))
		require.NoError(t, store.JoinGroup(ctx, "u2", found.ID))

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "rent and food", got.Description)

		ids := make([]string, len(got.Members))
		for i, m := range got.Members {
			ids[i] = m.ID
		}
		assert.Equal(t, []string{"u1", "u2", "u3"}, ids)
	})

	t.Run("join twice", func(t *testing.T) {
		assert.ErrorIs(t, store.JoinGroup(ctx, "u2", group.ID), storage.ErrAlreadyInGroup)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrGroupNotFound)
		_, err = store.GetGroupByCode(ctx, 123456)
		assert.ErrorIs(t, err, storage.ErrGroupNotFound)
	})

	t.Run("last member leaving deletes the group", func(t *testing.T) {
		addTransaction(t, store, group.ID, "Pizza", "30", map[string]string{"u1": "30"})

		deleted, err := store.LeaveGroup(ctx, "u2")
		require.NoError(t, err)
		assert.False(t, deleted)
		deleted, err = store.LeaveGroup(ctx, "u3")
		require.NoError(t, err)
		assert.False(t, deleted)
		deleted, err = store.LeaveGroup(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = store.GetGroup(ctx, group.ID)
		assert.ErrorIs(t, err, storage.ErrGroupNotFound)
		assert.Zero(t, countRows(t, store, "transactions", group.ID))
		assert.Zero(t, countRows(t, store, "payments", group.ID))
	})

	t.Run("leave without a group", func(t *testing.T) {
		_, err := store.LeaveGroup(ctx, "u1")
		assert.ErrorIs(t, err, storage.ErrNotInGroup)
	})
}

func TestCreateGroup_CodeCollisions(t *testing.T) {
	codes := []int{111111, 111111, 222222}
	store := newTestStore(t, WithCodeGenerator(func() int {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}))
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")

	first := &models.Group{Name: "One"}
	require.NoError(t, store.CreateGroup(ctx, first, "u1"))
	assert.Equal(t, 111111, first.Code)

	second := &models.Group{Name: "Two"}
	require.NoError(t, store.CreateGroup(ctx, second, "u2"))
	assert.Equal(t, 222222, second.Code)
}

func TestCreateGroup_CodeExhausted(t *testing.T) {
	store := newTestStore(t, WithCodeGenerator(func() int { return 333333 }))
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")

	require.NoError(t, store.CreateGroup(ctx, &models.Group{Name: "One"}, "u1"))
	err := store.CreateGroup(ctx, &models.Group{Name: "Two"}, "u2")
	assert.ErrorIs(t, err, storage.ErrCodeExhausted)

	user, err := store.GetUserByID(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, user.GroupID)
}

func TestTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	createUser(t, store, "u9", "Mallory")
	group := createGroup(t, store, "u1", "u2")

	first := addTransaction(t, store, group.ID, "Groceries", "20.10", map[string]string{"u1": "20.10"})
	second := addTransaction(t, store, group.ID, "Taxi", "9.90", map[string]string{"u2": "9.90"})

	t.Run("list is newest first with payer names", func(t *testing.T) {
		txns, err := store.ListTransactions(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, second.ID, txns[0].ID)
		assert.Equal(t, first.ID, txns[1].ID)
		require.Len(t, txns[0].Payments, 1)
		assert.Equal(t, "Bob Tester", txns[0].Payments[0].PayerName)
		assert.Equal(t, "9.90", txns[0].Total.StringFixed(2))
		assert.Equal(t, models.PaymentTypeTransaction, txns[0].Payments[0].PaymentType)
	})

	t.Run("total is summed exactly", func(t *testing.T) {
		total, err := store.GroupTotal(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "30.00", total.StringFixed(2))
	})

	t.Run("every transaction bumps the version", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.LedgerVersion)
	})

	t.Run("payer outside the group is rejected atomically", func(t *testing.T) {
		txn := &models.Transaction{
			GroupID: group.ID,
			Name:    "Sneaky",
			Total:   money("10"),
			Payments: []models.Payment{
				{UserID: "u1", Amount: money("5")},
				{UserID: "u9", Amount: money("5")},
			},
		}
		assert.ErrorIs(t, store.CreateTransaction(ctx, txn), storage.ErrNotGroupMember)
		assert.Equal(t, 2, countRows(t, store, "transactions", group.ID))
	})

	t.Run("unknown group", func(t *testing.T) {
		txn := &models.Transaction{GroupID: "missing", Name: "x", Total: money("1")}
		assert.ErrorIs(t, store.CreateTransaction(ctx, txn), storage.ErrGroupNotFound)
	})
}

func TestLoadLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	createUser(t, store, "u3", "Carol")
	group := createGroup(t, store, "u2", "u1", "u3")

	addTransaction(t, store, group.ID, "Dinner", "60", map[string]string{"u1": "40", "u2": "20"})
	addTransaction(t, store, group.ID, "Drinks", "15.50", map[string]string{"u1": "15.50"})

	ledger, err := store.LoadLedger(ctx, group.ID)
	require.NoError(t, err)

	assert.Equal(t, group.ID, ledger.Group.ID)
	assert.Equal(t, int64(3), ledger.Group.LedgerVersion)
	assert.Equal(t, "75.50", ledger.Total.StringFixed(2))

	require.Len(t, ledger.Contributions, 3)
	assert.Equal(t, "u1", ledger.Contributions[0].MemberID)
	assert.Equal(t, "55.50", ledger.Contributions[0].AmountPaid.StringFixed(2))
	assert.Equal(t, "20.00", ledger.Contributions[1].AmountPaid.StringFixed(2))
	assert.Equal(t, "Carol Tester", ledger.Contributions[2].Name)
	assert.True(t, ledger.Contributions[2].AmountPaid.IsZero())

	_, err = store.LoadLedger(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrGroupNotFound)
}

func TestResetGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	group := createGroup(t, store, "u1", "u2")
	addTransaction(t, store, group.ID, "Rent", "1000", map[string]string{"u1": "1000"})

	t.Run("stale version changes nothing", func(t *testing.T) {
		err := store.ResetGroup(ctx, group.ID, 1)
		assert.ErrorIs(t, err, storage.ErrStaleLedger)
		assert.Equal(t, 1, countRows(t, store, "transactions", group.ID))
	})

	t.Run("reset clears the ledger and keeps members", func(t *testing.T) {
		require.NoError(t, store.ResetGroup(ctx, group.ID, 2))
		assert.Zero(t, countRows(t, store, "transactions", group.ID))
		assert.Zero(t, countRows(t, store, "payments", group.ID))

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)
		assert.Equal(t, int64(3), got.LedgerVersion)
	})

	t.Run("second reset is a no-op", func(t *testing.T) {
		require.NoError(t, store.ResetGroup(ctx, group.ID, 0))
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.LedgerVersion)
	})

	t.Run("unknown group", func(t *testing.T) {
		assert.ErrorIs(t, store.ResetGroup(ctx, "missing", 0), storage.ErrGroupNotFound)
	})
}

func TestDeleteGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	group := createGroup(t, store, "u1", "u2")
	addTransaction(t, store, group.ID, "Rent", "1000", map[string]string{"u1": "1000"})

	require.NoError(t, store.DeleteGroup(ctx, group.ID, 0))

	_, err := store.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, storage.ErrGroupNotFound)
	for _, id := range []string{"u1", "u2"} {
		user, err := store.GetUserByID(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, user.GroupID)
	}
	assert.Zero(t, countRows(t, store, "payments", group.ID))

	assert.ErrorIs(t, store.DeleteGroup(ctx, group.ID, 0), storage.ErrGroupNotFound)
}

func TestDeleteGroup_AllOrNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	group := createGroup(t, store, "u1", "u2")
	addTransaction(t, store, group.ID, "Rent", "1000", map[string]string{"u1": "1000"})

	// Make the final statement of the delete fail.
	_, err := store.db.Exec(`
		CREATE TRIGGER block_group_delete BEFORE DELETE ON groups
		BEGIN SELECT RAISE(ABORT, 'blocked'); END
	`)
	require.NoError(t, err)

	require.Error(t, store.DeleteGroup(ctx, group.ID, 0))

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 2)
	assert.Equal(t, 1, countRows(t, store, "transactions", group.ID))
	assert.Equal(t, 1, countRows(t, store, "payments", group.ID))
}

func TestListOrphanGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	kept := createGroup(t, store, "u1")
	orphan := createGroup(t, store, "u2")

	// Detach directly, bypassing LeaveGroup's cleanup.
	_, err := store.db.Exec("UPDATE users SET group_id = NULL WHERE id = 'u2'")
	require.NoError(t, err)

	ids, err := store.ListOrphanGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, ids)
	assert.NotContains(t, ids, kept.ID)
}

func TestLeaveGroup_BlockedWhilePaymentsOutstanding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")
	createUser(t, store, "u2", "Bob")
	createUser(t, store, "u3", "Carol")
	group := createGroup(t, store, "u1", "u2", "u3")
	addTransaction(t, store, group.ID, "Taxi", "30", map[string]string{"u1": "30"})

	_, err := store.LeaveGroup(ctx, "u1")
	require.ErrorIs(t, err, storage.ErrOutstandingPayments)

	user, err := store.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, group.ID, user.GroupID)

	ledger, err := store.LoadLedger(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Contributions, 3)
	assert.Equal(t, "30.00", ledger.Contributions[0].AmountPaid.StringFixed(2))

	// Members who paid nothing can still go.
	deleted, err := store.LeaveGroup(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, deleted)

	// After a reset the payer is free to leave.
	require.NoError(t, store.ResetGroup(ctx, group.ID, 0))
	deleted, err = store.LeaveGroup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUpdateUserName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createUser(t, store, "u1", "Alice")

	user, err := store.UpdateUserName(ctx, "u1", "Alicia", "Keys")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.FirstName)
	assert.Equal(t, "Keys", user.LastName)

	_, err = store.UpdateUserName(ctx, "missing", "A", "B")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
