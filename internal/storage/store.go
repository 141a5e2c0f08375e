// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharelyst/internal/models"
)

var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already registered")
	ErrAlreadyInGroup      = errors.New("user is already in a group")
	ErrNotInGroup          = errors.New("user is not in any group")
	ErrNotGroupMember      = errors.New("user is not a member of the group")
	ErrOutstandingPayments = errors.New("user has payments in the group's unsettled ledger")
	ErrCodeExhausted       = errors.New("unable to generate a unique group code")
	ErrStaleLedger         = errors.New("group ledger changed since the settlement was computed")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrEmailExists on a duplicate email.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrUserNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUserName changes the user's first and last name and returns the
	// updated user.
	UpdateUserName(ctx context.Context, id, firstName, lastName string) (*models.User, error)
}

// GroupStore manages groups and membership.
type GroupStore interface {
	// CreateGroup assigns a unique 6-digit code, inserts the group and makes
	// creatorID its first member. The group's ID, Code and CreatedAt are populated.
	CreateGroup(ctx context.Context, group *models.Group, creatorID string) error

	// GetGroup returns the group with its members ordered by user ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetGroupByCode looks a group up by its join code.
	GetGroupByCode(ctx context.Context, code int) (*models.Group, error)

	// JoinGroup affiliates userID with groupID.
	JoinGroup(ctx context.Context, userID, groupID string) error

	// LeaveGroup clears userID's affiliation and deletes the group if it is
	// left without members. Reports whether the group was deleted. Returns
	// ErrOutstandingPayments if other members remain and userID has payments
	// in the group's ledger.
	LeaveGroup(ctx context.Context, userID string) (groupDeleted bool, err error)

	// ListOrphanGroups returns the IDs of groups that have no members.
	ListOrphanGroups(ctx context.Context) ([]string, error)
}

// TransactionStore records expenses.
type TransactionStore interface {
	// CreateTransaction inserts the transaction and all its payments atomically
	// and bumps the group's ledger version. Every payer must be a group member.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// ListTransactions returns the group's transactions newest first, with payments.
	ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error)

	// GroupTotal sums the totals of the group's transactions.
	GroupTotal(ctx context.Context, groupID string) (decimal.Decimal, error)
}

// LedgerStore serves the settlement engine.
type LedgerStore interface {
	// LoadLedger reads the group, its total and every member's payments in a
	// single transaction. Returns ErrGroupNotFound for an unknown group.
	LoadLedger(ctx context.Context, groupID string) (*models.Ledger, error)

	// ResetGroup deletes the group's payments and transactions atomically.
	// A non-zero expectedVersion must match the group's ledger version or
	// ErrStaleLedger is returned and nothing changes.
	ResetGroup(ctx context.Context, groupID string, expectedVersion int64) error

	// DeleteGroup performs ResetGroup's deletions, detaches every member and
	// removes the group, all in one transaction.
	DeleteGroup(ctx context.Context, groupID string, expectedVersion int64) error
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	TransactionStore
	LedgerStore

	// Close releases any resources held by the store.
	Close() error
}
