package models

import "github.com/shopspring/decimal"

// PaymentTypeTransaction marks a payment recorded as part of a transaction.
const PaymentTypeTransaction = "transaction"

// Transaction is a single recorded expense event.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// Name describes the expense (e.g., "Groceries").
	Name string

	// Total is the full amount of the expense. The payments sum to it.
	Total decimal.Decimal

	// Split records whether the expense was entered as an even split.
	Split bool

	// Payments are the contributions that covered Total.
	Payments []Payment

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64
}

// Payment is one member's contribution toward a transaction.
type Payment struct {
	ID            string
	TransactionID string
	GroupID       string
	UserID        string
	Amount        decimal.Decimal
	PaymentType   string
	CreatedAt     int64

	// PayerName is filled on reads for display.
	PayerName string
}
