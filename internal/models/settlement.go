package models

import "github.com/shopspring/decimal"

// SettleAction is a terminal operation closing a group's settlement cycle.
type SettleAction string

const (
	// ActionReset clears transactions and payments; the group stays.
	ActionReset SettleAction = "reset"
	// ActionDelete clears everything, detaches all members and removes the group.
	ActionDelete SettleAction = "delete"
)

// ParseSettleAction accepts exactly "reset" or "delete".
func ParseSettleAction(s string) (SettleAction, bool) {
	switch SettleAction(s) {
	case ActionReset, ActionDelete:
		return SettleAction(s), true
	}
	return "", false
}

// Contribution is one member's aggregated payments toward a group.
type Contribution struct {
	MemberID   string
	Name       string
	AmountPaid decimal.Decimal
}

// Ledger is a consistent snapshot of a group's unsettled expenses.
type Ledger struct {
	Group Group

	// Total is the sum of all transaction totals.
	Total decimal.Decimal

	// Contributions has one entry per member, including members who paid nothing.
	Contributions []Contribution
}
