// Package api defines the request and response messages of the sharelyst.v1
// RPC services. Messages travel as JSON; money in responses is a string fixed
// at two decimals, money in requests accepts a JSON number or string.
package api

import "github.com/shopspring/decimal"

// User is a registered member.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Name      string `json:"name"`
	GroupID   string `json:"groupId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest renames the caller. Empty fields keep their value.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UpdateProfileResponse struct {
	User *User `json:"user"`
}

// Group is a group with its members ordered by ID.
type Group struct {
	ID            string  `json:"id"`
	Code          int     `json:"code"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	LedgerVersion int64   `json:"ledgerVersion"`
	Members       []*User `json:"members"`
	CreatedAt     int64   `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type JoinGroupRequest struct {
	Code int `json:"code"`
}

type JoinGroupResponse struct {
	Group *Group `json:"group"`
}

type LeaveGroupRequest struct{}

type LeaveGroupResponse struct {
	GroupDeleted bool `json:"groupDeleted"`
}

type GetMyGroupRequest struct{}

// GetMyGroupResponse carries no group when the caller is not in one.
type GetMyGroupResponse struct {
	Group *Group `json:"group,omitempty"`
}

// PaymentInput is one payer's share of a new transaction.
type PaymentInput struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type CreateTransactionRequest struct {
	Name     string          `json:"name"`
	Total    decimal.Decimal `json:"total"`
	Split    bool            `json:"split"`
	Payments []*PaymentInput `json:"payments"`
}

type Payment struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	PayerName string `json:"payerName"`
	Amount    string `json:"amount"`
}

type Transaction struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Total     string     `json:"total"`
	Split     bool       `json:"split"`
	Payments  []*Payment `json:"payments"`
	CreatedAt int64      `json:"createdAt"`
}

type CreateTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct{}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type GetTotalRequest struct{}

type GetTotalResponse struct {
	Total string `json:"total"`
}

// MemberSummary is one member's position in a settlement.
type MemberSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AmountPaid string `json:"amountPaid"`
	ShouldPay  string `json:"shouldPay"`
	// Difference is positive when the member is owed money. Rounding cents
	// are spread so the column sums to zero, which can leave a row one cent
	// away from AmountPaid - ShouldPay.
	Difference string `json:"difference"`
}

// Transfer is one payment the plan asks a debtor to make.
type Transfer struct {
	FromID string `json:"fromId"`
	From   string `json:"from"`
	ToID   string `json:"toId"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ComputeSettlementRequest struct{}

type ComputeSettlementResponse struct {
	GroupID         string           `json:"groupId"`
	LedgerVersion   int64            `json:"ledgerVersion"`
	Total           string           `json:"total"`
	PerPersonAmount string           `json:"perPersonAmount"`
	UsersSummary    []*MemberSummary `json:"usersSummary"`
	Transactions    []*Transfer      `json:"transactions"`
}

// SettleGroupRequest applies Action ("reset" or "delete") to the caller's
// group. A non-zero ExpectedVersion must match the group's ledger version.
type SettleGroupRequest struct {
	Action          string `json:"action"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type SettleGroupResponse struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}
