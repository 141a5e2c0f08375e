package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/sharelyst/internal/calculator"
	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
	"github.com/mmynk/sharelyst/pkg/api"
	"github.com/mmynk/sharelyst/pkg/api/apiconnect"
)

var _ apiconnect.TransactionServiceHandler = (*TransactionService)(nil)

// TransactionService implements the Connect TransactionService.
type TransactionService struct {
	store storage.Store
}

// NewTransactionService creates a new TransactionService with the given storage backend.
func NewTransactionService(store storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

// validateTransaction checks the request before anything touches storage.
// Payments may differ from the total by at most one cent.
func validateTransaction(req *api.CreateTransactionRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTransaction)
	}
	if !req.Total.IsPositive() {
		return fmt.Errorf("%w: total must be a positive number", ErrInvalidTransaction)
	}
	if len(req.Payments) == 0 {
		return fmt.Errorf("%w: at least one payment is required", ErrInvalidTransaction)
	}

	sum := decimal.Zero
	for _, p := range req.Payments {
		if p == nil || p.UserID == "" {
			return fmt.Errorf("%w: each payment needs a user", ErrInvalidTransaction)
		}
		if p.Amount.IsNegative() {
			return fmt.Errorf("%w: payment amounts cannot be negative", ErrInvalidTransaction)
		}
		sum = sum.Add(p.Amount)
	}
	if sum.Sub(req.Total).Abs().GreaterThan(calculator.Epsilon) {
		return fmt.Errorf("%w: payment amounts (%s) must equal total (%s)",
			ErrInvalidTransaction, sum.StringFixed(2), req.Total.StringFixed(2))
	}
	return nil
}

// CreateTransaction records an expense in the caller's group.
func (s *TransactionService) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error) {
	groupID, err := callerGroupID(ctx, s.store)
	if err != nil {
		return nil, fail("CreateTransaction", err)
	}
	slog.Info("CreateTransaction request received",
		"group_id", groupID,
		"name", req.Msg.Name,
		"total", req.Msg.Total.StringFixed(2),
		"payments_count", len(req.Msg.Payments),
	)

	if err := validateTransaction(req.Msg); err != nil {
		return nil, fail("CreateTransaction", err, "group_id", groupID)
	}

	txn := &models.Transaction{
		GroupID: groupID,
		Name:    strings.TrimSpace(req.Msg.Name),
		Total:   req.Msg.Total,
		Split:   req.Msg.Split,
	}
	for _, p := range req.Msg.Payments {
		txn.Payments = append(txn.Payments, models.Payment{UserID: p.UserID, Amount: p.Amount})
	}

	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fail("CreateTransaction", err, "group_id", groupID)
	}

	slog.Info("Transaction created", "transaction_id", txn.ID, "group_id", groupID)
	return connect.NewResponse(&api.CreateTransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

// ListTransactions returns the caller's group transactions, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	groupID, err := callerGroupID(ctx, s.store)
	if err != nil {
		return nil, fail("ListTransactions", err)
	}

	txns, err := s.store.ListTransactions(ctx, groupID)
	if err != nil {
		return nil, fail("ListTransactions", err, "group_id", groupID)
	}

	out := make([]*api.Transaction, len(txns))
	for i, t := range txns {
		out[i] = toAPITransaction(t)
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}

// GetTotal returns the sum of the caller's group transactions, zero when the
// caller has no group.
func (s *TransactionService) GetTotal(ctx context.Context, req *connect.Request[api.GetTotalRequest]) (*connect.Response[api.GetTotalResponse], error) {
	groupID, err := callerGroupID(ctx, s.store)
	if errors.Is(err, storage.ErrNotInGroup) {
		return connect.NewResponse(&api.GetTotalResponse{Total: decimal.Zero.StringFixed(2)}), nil
	}
	if err != nil {
		return nil, fail("GetTotal", err)
	}

	total, err := s.store.GroupTotal(ctx, groupID)
	if err != nil {
		return nil, fail("GetTotal", err, "group_id", groupID)
	}
	return connect.NewResponse(&api.GetTotalResponse{Total: total.StringFixed(2)}), nil
}
