// Package settlement turns a group's ledger into a transfer plan and carries
// out the reset and delete actions that close a settlement cycle.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharelyst/internal/calculator"
	"github.com/mmynk/sharelyst/internal/metrics"
	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
)

var (
	// ErrInvalidAction is returned for an action other than "reset" or "delete".
	ErrInvalidAction = errors.New("invalid action: must be \"reset\" or \"delete\"")

	ErrGroupNotFound = storage.ErrGroupNotFound
	ErrEmptyGroup    = calculator.ErrEmptyGroup
	ErrStaleLedger   = storage.ErrStaleLedger
)

// UnbalancedLedgerError is returned when a group's payments do not add up to
// its transaction totals.
type UnbalancedLedgerError = calculator.UnbalancedLedgerError

// Store is the subset of storage the engine needs.
type Store interface {
	LoadLedger(ctx context.Context, groupID string) (*models.Ledger, error)
	ResetGroup(ctx context.Context, groupID string, expectedVersion int64) error
	DeleteGroup(ctx context.Context, groupID string, expectedVersion int64) error
}

// Report is a computed settlement. It is never persisted.
type Report struct {
	GroupID         string
	LedgerVersion   int64
	Total           decimal.Decimal
	PerPersonAmount decimal.Decimal
	Members         []calculator.MemberBalance
	Transfers       []calculator.Transfer
}

// ActionResult describes a completed settle action.
type ActionResult struct {
	GroupID string
	Action  models.SettleAction
	Message string
}

// Engine computes settlements and applies settle actions.
type Engine struct {
	store   Store
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records computations and actions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an Engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeSettlement reads the group's ledger and plans the transfers that
// settle it. Nothing is written.
func (e *Engine) ComputeSettlement(ctx context.Context, groupID string) (*Report, error) {
	ledger, err := e.store.LoadLedger(ctx, groupID)
	if err != nil {
		e.metrics.ObserveComputation(outcomeOf(err), 0)
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	contributions := make([]calculator.Contribution, len(ledger.Contributions))
	for i, c := range ledger.Contributions {
		contributions[i] = calculator.Contribution{
			MemberID:   c.MemberID,
			Name:       c.Name,
			AmountPaid: c.AmountPaid,
		}
	}

	balances, err := calculator.CalculateBalances(ledger.Total, contributions)
	if err != nil {
		e.metrics.ObserveComputation(outcomeOf(err), 0)
		return nil, err
	}

	transfers, err := calculator.PlanTransfers(balances.Members)
	if err != nil {
		e.metrics.ObserveComputation(outcomeOf(err), 0)
		slog.Error("Settlement invariant violated",
			"critical", true,
			"group_id", groupID,
			"ledger_version", ledger.Group.LedgerVersion,
			"total", balances.Total.StringFixed(2),
			"error", err,
		)
		return nil, err
	}

	e.metrics.ObserveComputation(metrics.OutcomeOK, len(transfers))
	slog.Debug("Settlement computed",
		"group_id", groupID,
		"members", len(balances.Members),
		"transfers", len(transfers),
		"total", balances.Total.StringFixed(2),
	)

	return &Report{
		GroupID:         groupID,
		LedgerVersion:   ledger.Group.LedgerVersion,
		Total:           balances.Total,
		PerPersonAmount: balances.PerPersonAmount,
		Members:         balances.Members,
		Transfers:       transfers,
	}, nil
}

// SettleGroup applies "reset" or "delete" to the group. A non-zero
// expectedVersion must equal the ledger version the caller computed against.
func (e *Engine) SettleGroup(ctx context.Context, groupID, action string, expectedVersion int64) (*ActionResult, error) {
	act, ok := models.ParseSettleAction(action)
	if !ok {
		e.metrics.ObserveAction("invalid", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	var err error
	var message string
	switch act {
	case models.ActionReset:
		err = e.store.ResetGroup(ctx, groupID, expectedVersion)
		message = "Group transactions reset successfully"
	case models.ActionDelete:
		err = e.store.DeleteGroup(ctx, groupID, expectedVersion)
		message = "Group deleted successfully"
	}

	e.metrics.ObserveAction(string(act), outcomeOf(err))
	if err != nil {
		return nil, fmt.Errorf("failed to %s group: %w", act, err)
	}

	slog.Info("Group settled", "group_id", groupID, "action", act)
	return &ActionResult{GroupID: groupID, Action: act, Message: message}, nil
}

func outcomeOf(err error) string {
	var unbalanced *UnbalancedLedgerError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrGroupNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrEmptyGroup):
		return metrics.OutcomeEmpty
	case errors.Is(err, ErrStaleLedger):
		return metrics.OutcomeStale
	case errors.As(err, &unbalanced):
		return metrics.OutcomeUnbalanced
	default:
		return metrics.OutcomeError
	}
}
