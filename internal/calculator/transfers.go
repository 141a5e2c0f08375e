package calculator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Transfer represents a payment from a debtor to a creditor.
type Transfer struct {
	FromID string
	From   string // Person who owes
	ToID   string
	To     string // Person who is owed
	Amount decimal.Decimal
}

// Residual is an amount a member is still owed (positive) or still owes
// (negative) after planning.
type Residual struct {
	MemberID  string
	Name      string
	Remaining decimal.Decimal
}

// UnbalancedLedgerError means the differences handed to PlanTransfers do not
// net to zero, so no plan can settle every member.
type UnbalancedLedgerError struct {
	Residuals []Residual
}

func (e *UnbalancedLedgerError) Error() string {
	parts := make([]string, len(e.Residuals))
	for i, r := range e.Residuals {
		parts[i] = fmt.Sprintf("%s=%s", r.MemberID, r.Remaining.StringFixed(centPlaces))
	}
	return fmt.Sprintf("unbalanced ledger: %d member(s) left unsettled (%s)",
		len(e.Residuals), strings.Join(parts, ", "))
}

type party struct {
	id        string
	name      string
	debtor    bool
	remaining decimal.Decimal
}

// PlanTransfers produces the transfers that bring every member's difference
// to zero. Members are taken in the order given.
//
// Algorithm (greedy debt netting):
//   - debtors have difference < -Epsilon, creditors > +Epsilon; the rest are settled
//   - each debtor pays creditors in order: min(remaining debt, remaining credit)
//     until the debt is at or below Epsilon
//   - a party still above Epsilon afterwards is matched against whatever the
//     other side has left, sub-cent members included, so cents skipped by
//     the first pass are not lost
//   - any party still above Epsilon means the input was not zero-sum and an
//     *UnbalancedLedgerError is returned instead of a plan
func PlanTransfers(members []MemberBalance) ([]Transfer, error) {
	var parties, debtors, creditors []*party
	negEpsilon := Epsilon.Neg()

	for _, m := range members {
		if m.Difference.IsZero() {
			continue
		}
		p := &party{
			id:        m.MemberID,
			name:      m.Name,
			debtor:    m.Difference.IsNegative(),
			remaining: m.Difference.Abs(),
		}
		parties = append(parties, p)

		switch {
		case m.Difference.LessThan(negEpsilon):
			debtors = append(debtors, p)
		case m.Difference.GreaterThan(Epsilon):
			creditors = append(creditors, p)
		}
	}

	transfers := make([]Transfer, 0, len(parties))
	for _, debtor := range debtors {
		for _, creditor := range creditors {
			if debtor.remaining.LessThanOrEqual(Epsilon) {
				break
			}
			if creditor.remaining.LessThanOrEqual(Epsilon) {
				continue
			}
			transfers = appendTransfer(transfers, debtor, creditor)
		}
	}

	transfers = sweepLeftovers(transfers, parties)

	var residuals []Residual
	for _, p := range parties {
		if p.remaining.LessThanOrEqual(Epsilon) {
			continue
		}
		remaining := p.remaining
		if p.debtor {
			remaining = remaining.Neg()
		}
		residuals = append(residuals, Residual{MemberID: p.id, Name: p.name, Remaining: remaining})
	}
	if len(residuals) > 0 {
		return nil, &UnbalancedLedgerError{Residuals: residuals}
	}

	return transfers, nil
}

// sweepLeftovers settles parties left above Epsilon against any amount the
// other side still holds.
func sweepLeftovers(transfers []Transfer, parties []*party) []Transfer {
	for _, p := range parties {
		for _, other := range parties {
			if p.remaining.LessThanOrEqual(Epsilon) {
				break
			}
			if other.debtor == p.debtor || !other.remaining.IsPositive() {
				continue
			}
			if p.debtor {
				transfers = appendTransfer(transfers, p, other)
			} else {
				transfers = appendTransfer(transfers, other, p)
			}
		}
	}
	return transfers
}

func appendTransfer(transfers []Transfer, debtor, creditor *party) []Transfer {
	amount := Round(decimal.Min(debtor.remaining, creditor.remaining))
	if !amount.IsPositive() {
		return transfers
	}

	debtor.remaining = debtor.remaining.Sub(amount)
	creditor.remaining = creditor.remaining.Sub(amount)

	return append(transfers, Transfer{
		FromID: debtor.id,
		From:   debtor.name,
		ToID:   creditor.id,
		To:     creditor.name,
		Amount: amount,
	})
}
