package calculator

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrEmptyGroup is returned when balances are requested for a group with no members.
var ErrEmptyGroup = errors.New("no members in the group to split the bills")

const (
	// centPlaces is the precision of every externally visible amount.
	centPlaces = 2
	// divisionPlaces is the precision of the unrounded per-person share.
	divisionPlaces = 16
)

var (
	// Epsilon is one cent: remaining amounts at or below it count as settled.
	Epsilon = decimal.New(1, -centPlaces)
	cent    = Epsilon
)

// Contribution is one member's total payments toward the group.
type Contribution struct {
	MemberID   string
	Name       string
	AmountPaid decimal.Decimal
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	Name       string
	AmountPaid decimal.Decimal
	ShouldPay  decimal.Decimal
	Difference decimal.Decimal // Positive = owed money, Negative = owes money
}

// Balances is the result of CalculateBalances.
type Balances struct {
	Total           decimal.Decimal
	PerPersonAmount decimal.Decimal
	Members         []MemberBalance // ordered by MemberID
}

// Round rounds an amount to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(centPlaces)
}

// CalculateBalances splits total evenly across the contributing members and
// returns each member's signed difference from that share.
//
// Algorithm:
//   - members are ordered by ID so results are reproducible
//   - total == 0 short-circuits to an all-zero result before any division
//   - share = total / n, reported rounded to cents
//   - difference = paid - share, computed against the unrounded share and
//     rounded to cents
//   - the cents lost to rounding (at most one per member) are handed back to
//     the members with the largest rounding remainder so the differences sum
//     to exactly zero; a larger residual means the payments do not add up to
//     the total and is left for PlanTransfers to reject
func CalculateBalances(total decimal.Decimal, contributions []Contribution) (*Balances, error) {
	members := make([]Contribution, len(contributions))
	copy(members, contributions)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].MemberID < members[j].MemberID
	})

	result := &Balances{
		Total:           Round(total),
		PerPersonAmount: decimal.Zero,
		Members:         make([]MemberBalance, len(members)),
	}

	if total.IsZero() {
		for i, m := range members {
			result.Members[i] = MemberBalance{
				MemberID:   m.MemberID,
				Name:       m.Name,
				AmountPaid: Round(m.AmountPaid),
				ShouldPay:  decimal.Zero,
				Difference: decimal.Zero,
			}
		}
		return result, nil
	}

	if len(members) == 0 {
		return nil, ErrEmptyGroup
	}

	share := total.DivRound(decimal.NewFromInt(int64(len(members))), divisionPlaces)
	result.PerPersonAmount = Round(share)

	remainders := make([]decimal.Decimal, len(members))
	sum := decimal.Zero
	for i, m := range members {
		paid := Round(m.AmountPaid)
		exact := paid.Sub(share)
		diff := Round(exact)
		remainders[i] = exact.Sub(diff)
		sum = sum.Add(diff)

		result.Members[i] = MemberBalance{
			MemberID:   m.MemberID,
			Name:       m.Name,
			AmountPaid: paid,
			ShouldPay:  result.PerPersonAmount,
			Difference: diff,
		}
	}

	allocateResidual(result.Members, remainders, sum)
	return result, nil
}

// allocateResidual nudges differences by one cent each until they sum to zero.
// It only acts on rounding residue: if more cents are missing than there are
// members, the input itself is unbalanced and is left untouched.
func allocateResidual(members []MemberBalance, remainders []decimal.Decimal, sum decimal.Decimal) {
	cents := sum.Shift(centPlaces).IntPart()
	if cents == 0 || abs(cents) > int64(len(members)) {
		return
	}

	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}

	step := cent
	if cents > 0 {
		// Differences are too high: take a cent from those rounded up the most.
		step = cent.Neg()
		sort.SliceStable(order, func(a, b int) bool {
			return remainders[order[a]].LessThan(remainders[order[b]])
		})
	} else {
		// Differences are too low: give a cent to those rounded down the most.
		sort.SliceStable(order, func(a, b int) bool {
			return remainders[order[a]].GreaterThan(remainders[order[b]])
		})
	}

	for _, idx := range order[:abs(cents)] {
		members[idx].Difference = members[idx].Difference.Add(step)
	}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
