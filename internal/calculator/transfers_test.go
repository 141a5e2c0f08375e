package calculator

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancesOf(pairs ...string) []MemberBalance {
	var out []MemberBalance
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, MemberBalance{MemberID: pairs[i], Name: pairs[i], Difference: d(pairs[i+1])})
	}
	return out
}

type edge struct {
	From, To, Amount string
}

func edges(transfers []Transfer) []edge {
	out := make([]edge, len(transfers))
	for i, tr := range transfers {
		out[i] = edge{From: tr.FromID, To: tr.ToID, Amount: tr.Amount.StringFixed(2)}
	}
	return out
}

// replay applies transfers to the original differences and returns what is left.
func replay(members []MemberBalance, transfers []Transfer) map[string]decimal.Decimal {
	left := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		left[m.MemberID] = m.Difference
	}
	for _, tr := range transfers {
		left[tr.FromID] = left[tr.FromID].Add(tr.Amount)
		left[tr.ToID] = left[tr.ToID].Sub(tr.Amount)
	}
	return left
}

func TestPlanTransfers(t *testing.T) {
	tests := []struct {
		name    string
		members []MemberBalance
		want    []edge
	}{
		{
			name:    "two debtors pay one creditor",
			members: balancesOf("A", "20", "B", "-10", "C", "-10"),
			want:    []edge{{"B", "A", "10.00"}, {"C", "A", "10.00"}},
		},
		{
			name:    "everyone settled",
			members: balancesOf("A", "0", "B", "0"),
			want:    []edge{},
		},
		{
			name:    "three debtors pay one creditor",
			members: balancesOf("A", "75", "B", "-25", "C", "-25", "D", "-25"),
			want:    []edge{{"B", "A", "25.00"}, {"C", "A", "25.00"}, {"D", "A", "25.00"}},
		},
		{
			name:    "one debtor spread across creditors",
			members: balancesOf("A", "30", "B", "20", "C", "-50"),
			want:    []edge{{"C", "A", "30.00"}, {"C", "B", "20.00"}},
		},
		{
			name:    "debts crossing creditors",
			members: balancesOf("A", "15", "B", "-10", "C", "25", "D", "-30"),
			want:    []edge{{"B", "A", "10.00"}, {"D", "A", "5.00"}, {"D", "C", "25.00"}},
		},
		{
			name:    "single member",
			members: balancesOf("A", "0"),
			want:    []edge{},
		},
		{
			name:    "sub-cent differences are left alone",
			members: balancesOf("A", "0.01", "B", "-0.01"),
			want:    []edge{},
		},
		{
			name:    "cents left on partly paid creditors are collected",
			members: balancesOf("A", "50.01", "B", "50.01", "C", "-50", "D", "-50", "E", "-0.02"),
			want:    []edge{{"C", "A", "50.00"}, {"D", "B", "50.00"}, {"E", "A", "0.01"}},
		},
		{
			name:    "cents gathered from sub-cent members",
			members: balancesOf("A", "0.02", "B", "-0.01", "C", "-0.01"),
			want:    []edge{{"B", "A", "0.01"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanTransfers(tt.members)
			require.NoError(t, err)
			assert.Equal(t, tt.want, edges(got))

			for id, left := range replay(tt.members, got) {
				assert.True(t, left.Abs().LessThanOrEqual(Epsilon), "%s left with %s", id, left)
			}
		})
	}
}

func TestPlanTransfers_Unbalanced(t *testing.T) {
	_, err := PlanTransfers(balancesOf("A", "20", "B", "-10", "C", "-20"))
	require.Error(t, err)

	var unbalanced *UnbalancedLedgerError
	require.True(t, errors.As(err, &unbalanced))
	require.Len(t, unbalanced.Residuals, 1)
	assert.Equal(t, "C", unbalanced.Residuals[0].MemberID)
	assert.Equal(t, "-10.00", unbalanced.Residuals[0].Remaining.StringFixed(2))
	assert.Contains(t, err.Error(), "C=-10.00")
}

func TestPlanTransfers_Deterministic(t *testing.T) {
	members := balancesOf("A", "12.34", "B", "-3.21", "C", "40.00", "D", "-49.13")

	first, err := PlanTransfers(members)
	require.NoError(t, err)
	second, err := PlanTransfers(members)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPlanTransfers_DoesNotMutateInput(t *testing.T) {
	members := balancesOf("A", "20", "B", "-10", "C", "-10")
	_, err := PlanTransfers(members)
	require.NoError(t, err)
	assert.Equal(t, "20.00", members[0].Difference.StringFixed(2))
}

func TestPlanTransfers_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 500; i++ {
		n := 1 + rng.IntN(10)
		contribs := make([]Contribution, n)
		total := decimal.Zero
		for j := range contribs {
			amount := decimal.New(rng.Int64N(50000), -2)
			total = total.Add(amount)
			contribs[j] = Contribution{MemberID: string(rune('a' + j)), Name: string(rune('A' + j)), AmountPaid: amount}
		}

		balances, err := CalculateBalances(total, contribs)
		require.NoError(t, err)

		transfers, err := PlanTransfers(balances.Members)
		require.NoError(t, err, "iteration %d", i)

		assert.LessOrEqual(t, len(transfers), n-1, "iteration %d", i)

		for _, tr := range transfers {
			assert.NotEqual(t, tr.FromID, tr.ToID, "self transfer in iteration %d", i)
			assert.True(t, tr.Amount.IsPositive(), "non-positive transfer in iteration %d", i)
		}
		for id, left := range replay(balances.Members, transfers) {
			assert.True(t, left.Abs().LessThanOrEqual(Epsilon), "iteration %d: %s left with %s", i, id, left)
		}
	}
}
