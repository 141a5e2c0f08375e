package service

import (
	"github.com/mmynk/sharelyst/internal/calculator"
	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/settlement"
	"github.com/mmynk/sharelyst/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.DisplayName(),
		GroupID:   u.GroupID,
		CreatedAt: u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]*api.User, len(g.Members))
	for i := range g.Members {
		members[i] = toAPIUser(&g.Members[i])
	}
	return &api.Group{
		ID:            g.ID,
		Code:          g.Code,
		Name:          g.Name,
		Description:   g.Description,
		LedgerVersion: g.LedgerVersion,
		Members:       members,
		CreatedAt:     g.CreatedAt,
	}
}

func toAPITransaction(t *models.Transaction) *api.Transaction {
	payments := make([]*api.Payment, len(t.Payments))
	for i, p := range t.Payments {
		payments[i] = &api.Payment{
			ID:        p.ID,
			UserID:    p.UserID,
			PayerName: p.PayerName,
			Amount:    p.Amount.StringFixed(2),
		}
	}
	return &api.Transaction{
		ID:        t.ID,
		Name:      t.Name,
		Total:     t.Total.StringFixed(2),
		Split:     t.Split,
		Payments:  payments,
		CreatedAt: t.CreatedAt,
	}
}

func toAPIReport(r *settlement.Report) *api.ComputeSettlementResponse {
	return &api.ComputeSettlementResponse{
		GroupID:         r.GroupID,
		LedgerVersion:   r.LedgerVersion,
		Total:           r.Total.StringFixed(2),
		PerPersonAmount: r.PerPersonAmount.StringFixed(2),
		UsersSummary:    toAPIMembers(r.Members),
		Transactions:    toAPITransfers(r.Transfers),
	}
}

func toAPIMembers(members []calculator.MemberBalance) []*api.MemberSummary {
	out := make([]*api.MemberSummary, len(members))
	for i, m := range members {
		out[i] = &api.MemberSummary{
			ID:         m.MemberID,
			Name:       m.Name,
			AmountPaid: m.AmountPaid.StringFixed(2),
			ShouldPay:  m.ShouldPay.StringFixed(2),
			Difference: m.Difference.StringFixed(2),
		}
	}
	return out
}

func toAPITransfers(transfers []calculator.Transfer) []*api.Transfer {
	out := make([]*api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = &api.Transfer{
			FromID: t.FromID,
			From:   t.From,
			ToID:   t.ToID,
			To:     t.To,
			Amount: t.Amount.StringFixed(2),
		}
	}
	return out
}
