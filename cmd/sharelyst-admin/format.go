package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/settlement"
)

// formatAmount renders d to cents with the printer's digit grouping and
// decimal separator. Digits come from the decimal itself; only the whole
// part's grouping is delegated to the locale.
func formatAmount(p *message.Printer, d decimal.Decimal) string {
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	grouped := whole
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = p.Sprint(number.Decimal(n))
	}

	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + grouped + decimalSeparator(p) + frac
}

// decimalSeparator asks the locale how it writes one and a half.
func decimalSeparator(p *message.Printer) string {
	s := p.Sprint(number.Decimal(1.5, number.Scale(1)))
	return strings.TrimSuffix(strings.TrimPrefix(s, "1"), "5")
}

func writeReport(w io.Writer, p *message.Printer, group *models.Group, rep *settlement.Report) {
	amount := func(d decimal.Decimal) string { return formatAmount(p, d) }

	p.Fprintf(w, "%s (code %s, ledger version %s)\n", group.Name, strconv.Itoa(group.Code), strconv.FormatInt(rep.LedgerVersion, 10))
	p.Fprintf(w, "  %-24s %14s\n", "Total", amount(rep.Total))
	p.Fprintf(w, "  %-24s %14s\n", "Per person", amount(rep.PerPersonAmount))

	p.Fprintf(w, "\nMEMBERS\n")
	p.Fprintf(w, "  %-24s %14s %14s %14s\n", "Name", "Paid", "Share", "Difference")
	for _, m := range rep.Members {
		p.Fprintf(w, "  %-24s %14s %14s %14s\n", m.Name, amount(m.AmountPaid), amount(m.ShouldPay), amount(m.Difference))
	}

	p.Fprintf(w, "\nTRANSFERS\n")
	if len(rep.Transfers) == 0 {
		p.Fprintf(w, "  Everyone is settled up\n")
		return
	}
	for _, t := range rep.Transfers {
		p.Fprintf(w, "  %-24s -> %-24s %14s\n", t.From, t.To, amount(t.Amount))
	}
}
