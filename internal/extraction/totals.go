package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Totals holds the summed amounts of a receipt's summary lines
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// TaxRate returns Tax divided by Total, or zero when Total is zero
func (t Totals) TaxRate() decimal.Decimal {
	if t.Total.IsZero() {
		return decimal.Zero
	}
	return t.Tax.Div(t.Total)
}

var taxWords = []string{"tax", "sales tax", "vat"}

// ExtractTotals sums the amounts on subtotal, tax and total lines. A line
// counts toward at most one of them, checked in that order, and repeated
// lines add up rather than replace each other.
func ExtractTotals(lines []string) Totals {
	totals := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, line := range lines {
		line = strings.ToLower(strings.TrimSpace(line))

		var sum *decimal.Decimal
		switch {
		case strings.Contains(line, "subtotal"):
			sum = &totals.Subtotal
		case containsAny(line, taxWords):
			sum = &totals.Tax
		case strings.HasPrefix(line, "total"):
			sum = &totals.Total
		default:
			continue
		}

		amount, ok := firstAmount(line)
		if !ok {
			continue
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			continue
		}
		*sum = sum.Add(value)
	}
	return totals
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
