package receipt

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a scanned receipt with its extracted purchase data
type Receipt struct {
	ID            string          `json:"id"`
	Number        uint64          `json:"number"` // sequential, assigned on first save
	Name          string          `json:"name"`
	Store         string          `json:"store"`
	Address       string          `json:"address"`
	DatePurchased time.Time       `json:"date_purchased"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	TaxRate       decimal.Decimal `json:"tax_rate"` // fraction of the total, e.g. 0.08
	Total         decimal.Decimal `json:"total"`
	Items         []Item          `json:"items"`
	Filename      string          `json:"filename"`
	ContentType   string          `json:"content_type"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Item is one purchased line of a receipt
type Item struct {
	ID        string          `json:"id"`
	Number    int             `json:"number"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"` // unit price
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary is the short form of a receipt used in listings
type Summary struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	DatePurchased time.Time       `json:"date_purchased"`
	NumItems      int             `json:"num_items"`
	Total         decimal.Decimal `json:"total"`
}

// Summary returns the listing form of r
func (r *Receipt) Summary() Summary {
	return Summary{
		ID:            r.ID,
		Name:          r.Name,
		DatePurchased: r.DatePurchased,
		NumItems:      len(r.Items),
		Total:         r.Total,
	}
}

// recalculate derives subtotal, tax and total from the items and tax rate
func (r *Receipt) recalculate() {
	subtotal := decimal.Zero
	for _, item := range r.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	r.Subtotal = subtotal
	r.applyTaxRate()
}

// applyTaxRate recomputes tax and total from the subtotal.
// TaxRate is a share of the subtotal, not of the total.
func (r *Receipt) applyTaxRate() {
	r.Tax = r.Subtotal.Mul(r.TaxRate).Round(2)
	r.Total = r.Subtotal.Add(r.Tax)
}
