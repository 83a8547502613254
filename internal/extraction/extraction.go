// Package extraction turns the text lines recognized on a scanned receipt into
// structured purchase data using pattern heuristics only.
//
// Every extractor reads the same line slice and never fails: when a signal is
// missing the result falls back to a placeholder, a zero amount or, for the
// purchase date, the current time.
package extraction

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a single purchase line recognized on a receipt
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ExtractedReceipt is the best-effort structured reading of a receipt.
// Missing amounts are zero, not absent.
type ExtractedReceipt struct {
	StoreName    string          `json:"store_name"`
	Address      string          `json:"address"`
	PurchaseDate string          `json:"purchase_date"` // ISO 8601, or the raw date token when it could not be parsed
	Items        []LineItem      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Result is what the Extractor hands back to its caller
type Result struct {
	Receipt ExtractedReceipt `json:"receipt"`
	TaxRate decimal.Decimal  `json:"tax_rate"` // tax / total, zero when total is zero
}

// IDGenerator generates unique IDs for line items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// UUIDGenerator generates random (version 4) UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

type systemTime struct{}

func (systemTime) Now() time.Time {
	return time.Now()
}

// Extractor runs all extractors over one receipt's lines
type Extractor struct {
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewExtractor creates an Extractor using random UUIDs and the system clock
func NewExtractor() *Extractor {
	return NewExtractorWithDeps(UUIDGenerator{}, systemTime{})
}

// NewExtractorWithDeps creates an Extractor with custom dependencies for testing
func NewExtractorWithDeps(idGen IDGenerator, timeSrc TimeSource) *Extractor {
	return &Extractor{
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Extract builds an ExtractedReceipt from lines. It is safe to call
// concurrently and never fails.
func (e *Extractor) Extract(lines []string) Result {
	var (
		receipt ExtractedReceipt
		totals  Totals
		wg      sync.WaitGroup
	)

	// Each extractor writes to its own field so no locking is needed.
	wg.Add(4)
	go func() {
		defer wg.Done()
		receipt.StoreName = StoreName(lines)
		receipt.Address = Address(lines)
	}()
	go func() {
		defer wg.Done()
		receipt.PurchaseDate = PurchaseDate(lines, e.timeSource.Now())
	}()
	go func() {
		defer wg.Done()
		receipt.Items = Items(lines, e.idGenerator)
	}()
	go func() {
		defer wg.Done()
		totals = ExtractTotals(lines)
	}()
	wg.Wait()

	receipt.Subtotal = totals.Subtotal
	receipt.Tax = totals.Tax
	receipt.Total = totals.Total

	return Result{
		Receipt: receipt,
		TaxRate: totals.TaxRate(),
	}
}
