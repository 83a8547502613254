package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-saver/internal/extraction"
	"github.com/zombor/receipt-saver/internal/scanning"
)

var (
	// ErrUnreadable is returned when no text could be read from an upload
	ErrUnreadable = errors.New("unable to convert image to text")
	// ErrItemNotFound is returned when a receipt has no item with the given ID
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidItem is returned for a negative quantity or price
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidReceipt is returned for a negative subtotal or tax rate
	ErrInvalidReceipt = errors.New("invalid receipt")
	// ErrInvalidOrder is returned for an unknown list ordering
	ErrInvalidOrder = errors.New("invalid order")
)

// List orderings, newest first
const (
	OrderLastUpdated   = "last_updated"
	OrderDatePurchased = "date_purchased"
	OrderCreatedAt     = "created_at"

	defaultListLimit = 10
)

// IDGenerator generates unique IDs for receipts and items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	extractor   *extraction.Extractor
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing.
// The extractor shares them, so item IDs and the fallback purchase date come
// from idGen and timeSrc too.
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		extractor:   extraction.NewExtractorWithDeps(idGen, timeSrc),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters from a filename and truncates
// the long names phones generate
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(repeatedSpaces.ReplaceAllString(base, " "))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ScanReceipt stores an uploaded receipt image, reads its text, extracts the
// purchase data and saves the new receipt.
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	started := time.Now()
	defer func() { scanDuration.Observe(time.Since(started).Seconds()) }()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		scansTotal.WithLabelValues(scanFailed).Inc()
		return nil, fmt.Errorf("saving file: %w", err)
	}

	lines, err := s.scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// The image is useless without its text
		s.deleteFile(savedPath)
		scansTotal.WithLabelValues(scanUnreadable).Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	result := s.extractor.Extract(lines)
	receipt := newReceipt(id, result, now)
	receipt.Filename = savedPath
	receipt.ContentType = contentType

	if err := s.db.CreateReceipt(receipt); err != nil {
		s.deleteFile(savedPath)
		scansTotal.WithLabelValues(scanFailed).Inc()
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}
	scansTotal.WithLabelValues(scanOK).Inc()
	extractedItems.Observe(float64(len(receipt.Items)))

	slog.Info("Scanned receipt",
		"id", receipt.ID,
		"number", receipt.Number,
		"store", receipt.Store,
		"lines", len(lines),
		"items", len(receipt.Items),
	)
	return receipt, nil
}

// newReceipt converts an extraction result into an unsaved receipt
func newReceipt(id string, result extraction.Result, now time.Time) *Receipt {
	extracted := result.Receipt

	// A date token that could not be parsed falls back to the scan time
	date, err := time.Parse(extraction.ISOLayout, extracted.PurchaseDate)
	if err != nil {
		slog.Warn("Unparsed purchase date", "receipt_id", id, "date", extracted.PurchaseDate)
		date = now
	}

	items := make([]Item, 0, len(extracted.Items))
	for i, li := range extracted.Items {
		items = append(items, Item{
			ID:        li.ID,
			Number:    i + 1,
			Name:      li.Name,
			Quantity:  li.Quantity,
			Price:     li.UnitPrice,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return &Receipt{
		ID:            id,
		Store:         extracted.StoreName,
		Address:       extracted.Address,
		DatePurchased: date,
		Subtotal:      extracted.Subtotal,
		Tax:           extracted.Tax,
		TaxRate:       storedTaxRate(extracted.Subtotal, extracted.Tax, result.TaxRate),
		Total:         extracted.Total,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// storedTaxRate expresses the tax as a share of the subtotal so that
// applyTaxRate reproduces the printed tax. The extracted rate is relative
// to the total and only stands in when there is no subtotal.
func storedTaxRate(subtotal, tax, extracted decimal.Decimal) decimal.Decimal {
	if subtotal.IsPositive() {
		return tax.Div(subtotal)
	}
	return extracted
}

func (s *Service) deleteFile(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "filename", path, "error", err)
	}
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns up to limit receipts, newest first by order.
// An empty order means OrderLastUpdated and a non-positive limit means 10.
func (s *Service) ListReceipts(order string, limit int) ([]*Receipt, error) {
	var key func(r *Receipt) time.Time
	switch order {
	case "", OrderLastUpdated:
		key = func(r *Receipt) time.Time { return r.UpdatedAt }
	case OrderDatePurchased:
		key = func(r *Receipt) time.Time { return r.DatePurchased }
	case OrderCreatedAt:
		key = func(r *Receipt) time.Time { return r.CreatedAt }
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		ki, kj := key(receipts[i]), key(receipts[j])
		if ki.Equal(kj) {
			return receipts[i].Number > receipts[j].Number
		}
		return ki.After(kj)
	})
	if len(receipts) > limit {
		receipts = receipts[:limit]
	}
	return receipts, nil
}

// ReceiptUpdate holds the receipt fields a user may change. Nil fields are left alone.
type ReceiptUpdate struct {
	Name          *string          `json:"name"`
	Store         *string          `json:"store"`
	Address       *string          `json:"address"`
	DatePurchased *time.Time       `json:"date_purchased"`
	Subtotal      *decimal.Decimal `json:"subtotal"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
}

// UpdateReceipt applies a partial update. Changing the subtotal or tax rate
// recomputes tax and total.
func (s *Service) UpdateReceipt(id string, update ReceiptUpdate) (*Receipt, error) {
	if (update.Subtotal != nil && update.Subtotal.IsNegative()) || (update.TaxRate != nil && update.TaxRate.IsNegative()) {
		return nil, fmt.Errorf("%w: subtotal and tax rate must not be negative", ErrInvalidReceipt)
	}

	receipt, err := s.db.UpdateReceipt(id, func(r *Receipt) error {
		if update.Name != nil {
			r.Name = *update.Name
		}
		if update.Store != nil {
			r.Store = *update.Store
		}
		if update.Address != nil {
			r.Address = *update.Address
		}
		if update.DatePurchased != nil {
			r.DatePurchased = *update.DatePurchased
		}
		if update.Subtotal != nil || update.TaxRate != nil {
			if update.Subtotal != nil {
				r.Subtotal = *update.Subtotal
			}
			if update.TaxRate != nil {
				r.TaxRate = *update.TaxRate
			}
			r.applyTaxRate()
		}
		r.UpdatedAt = s.timeSource.Now()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating receipt: %w", err)
	}
	return receipt, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}

	// An orphaned file is only logged
	s.deleteFile(receipt.Filename)
	return nil
}

// GetReceiptFile retrieves the image data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// AddItem appends a blank item to a receipt for the user to fill in
func (s *Service) AddItem(receiptID string) (*Item, error) {
	var item Item
	_, err := s.db.UpdateReceipt(receiptID, func(r *Receipt) error {
		number := 1
		for _, existing := range r.Items {
			number = max(number, existing.Number+1)
		}

		now := s.timeSource.Now()
		item = Item{
			ID:        s.idGenerator.Generate(),
			Number:    number,
			Name:      fmt.Sprintf("Unnamed Item (%d)", number),
			Quantity:  1,
			Price:     decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.Items = append(r.Items, item)
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding item: %w", err)
	}
	return &item, nil
}

// ListItems returns a receipt's items, most recently updated first
func (s *Service) ListItems(receiptID string) ([]Item, error) {
	receipt, err := s.db.GetReceipt(receiptID)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	items := slices.Clone(receipt.Items)
	if items == nil {
		items = []Item{}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

// ItemUpdate holds the item fields a user may change. Nil fields are left alone.
type ItemUpdate struct {
	Name     *string          `json:"name"`
	Quantity *int             `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

// UpdateItem applies a partial item update and recomputes the receipt's
// subtotal, tax and total from its items
func (s *Service) UpdateItem(receiptID, itemID string, update ItemUpdate) (*Item, error) {
	if update.Quantity != nil && *update.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	}
	if update.Price != nil && update.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}

	var item Item
	_, err := s.db.UpdateReceipt(receiptID, func(r *Receipt) error {
		idx := slices.IndexFunc(r.Items, func(i Item) bool { return i.ID == itemID })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}

		now := s.timeSource.Now()
		target := &r.Items[idx]
		if update.Name != nil {
			target.Name = *update.Name
		}
		if update.Quantity != nil {
			target.Quantity = *update.Quantity
		}
		if update.Price != nil {
			target.Price = *update.Price
		}
		target.UpdatedAt = now
		item = *target

		r.recalculate()
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return &item, nil
}

// DeleteItem removes an item and recomputes the receipt's totals
func (s *Service) DeleteItem(receiptID, itemID string) error {
	_, err := s.db.UpdateReceipt(receiptID, func(r *Receipt) error {
		idx := slices.IndexFunc(r.Items, func(i Item) bool { return i.ID == itemID })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		r.Items = slices.Delete(r.Items, idx, idx+1)
		r.recalculate()
		r.UpdatedAt = s.timeSource.Now()
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
