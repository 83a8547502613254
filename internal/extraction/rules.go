package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// skipWords mark a line as something other than a purchase
var skipWords = []string{
	"total", "subtotal", "tax", "change", "cash", "card", "credit", "debit",
	"discount", "coupon", "thank", "visit", "receipt", "phone", "store",
	"address", "manager", "cashier", "transaction", "balance",
}

// amountPattern finds a monetary amount anywhere in a line
var amountPattern = regexp.MustCompile(`\$?(\d+\.\d{2})`)

// Store name and address shapes
var (
	numericLine     = regexp.MustCompile(`^\d+$`)
	phoneLike       = regexp.MustCompile(`\d{3,}.*\d{3,}`)
	addressLike     = regexp.MustCompile(`\d+.*[a-zA-Z]+.*\d+`)
	streetAddress   = regexp.MustCompile(`(?i)\d+.*[a-zA-Z].*(?:st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive)`)
	cityStateZip    = regexp.MustCompile(`[a-zA-Z]+,\s*[A-Z]{2}\s*\d{5}`)
	quantityPrefix  = regexp.MustCompile(`^(\d+)\s*x?\s*`)
	trailingAmount  = regexp.MustCompile(`\s*\$?\d+\.\d{2}.*$`)
	quantityXPrefix = regexp.MustCompile(`(?i)^\d+\s*x\s`)
)

// dateKind tells PurchaseDate which layouts apply to a captured token
type dateKind int

const (
	dateMonthFirst dateKind = iota
	dateISO
	dateMonthName
)

// dateRule is one date shape. Rules are tried in slice order.
type dateRule struct {
	kind    dateKind
	pattern *regexp.Regexp
}

var dateRules = []dateRule{
	{kind: dateMonthFirst, pattern: regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)},
	{kind: dateISO, pattern: regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})\b`)},
	{kind: dateMonthName, pattern: regexp.MustCompile(`(?i)\b((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{2,4})\b`)},
}

// itemMatch holds the raw fields of a structurally matched item line
type itemMatch struct {
	name     string
	quantity string // empty means an implicit quantity of one
	price    string
}

// itemRule is one item line grammar. Rules are tried in slice order and the
// first match wins.
type itemRule struct {
	name  string
	match func(line string) (itemMatch, bool)
}

var (
	nameQuantityPrice = regexp.MustCompile(`(?i)^(.+?)\s+(\d+)\s*(?:x\s*|\s)\$?(\d+\.\d{2})\s*$`)
	namePrice         = regexp.MustCompile(`^(.+?)\s+\$?(\d+\.\d{2})\s*$`)
	quantityNamePrice = regexp.MustCompile(`(?i)^(\d+)\s*x\s*(.+?)\s+\$?(\d+\.\d{2})\s*$`)
)

var itemRules = []itemRule{
	{
		name: "name-quantity-price",
		match: func(line string) (itemMatch, bool) {
			m := nameQuantityPrice.FindStringSubmatch(line)
			if m == nil {
				return itemMatch{}, false
			}
			return itemMatch{name: m[1], quantity: m[2], price: m[3]}, true
		},
	},
	{
		name: "name-price",
		match: func(line string) (itemMatch, bool) {
			m := namePrice.FindStringSubmatch(line)
			if m == nil {
				return itemMatch{}, false
			}
			// "2 x Milk $3.50" belongs to the quantity-first grammar
			if quantityXPrefix.MatchString(m[1]) {
				return itemMatch{}, false
			}
			return itemMatch{name: m[1], price: m[2]}, true
		},
	},
	{
		name: "quantity-name-price",
		match: func(line string) (itemMatch, bool) {
			m := quantityNamePrice.FindStringSubmatch(line)
			if m == nil {
				return itemMatch{}, false
			}
			return itemMatch{name: m[2], quantity: m[1], price: m[3]}, true
		},
	},
}

// hasSkipWord reports whether line contains any skip word, ignoring case
func hasSkipWord(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range skipWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// isHeader reports whether a trimmed line looks like a section header: it has
// at least one cased letter, none of them lower case, and is short.
func isHeader(line string) bool {
	if utf8.RuneCountInString(line) >= 30 {
		return false
	}
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// firstAmount returns the first monetary amount in line
func firstAmount(line string) (string, bool) {
	m := amountPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
