package extraction

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// outcome is how a single line was classified
type outcome int

const (
	noMatch outcome = iota
	skipped
	matched
)

// classification is the result of running one line through the item grammars
type classification struct {
	outcome outcome
	rule    string
	item    LineItem
}

// Items returns the purchase lines found in lines, in the order they appear.
//
// Each line is tried against the strict grammars. Only when no line at all
// matches does a looser pass run that accepts any line holding a price.
func Items(lines []string, ids IDGenerator) []LineItem {
	items := make([]LineItem, 0)
	for _, line := range lines {
		c := classifyLine(line, ids)
		if c.outcome == matched {
			items = append(items, c.item)
		}
	}
	if len(items) > 0 {
		return items
	}

	slog.Debug("No strict item lines found, using fallback", "lines", len(lines))
	return fallbackItems(lines, ids)
}

// classifyLine runs line through the item grammars in priority order
func classifyLine(line string, ids IDGenerator) classification {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) < 3 || hasSkipWord(line) || isHeader(line) {
		return classification{outcome: skipped}
	}

	for _, rule := range itemRules {
		m, ok := rule.match(line)
		if !ok {
			continue
		}
		// A structural match with bad numbers drops the line
		item, ok := newLineItem(m, ids)
		if !ok {
			return classification{outcome: noMatch, rule: rule.name}
		}
		return classification{outcome: matched, rule: rule.name, item: item}
	}
	return classification{outcome: noMatch}
}

// fallbackItems accepts any line with a price somewhere in it. The text before
// the price is the name, optionally led by a quantity.
func fallbackItems(lines []string, ids IDGenerator) []LineItem {
	items := make([]LineItem, 0)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || hasSkipWord(line) {
			continue
		}

		price, ok := firstAmount(line)
		if !ok {
			continue
		}
		name := strings.TrimSpace(trailingAmount.ReplaceAllString(line, ""))

		var quantity string
		if q := quantityPrefix.FindStringSubmatch(name); q != nil {
			quantity = q[1]
			name = strings.TrimSpace(quantityPrefix.ReplaceAllString(name, ""))
		}
		if utf8.RuneCountInString(name) <= 1 {
			continue
		}

		item, ok := newLineItem(itemMatch{name: name, quantity: quantity, price: price}, ids)
		if ok {
			items = append(items, item)
		}
	}
	return items
}

// newLineItem converts raw fields into a LineItem, reporting false when a
// number does not parse or the item would be invalid.
func newLineItem(m itemMatch, ids IDGenerator) (LineItem, bool) {
	name := strings.TrimSpace(m.name)
	if name == "" {
		return LineItem{}, false
	}

	quantity := 1
	if m.quantity != "" {
		q, err := strconv.Atoi(m.quantity)
		if err != nil || q < 1 {
			return LineItem{}, false
		}
		quantity = q
	}

	price, err := decimal.NewFromString(m.price)
	if err != nil || price.IsNegative() {
		return LineItem{}, false
	}

	return LineItem{
		ID:        ids.Generate(),
		Name:      name,
		Quantity:  quantity,
		UnitPrice: price,
	}, true
}
