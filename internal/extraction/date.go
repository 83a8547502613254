package extraction

import (
	"strings"
	"time"
)

// ISOLayout is the layout of every date PurchaseDate produces
const ISOLayout = "2006-01-02T15:04:05"

var dateLayouts = map[dateKind][]string{
	dateISO: {"2006-1-2"},
	dateMonthName: {
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006",
		"Jan 2, 06", "January 2, 06", "Jan 2 06", "January 2 06",
	},
}

// PurchaseDate finds the first date on the receipt and returns it in ISO 8601
// form. Date shapes are tried in a fixed order and the first shape found
// anywhere in the text wins, even when another shape appears earlier.
//
// A token that cannot be parsed is returned unchanged. When there is no date
// at all, now is returned instead.
func PurchaseDate(lines []string, now time.Time) string {
	text := strings.Join(lines, " ")
	for _, rule := range dateRules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		token := m[1]
		if t, ok := parseDate(rule.kind, token); ok {
			return t.Format(ISOLayout)
		}
		return token
	}
	return now.Format(ISOLayout)
}

func parseDate(kind dateKind, token string) (time.Time, bool) {
	layouts := dateLayouts[kind]
	switch kind {
	case dateMonthFirst:
		// month first, with whichever separator the token uses
		if strings.Contains(token, "/") {
			layouts = []string{"1/2/2006", "1/2/06"}
		} else {
			layouts = []string{"1-2-2006", "1-2-06"}
		}
	case dateMonthName:
		token = strings.Join(strings.Fields(token), " ")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
