package extraction

import (
	"strings"
	"unicode/utf8"
)

const (
	// UnnamedStore is returned when no header line looks like a store name
	UnnamedStore = "Unnamed Store"
	// AddressNotFound is returned when no line looks like part of an address
	AddressNotFound = "Address not found"

	storeNameLines = 5
	addressLines   = 10
)

// StoreName returns the first of the leading lines that reads like a merchant
// name rather than a number, a phone number or an address.
func StoreName(lines []string) string {
	for _, line := range head(lines, storeNameLines) {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 2 || numericLine.MatchString(line) {
			continue
		}
		if phoneLike.MatchString(line) || addressLike.MatchString(line) {
			continue
		}
		return line
	}
	return UnnamedStore
}

// Address joins every leading line shaped like a street address or a
// "City, ST 12345" line, in the order they appear.
func Address(lines []string) string {
	var parts []string
	for _, line := range head(lines, addressLines) {
		line = strings.TrimSpace(line)
		if streetAddress.MatchString(line) || cityStateZip.MatchString(line) {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return AddressNotFound
	}
	return strings.Join(parts, " ")
}

func head(lines []string, n int) []string {
	if len(lines) < n {
		return lines
	}
	return lines[:n]
}
