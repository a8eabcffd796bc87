package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalization rules. These are the contract the AI provider is
// instructed to follow when producing the record, and the transformer
// re-applies them defensively to whatever actually comes back. Every
// function is total: malformed input means nil/empty, never an error.

var currencyReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "",
	",", "", " ", "", " ", "",
)

// ParseAmount converts a monetary string to a decimal.
// "$1,000,000" -> 1000000; "(1000)" -> -1000; "" -> nil.
func ParseAmount(text string) *decimal.Decimal {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(currencyReplacer.Replace(s))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if neg {
		d = d.Neg()
	}
	return &d
}

// ParsePercent converts a percentage string to its unscaled magnitude.
// "15.5%" -> 15.5 (not 0.155). Input without a percent sign is accepted
// as-is so already-normalized values survive a second pass. The percent
// sign may sit inside parentheses: "(2.5%)" -> -2.5.
func ParsePercent(text string) *decimal.Decimal {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	d := ParseAmount(s)
	if d == nil {
		return nil
	}
	if neg {
		n := d.Neg()
		return &n
	}
	return d
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate normalizes common date spellings to ISO (YYYY-MM-DD).
// Unparseable input is data absence, not failure: it returns "".
func ParseDate(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
