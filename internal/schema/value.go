package schema

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is one scalar slot in an extraction record. The AI provider is
// instructed to emit plain numbers, ISO dates and null for missing data,
// but that contract is not trusted: a Value decodes whatever JSON scalar
// actually arrived and re-applies the normalization rules to strings, so
// "$1,000,000" still lands as the number 1000000 and genuinely
// non-numeric text is preserved verbatim for pass-through rendering.
//
// The zero Value is null.
type Value struct {
	num *decimal.Decimal
	str *string
}

// NumberValue builds a numeric Value, mainly for tests and fixtures.
func NumberValue(d decimal.Decimal) Value {
	return Value{num: &d}
}

// TextValue builds a textual Value.
func TextValue(s string) Value {
	return Value{str: &s}
}

// IsNull reports whether the slot holds no value at all.
func (v Value) IsNull() bool {
	return v.num == nil && v.str == nil
}

// Number returns the numeric content, if any.
func (v Value) Number() (decimal.Decimal, bool) {
	if v.num == nil {
		return decimal.Decimal{}, false
	}
	return *v.num, true
}

// Text returns the textual content, if any.
func (v Value) Text() (string, bool) {
	if v.str == nil {
		return "", false
	}
	return *v.str, true
}

// String renders the value the way it appears in a cell. Null is the
// empty string.
func (v Value) String() string {
	switch {
	case v.num != nil:
		return v.num.String()
	case v.str != nil:
		return *v.str
	default:
		return ""
	}
}

// UnmarshalJSON is total: it never fails on scalar input. Unexpected
// composite values (objects, arrays) collapse to null rather than
// aborting the decode of the surrounding record.
func (v *Value) UnmarshalJSON(b []byte) error {
	*v = Value{}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	switch s[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
		*v = normalizeText(raw)
	case '{', '[':
		// composite in a scalar slot: treat as absent
	case 't', 'f':
		var bv bool
		if err := json.Unmarshal(b, &bv); err == nil {
			s := "false"
			if bv {
				s = "true"
			}
			v.str = &s
		}
	default:
		if d, err := decimal.NewFromString(s); err == nil {
			v.num = &d
		}
	}
	return nil
}

// MarshalJSON emits the canonical form: numbers as JSON numbers,
// text as strings, null as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.num != nil:
		return []byte(v.num.String()), nil
	case v.str != nil:
		return json.Marshal(*v.str)
	default:
		return []byte("null"), nil
	}
}

// normalizeText applies the amount/percent rules to a raw string and
// falls back to keeping the text as-is when it is not numeric.
func normalizeText(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	if d := ParseAmount(s); d != nil {
		return Value{num: d}
	}
	if strings.Contains(s, "%") {
		if d := ParsePercent(s); d != nil {
			return Value{num: d}
		}
	}
	return Value{str: &s}
}
