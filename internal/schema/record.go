package schema

import (
	"encoding/json"
	"strings"
)

// ExtractionRecord is the canonical structured output of AI extraction:
// a tree with exactly nine top-level sections. Flat and array sections
// are addressed by key (FieldMap) so a provider that omits or reorders
// fields inside one element cannot corrupt neighbouring columns.
type ExtractionRecord struct {
	PortfolioSummary           FieldMap     `json:"portfolio_summary"`
	ScheduleOfInvestments      []FieldMap   `json:"schedule_of_investments"`
	StatementOfOperations      []FieldMap   `json:"statement_of_operations"`
	StatementOfCashflows       Statement    `json:"statement_of_cashflows"`
	PCAPStatement              Statement    `json:"pcap_statement"`
	PortfolioCompanyProfile    []FieldMap   `json:"portfolio_company_profile"`
	PortfolioCompanyFinancials []FieldMap   `json:"portfolio_company_financials"`
	Footnotes                  []FieldMap   `json:"footnotes"`
	ReferenceValues            ReferenceMap `json:"reference_values"`
}

// ReferenceMap maps a category name to the distinct values observed in
// the source document.
type ReferenceMap map[string][]Value

// UnmarshalJSON tolerates a scalar where an array was expected by
// wrapping it, and drops nulls, so one malformed category cannot abort
// the record decode.
func (m *ReferenceMap) UnmarshalJSON(b []byte) error {
	*m = ReferenceMap{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for key, rv := range raw {
		s := strings.TrimSpace(string(rv))
		if s == "" || s == "null" {
			continue
		}
		if strings.HasPrefix(s, "[") {
			var vals []Value
			if err := json.Unmarshal(rv, &vals); err == nil {
				(*m)[key] = vals
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(rv, &v); err == nil && !v.IsNull() {
			(*m)[key] = []Value{v}
		}
	}
	return nil
}

// FieldMap is a flat mapping of record keys to scalar values.
type FieldMap map[string]Value

// Get returns the value for key; a missing key is null.
func (m FieldMap) Get(key string) Value {
	if m == nil {
		return Value{}
	}
	return m[key]
}

// Statement is a fixed nested structure: named sections mapping
// line-item keys to period triplets.
type Statement map[string]Section

// Section maps a line-item key to its triplet of period values.
type Section map[string]PeriodTriplet

// Triplet returns the period values for a line item; missing sections
// or keys yield an all-null triplet.
func (s Statement) Triplet(section, key string) PeriodTriplet {
	if s == nil {
		return PeriodTriplet{}
	}
	return s[section][key]
}

// PeriodTriplet holds the three period values attached to one financial
// line item. Members are independently nullable; "no value" is null,
// never zero or empty string (the transformer folds exact zero into an
// empty cell at render time, not here).
type PeriodTriplet struct {
	CurrentPeriod Value `json:"current_period"`
	PriorPeriod   Value `json:"prior_period"`
	YearToDate    Value `json:"year_to_date"`
}

// Periods returns the members in fixed render order
// (current, prior, year-to-date).
func (t PeriodTriplet) Periods() [3]Value {
	return [3]Value{t.CurrentPeriod, t.PriorPeriod, t.YearToDate}
}

// UnmarshalJSON tolerates the shapes providers actually produce:
// null (section headers), the canonical object, or stray scalars,
// which all collapse to an all-null triplet rather than failing.
func (t *PeriodTriplet) UnmarshalJSON(b []byte) error {
	*t = PeriodTriplet{}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" || !strings.HasPrefix(s, "{") {
		return nil
	}
	var raw struct {
		CurrentPeriod Value `json:"current_period"`
		PriorPeriod   Value `json:"prior_period"`
		YearToDate    Value `json:"year_to_date"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	t.CurrentPeriod = raw.CurrentPeriod
	t.PriorPeriod = raw.PriorPeriod
	t.YearToDate = raw.YearToDate
	return nil
}
