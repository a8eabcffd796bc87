package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordJSONSchema returns the JSON-Schema (draft 2020-12 subset)
// for the full extraction record as a generic map. The same document is
// embedded in the provider prompt and used locally to validate whatever
// the provider returns. Every declared line-item key in the cashflow
// and PCAP statements is required: a missing key is a schema violation,
// not a data-absence signal (an all-null triplet is how absence is
// spelled).
func BuildRecordJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"required": []string{
			"portfolio_summary",
			"schedule_of_investments",
			"statement_of_operations",
			"statement_of_cashflows",
			"pcap_statement",
			"portfolio_company_profile",
			"portfolio_company_financials",
			"footnotes",
			"reference_values",
		},
		"properties": map[string]any{
			"portfolio_summary":            map[string]any{"type": "object"},
			"schedule_of_investments":      arrayOfObjects(),
			"statement_of_operations":      arrayOfObjects(),
			"statement_of_cashflows":       statementSchema(CashflowSections, CashflowLineItems),
			"pcap_statement":               statementSchema(PCAPSections, PCAPLineItems),
			"portfolio_company_profile":    arrayOfObjects(),
			"portfolio_company_financials": arrayOfObjects(),
			"footnotes":                    arrayOfObjects(),
			"reference_values":             map[string]any{"type": "object"},
		},
	}
}

func arrayOfObjects() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "object"},
	}
}

func statementSchema(sections []string, items []LineItem) map[string]any {
	props := map[string]any{}
	for _, section := range sections {
		required := []string{}
		sectionProps := map[string]any{}
		for _, item := range items {
			if item.Section != section {
				continue
			}
			required = append(required, item.Key)
			sectionProps[item.Key] = tripletSchema()
		}
		props[section] = map[string]any{
			"type":       "object",
			"required":   required,
			"properties": sectionProps,
		}
	}
	return map[string]any{
		"type":       "object",
		"required":   sections,
		"properties": props,
	}
}

func tripletSchema() map[string]any {
	scalar := map[string]any{"type": []string{"number", "string", "null"}}
	return map[string]any{
		"type": []string{"object", "null"},
		"properties": map[string]any{
			"current_period": scalar,
			"prior_period":   scalar,
			"year_to_date":   scalar,
		},
	}
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func recordSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(BuildRecordJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("record.json")
	})
	return compiledSchema, compileErr
}

// ValidateRecordJSON checks raw provider output against the record
// schema without decoding it into typed form.
func ValidateRecordJSON(data []byte) error {
	s, err := recordSchema()
	if err != nil {
		return fmt.Errorf("compile record schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
