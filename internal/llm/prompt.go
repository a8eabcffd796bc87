package llm

import (
	"encoding/json"
	"strings"

	"github.com/lpreports/fundxtract/internal/schema"
)

// BuildExtractionPrompt composes the instruction block sent with the
// document text. It spells out the normalization contract (plain
// numbers, unscaled percents, parenthesized negatives, ISO dates, null
// for missing) and embeds the record JSON-Schema; the transformer
// re-validates all of it defensively rather than trusting the model.
func BuildExtractionPrompt(text string) string {
	rules := []string{
		"You are a financial data extraction expert. Extract ALL data from this fund report and return it as a single JSON object.",
		"Return ONLY valid JSON: no explanations, no markdown, no code fences. Start with { and end with }.",
		"For missing data use null, never 0 and never an empty string.",
		"Numbers: remove currency symbols and thousands separators ($1,000,000 becomes 1000000).",
		"Percentages: keep the unscaled magnitude (15.5% becomes 15.5, not 0.155).",
		"Negative numbers shown in parentheses: (1000) becomes -1000.",
		"Dates: format as YYYY-MM-DD.",
		"The statement_of_cashflows and pcap_statement objects must contain every declared line-item key; give each one {\"current_period\": ..., \"prior_period\": ..., \"year_to_date\": ...} with null members where the document has no value. Section header keys are always null.",
		"Arrays (schedule_of_investments, statement_of_operations, portfolio_company_profile, portfolio_company_financials, footnotes) list one object per row found in the document; an empty array is valid.",
		"reference_values maps each category to the distinct strings observed in the document.",
		"Include ALL nine top-level sections even when empty.",
	}

	var b strings.Builder
	for i, r := range rules {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r)
	}
	b.WriteString("\n\nJSON Schema the response MUST satisfy:\n")
	b.WriteString(mustJSON(schema.BuildRecordJSONSchema()))
	b.WriteString("\n\nDOCUMENT TEXT:\n")
	b.WriteString(text)
	b.WriteString("\n\nNow return ONLY the complete JSON object with all nine sections:")
	return b.String()
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
