package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt("FUND IV QUARTERLY REPORT")

	assert.Contains(t, prompt, "FUND IV QUARTERLY REPORT")
	// the normalization contract is spelled out for the provider
	assert.Contains(t, prompt, "$1,000,000 becomes 1000000")
	assert.Contains(t, prompt, "15.5% becomes 15.5")
	assert.Contains(t, prompt, "(1000) becomes -1000")
	assert.Contains(t, prompt, "YYYY-MM-DD")
	// the embedded schema names every top-level section
	for _, section := range []string{
		"portfolio_summary", "schedule_of_investments", "statement_of_operations",
		"statement_of_cashflows", "pcap_statement", "portfolio_company_profile",
		"portfolio_company_financials", "footnotes", "reference_values",
	} {
		assert.Contains(t, prompt, section)
	}
	assert.Equal(t, 1, strings.Count(prompt, "DOCUMENT TEXT:"))
}
