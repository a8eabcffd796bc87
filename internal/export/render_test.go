package export

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lpreports/fundxtract/internal/schema"
)

func numVal(t *testing.T, s string) schema.Value {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return schema.NumberValue(d)
}

func sheetByName(t *testing.T, doc *Document, name string) Sheet {
	t.Helper()
	for _, s := range doc.Sheets {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("sheet %q not found", name)
	return Sheet{}
}

func TestRenderSheetOrder(t *testing.T) {
	doc := Render(&schema.ExtractionRecord{})
	require.Len(t, doc.Sheets, 9)
	want := []string{
		schema.SheetPortfolioSummary,
		schema.SheetScheduleOfInvestments,
		schema.SheetStatementOfOperations,
		schema.SheetStatementOfCashflows,
		schema.SheetPCAPStatement,
		schema.SheetPortfolioCompanyProfile,
		schema.SheetPortfolioCompanyFinancials,
		schema.SheetFootnotes,
		schema.SheetReferenceValues,
	}
	for i, name := range want {
		assert.Equal(t, name, doc.Sheets[i].Name)
	}
}

func TestRenderEmptyRecordIsCompleteSkeleton(t *testing.T) {
	doc := Render(nil)

	summary := sheetByName(t, doc, schema.SheetPortfolioSummary)
	assert.Len(t, summary.Rows, len(schema.PortfolioSummaryFields)+1)

	schedule := sheetByName(t, doc, schema.SheetScheduleOfInvestments)
	require.Len(t, schedule.Rows, 1, "empty array section renders header row only")
	assert.Len(t, schedule.Rows[0], len(schema.ScheduleOfInvestmentsColumns))

	cashflows := sheetByName(t, doc, schema.SheetStatementOfCashflows)
	require.Len(t, cashflows.Rows, 1+len(schema.PeriodLabels))
	assert.Len(t, cashflows.Rows[0], len(schema.CashflowLineItems)+1)
}

func TestRenderDeterministic(t *testing.T) {
	rec := &schema.ExtractionRecord{
		PortfolioSummary: schema.FieldMap{
			"fund_name": schema.TextValue("Fund IV"),
			"nav":       numVal(t, "250000000"),
		},
		ReferenceValues: schema.ReferenceMap{
			"zeta":       {schema.TextValue("z")},
			"alpha":      {schema.TextValue("a")},
			"currencies": {schema.TextValue("USD")},
		},
	}
	a := Render(rec)
	b := Render(rec)
	assert.Equal(t, a, b)
}

func TestRenderPortfolioSummaryValues(t *testing.T) {
	rec := &schema.ExtractionRecord{
		PortfolioSummary: schema.FieldMap{
			"fund_name": schema.TextValue("Growth Fund III"),
		},
	}
	sheet := sheetByName(t, Render(rec), schema.SheetPortfolioSummary)

	var found bool
	for _, row := range sheet.Rows[1:] {
		if row[0].Display() == "Fund Name" {
			found = true
			assert.Equal(t, "Growth Fund III", row[1].Display())
			continue
		}
		// every other field is absent and renders empty, never "null"
		assert.Equal(t, CellEmpty, row[1].Kind, "row %q", row[0].Display())
	}
	assert.True(t, found, "Fund Name row missing")
}

func TestRenderArraySheetAddressesByKey(t *testing.T) {
	rec := &schema.ExtractionRecord{
		ScheduleOfInvestments: []schema.FieldMap{
			{
				"company":        schema.TextValue("Acme Corp"),
				"reported_value": numVal(t, "1500000"),
			},
			{
				// reordered and partial element must not shift columns
				"reported_value": numVal(t, "0"),
				"company":        schema.TextValue("Beta LLC"),
			},
		},
	}
	sheet := sheetByName(t, Render(rec), schema.SheetScheduleOfInvestments)
	require.Len(t, sheet.Rows, 3)

	colIdx := map[string]int{}
	for i, col := range schema.ScheduleOfInvestmentsColumns {
		colIdx[col.Key] = i
	}

	assert.Equal(t, "Acme Corp", sheet.Rows[1][colIdx["company"]].Display())
	assert.Equal(t, "1500000", sheet.Rows[1][colIdx["reported_value"]].Display())
	assert.Equal(t, "Beta LLC", sheet.Rows[2][colIdx["company"]].Display())
	// flat sheets keep explicit zeros; only statement sheets fold them
	assert.Equal(t, "0", sheet.Rows[2][colIdx["reported_value"]].Display())
}

func TestRenderSingleNullFieldDoesNotBlankSiblings(t *testing.T) {
	rec := &schema.ExtractionRecord{
		ScheduleOfInvestments: []schema.FieldMap{
			{
				"company":        schema.TextValue("Acme Corp"),
				"reported_value": schema.Value{}, // null slot
				"security_type":  schema.TextValue("Preferred Equity"),
			},
		},
	}
	sheet := sheetByName(t, Render(rec), schema.SheetScheduleOfInvestments)

	colIdx := map[string]int{}
	for i, col := range schema.ScheduleOfInvestmentsColumns {
		colIdx[col.Key] = i
	}
	row := sheet.Rows[1]
	assert.Equal(t, "Acme Corp", row[colIdx["company"]].Display())
	assert.Equal(t, CellEmpty, row[colIdx["reported_value"]].Kind)
	assert.Equal(t, "Preferred Equity", row[colIdx["security_type"]].Display())
}

func TestRenderStatementTransposed(t *testing.T) {
	rec := &schema.ExtractionRecord{
		StatementOfCashflows: schema.Statement{
			schema.CashflowOperating: schema.Section{
				"purchase_of_investments": schema.PeriodTriplet{
					CurrentPeriod: numVal(t, "-500000"),
					YearToDate:    numVal(t, "-750000"),
				},
				"proceeds_from_sale_of_investments": schema.PeriodTriplet{
					CurrentPeriod: numVal(t, "0"),    // folds to empty
					PriorPeriod:   numVal(t, "0.01"), // preserved
				},
			},
		},
	}
	sheet := sheetByName(t, Render(rec), schema.SheetStatementOfCashflows)
	require.Len(t, sheet.Rows, 4)

	// column index per line-item key (offset 1 for the Description column)
	col := map[string]int{}
	for i, item := range schema.CashflowLineItems {
		if !item.Header {
			col[item.Key] = i + 1
		}
	}

	assert.Equal(t, "Description", sheet.Rows[0][0].Display())
	assert.Equal(t, "Current Period", sheet.Rows[1][0].Display())
	assert.Equal(t, "Prior Period", sheet.Rows[2][0].Display())
	assert.Equal(t, "Year to Date", sheet.Rows[3][0].Display())

	assert.Equal(t, "-500000", sheet.Rows[1][col["purchase_of_investments"]].Display())
	assert.Equal(t, CellEmpty, sheet.Rows[2][col["purchase_of_investments"]].Kind)
	assert.Equal(t, "-750000", sheet.Rows[3][col["purchase_of_investments"]].Display())

	// exact zero and null render identically; tiny magnitudes survive
	assert.Equal(t, CellEmpty, sheet.Rows[1][col["proceeds_from_sale_of_investments"]].Kind)
	assert.Equal(t, "0.01", sheet.Rows[2][col["proceeds_from_sale_of_investments"]].Display())
}

func TestRenderStatementHeaderColumnsAlwaysEmpty(t *testing.T) {
	sheet := sheetByName(t, Render(&schema.ExtractionRecord{}), schema.SheetStatementOfCashflows)
	for i, item := range schema.CashflowLineItems {
		if !item.Header {
			continue
		}
		assert.Equal(t, item.Label, sheet.Rows[0][i+1].Display())
		for r := 1; r < len(sheet.Rows); r++ {
			assert.Equal(t, CellEmpty, sheet.Rows[r][i+1].Kind)
		}
	}
}

func TestRenderReferenceValues(t *testing.T) {
	rec := &schema.ExtractionRecord{
		ReferenceValues: schema.ReferenceMap{
			"currencies":      {schema.TextValue("USD"), schema.TextValue("EUR")},
			"custom_category": {schema.TextValue("x")},
		},
	}
	sheet := sheetByName(t, Render(rec), schema.SheetReferenceValues)

	// declared categories first, then extras in sorted order with
	// humanized headers
	require.Len(t, sheet.Rows[0], len(schema.ReferenceCategories)+1)
	assert.Equal(t, schema.HumanizeKey("custom_category"), sheet.Rows[0][len(schema.ReferenceCategories)].Display())

	var curCol = -1
	for i, c := range schema.ReferenceCategories {
		if c == "currencies" {
			curCol = i
		}
	}
	require.GreaterOrEqual(t, curCol, 0)
	require.Len(t, sheet.Rows, 3, "depth follows the longest category")
	assert.Equal(t, "USD", sheet.Rows[1][curCol].Display())
	assert.Equal(t, "EUR", sheet.Rows[2][curCol].Display())
}
