package export

import (
	"sort"

	"github.com/lpreports/fundxtract/internal/schema"
)

// Render maps a validated extraction record to the nine fixed-layout
// sheets. Pure and deterministic: identical input yields an identical
// document, layout comes from the declarative tables in the schema
// package, and a malformed field degrades to its own cell without
// touching the rest of the workbook.
func Render(rec *schema.ExtractionRecord) *Document {
	if rec == nil {
		rec = &schema.ExtractionRecord{}
	}
	return &Document{Sheets: []Sheet{
		renderPortfolioSummary(rec.PortfolioSummary),
		renderArraySheet(schema.SheetScheduleOfInvestments, schema.ScheduleOfInvestmentsColumns, rec.ScheduleOfInvestments),
		renderArraySheet(schema.SheetStatementOfOperations, schema.StatementOfOperationsColumns, rec.StatementOfOperations),
		renderStatement(schema.SheetStatementOfCashflows, schema.CashflowLineItems, rec.StatementOfCashflows),
		renderStatement(schema.SheetPCAPStatement, schema.PCAPLineItems, rec.PCAPStatement),
		renderArraySheet(schema.SheetPortfolioCompanyProfile, schema.CompanyProfileColumns, rec.PortfolioCompanyProfile),
		renderArraySheet(schema.SheetPortfolioCompanyFinancials, schema.CompanyFinancialsColumns, rec.PortfolioCompanyFinancials),
		renderArraySheet(schema.SheetFootnotes, schema.FootnoteColumns, rec.Footnotes),
		renderReferenceValues(rec.ReferenceValues),
	}}
}

// renderPortfolioSummary builds the two-column key/value sheet in the
// fixed field order. Fields with an empty key are section captions and
// carry no value.
func renderPortfolioSummary(data schema.FieldMap) Sheet {
	rows := make([][]Cell, 0, len(schema.PortfolioSummaryFields)+1)
	rows = append(rows, []Cell{Text("Field"), Text("Value")})
	for _, f := range schema.PortfolioSummaryFields {
		if f.Key == "" {
			rows = append(rows, []Cell{Text(f.Label), Empty})
			continue
		}
		rows = append(rows, []Cell{Text(f.Label), valueCell(data.Get(f.Key))})
	}
	return Sheet{Name: schema.SheetPortfolioSummary, Rows: rows}
}

// renderArraySheet builds a fixed-header sheet with one row per input
// element. Columns are addressed by key, so reordered or omitted fields
// in one element leave every other column intact. An empty input
// renders as the header row alone.
func renderArraySheet(name string, columns []schema.Field, data []schema.FieldMap) Sheet {
	header := make([]Cell, len(columns))
	for i, col := range columns {
		header[i] = Text(col.Label)
	}
	rows := make([][]Cell, 0, len(data)+1)
	rows = append(rows, header)
	for _, elem := range data {
		row := make([]Cell, len(columns))
		for i, col := range columns {
			row[i] = valueCell(elem.Get(col.Key))
		}
		rows = append(rows, row)
	}
	return Sheet{Name: name, Rows: rows}
}

// renderStatement builds a transposed period-triplet sheet: one column
// per declared line item (grouped by section, declared order), one row
// per period. Header pseudo-fields contribute a column label and
// nothing else.
func renderStatement(name string, items []schema.LineItem, data schema.Statement) Sheet {
	header := make([]Cell, len(items)+1)
	header[0] = Text("Description")
	for i, item := range items {
		header[i+1] = Text(item.Label)
	}
	rows := [][]Cell{header}
	for p, label := range schema.PeriodLabels {
		row := make([]Cell, len(items)+1)
		row[0] = Text(label)
		for i, item := range items {
			if item.Header {
				row[i+1] = Empty
				continue
			}
			row[i+1] = periodCell(data.Triplet(item.Section, item.Key).Periods()[p])
		}
		rows = append(rows, row)
	}
	return Sheet{Name: name, Rows: rows}
}

// renderReferenceValues builds one column per category with a humanized
// header; declared categories always appear (empty when absent), and
// undeclared categories from the input follow in sorted order so the
// output stays deterministic.
func renderReferenceValues(data schema.ReferenceMap) Sheet {
	categories := append([]string{}, schema.ReferenceCategories...)
	declared := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		declared[c] = struct{}{}
	}
	extra := make([]string, 0, len(data))
	for c := range data {
		if _, ok := declared[c]; !ok {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	categories = append(categories, extra...)

	depth := 0
	for _, c := range categories {
		if n := len(data[c]); n > depth {
			depth = n
		}
	}

	rows := make([][]Cell, depth+1)
	header := make([]Cell, len(categories))
	for i, c := range categories {
		header[i] = Text(schema.HumanizeKey(c))
	}
	rows[0] = header
	for r := 0; r < depth; r++ {
		row := make([]Cell, len(categories))
		for i, c := range categories {
			vals := data[c]
			if r < len(vals) {
				row[i] = valueCell(vals[r])
			} else {
				row[i] = Empty
			}
		}
		rows[r+1] = row
	}
	return Sheet{Name: schema.SheetReferenceValues, Rows: rows}
}
