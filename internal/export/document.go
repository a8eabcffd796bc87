package export

import (
	"github.com/shopspring/decimal"

	"github.com/lpreports/fundxtract/internal/schema"
)

// CellKind discriminates the typed cell values of a rendered document.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is one typed cell value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
}

// Sheet is an ordered grid of cells under a fixed name. Row 0 is the
// header row.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Document is the rendered output: an ordered set of named sheets,
// immutable once built.
type Document struct {
	Sheets []Sheet
}

// Empty is the blank cell.
var Empty = Cell{}

// Text builds a text cell; empty strings collapse to the empty cell.
func Text(s string) Cell {
	if s == "" {
		return Empty
	}
	return Cell{Kind: CellText, Text: s}
}

// Number builds a numeric cell.
func Number(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Number: d}
}

// Display is the cell's rendered string form, used for column sizing
// and assertions. The empty cell displays as "".
func (c Cell) Display() string {
	switch c.Kind {
	case CellNumber:
		return c.Number.String()
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// valueCell maps a record scalar to a cell. Nulls render empty, never
// 0 and never the literal "null". Text in a numerically-declared slot
// passes through verbatim rather than failing the render.
func valueCell(v schema.Value) Cell {
	if d, ok := v.Number(); ok {
		return Number(d)
	}
	if s, ok := v.Text(); ok {
		return Text(s)
	}
	return Empty
}

// periodCell maps a period-triplet member to a cell. Exact zero renders
// identically to null so immaterial zeros do not clutter a statement;
// any non-zero magnitude, however small, is preserved exactly.
func periodCell(v schema.Value) Cell {
	if d, ok := v.Number(); ok {
		if d.IsZero() {
			return Empty
		}
		return Number(d)
	}
	if s, ok := v.Text(); ok {
		return Text(s)
	}
	return Empty
}
