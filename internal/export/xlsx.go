package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lpreports/fundxtract/internal/schema"
)

// maxColWidth caps the length-derived column width; sizing is cosmetic
// and has no effect on cell data.
const maxColWidth = 50

// WriteXLSX serializes a rendered document into XLSX bytes.
func WriteXLSX(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for si, sheet := range doc.Sheets {
		if si == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	widths := make([]int, 0, 32)
	for ri, row := range sheet.Rows {
		for ci, cell := range row {
			for len(widths) <= ci {
				widths = append(widths, 0)
			}
			if n := len(cell.Display()); n > widths[ci] {
				widths[ci] = n
			}
			if cell.Kind == CellEmpty {
				continue
			}
			name, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			switch cell.Kind {
			case CellNumber:
				if err := f.SetCellValue(sheet.Name, name, cell.Number.InexactFloat64()); err != nil {
					return fmt.Errorf("set cell %s!%s: %w", sheet.Name, name, err)
				}
			case CellText:
				if err := f.SetCellValue(sheet.Name, name, cell.Text); err != nil {
					return fmt.Errorf("set cell %s!%s: %w", sheet.Name, name, err)
				}
			}
		}
	}

	if len(sheet.Rows) > 0 && len(sheet.Rows[0]) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(sheet.Rows[0]), 1)
		_ = f.SetCellStyle(sheet.Name, "A1", last, headerStyle)
	}

	// Width pass runs after all rows are written.
	for ci, w := range widths {
		col, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			continue
		}
		width := float64(w + 2)
		if width > maxColWidth {
			width = maxColWidth
		}
		_ = f.SetColWidth(sheet.Name, col, col, width)
	}

	// The transposed statements keep their caption column and header
	// row in view, as wide statements scroll horizontally.
	if sheet.Name == schema.SheetStatementOfCashflows || sheet.Name == schema.SheetPCAPStatement {
		_ = f.SetPanes(sheet.Name, &excelize.Panes{
			Freeze: true, XSplit: 1, YSplit: 1,
			TopLeftCell: "B2", ActivePane: "bottomRight",
		})
	}
	return nil
}
