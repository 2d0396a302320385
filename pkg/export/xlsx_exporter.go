package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Report"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the optional title, a bold header row and one styled row per record.
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	if title != "" {
		titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
		if err != nil {
			return nil, fmt.Errorf("create title style: %w", err)
		}
		if err := f.SetCellStr(xlsxSheet, cellName(1, row), title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheet, cellName(1, row), cellName(1, row), titleStyle); err != nil {
			return nil, fmt.Errorf("style title: %w", err)
		}
		row += 2
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F0F0F0"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	for i, header := range data.Headers {
		if err := f.SetCellStr(xlsxSheet, cellName(i+1, row), header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(xlsxSheet, cellName(1, row), cellName(len(data.Headers), row), headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	row++

	styles := make(map[RowStyle]int)
	for i, record := range data.Rows {
		for col, value := range data.record(record) {
			if err := f.SetCellStr(xlsxSheet, cellName(col+1, row), value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i, err)
			}
		}
		style := data.styleAt(i)
		if !style.IsZero() {
			id, ok := styles[style]
			if !ok {
				id, err = f.NewStyle(xlsxStyle(style))
				if err != nil {
					return nil, fmt.Errorf("create row style: %w", err)
				}
				styles[style] = id
			}
			if err := f.SetCellStyle(xlsxSheet, cellName(1, row), cellName(len(data.Headers), row), id); err != nil {
				return nil, fmt.Errorf("style row %d: %w", i, err)
			}
		}
		row++
	}

	last, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, fmt.Errorf("resolve column: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "A", last, 18); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxStyle(s RowStyle) *excelize.Style {
	style := &excelize.Style{Font: &excelize.Font{
		Bold:   s.Bold,
		Italic: s.Italic,
		Color:  normalizeHex(s.Color),
	}}
	if bg := normalizeHex(s.Background); bg != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bg}}
	}
	return style
}

func cellName(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
