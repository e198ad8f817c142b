package exports

import (
	"bytes"
	"fmt"
	"strings"

	"eventquote_backend/internal/quotations/transport"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetQuotation = "Quotation"
	sheetCosts     = "Costs"
	// Excel built-in number format "#,##0.00".
	numFmtMoney = 4
)

var lineHeaders = []string{
	"Section", "Category", "Item", "Type", "Qty",
	"Unit price", "Unit cost", "Unit overhead", "Unit utility", "Line total",
}

// BuildQuotationWorkbook renders a quotation snapshot as an XLSX workbook with
// the priced lines on the first sheet and the additional costs on the second.
func BuildQuotationWorkbook(q *transport.QuotationResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetQuotation); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	widths := []float64{20, 20, 36, 10, 8, 14, 14, 14, 14, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetQuotation, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	f.SetCellValue(sheetQuotation, "A1", sanitizeCell(q.Name))
	f.SetCellStyle(sheetQuotation, "A1", "A1", titleStyle)
	f.SetCellValue(sheetQuotation, "A2", "Status: "+q.Status)
	f.SetCellValue(sheetQuotation, "C2", "Price mode: "+q.PriceMode)
	f.SetCellValue(sheetQuotation, "A3", "Created: "+q.CreatedAt.Format("2006-01-02"))

	const headerRow = 5
	for i, h := range lineHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheetQuotation, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(lineHeaders))
	f.SetCellStyle(sheetQuotation, "A5", fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle)

	row := headerRow + 1
	for _, l := range q.Lines {
		values := []interface{}{
			sanitizeCell(l.SectionName),
			sanitizeCell(l.CategoryName),
			sanitizeCell(l.ItemName),
			l.UtilityType,
			l.Quantity,
			money(l.UnitPrice),
			money(l.UnitCost),
			money(l.UnitOverhead),
			money(l.UnitUtility),
			money(l.LineTotal),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheetQuotation, cell, v)
		}
		f.SetCellStyle(sheetQuotation, fmt.Sprintf("F%d", row), fmt.Sprintf("J%d", row), moneyStyle)
		row++
	}

	row++
	for _, summary := range []struct {
		label string
		value string
	}{
		{"Subtotal", q.Subtotal},
		{"Net costs", q.NetCosts},
		{"Total", q.Total},
	} {
		f.SetCellValue(sheetQuotation, fmt.Sprintf("I%d", row), summary.label)
		f.SetCellValue(sheetQuotation, fmt.Sprintf("J%d", row), money(summary.value))
		f.SetCellStyle(sheetQuotation, fmt.Sprintf("J%d", row), fmt.Sprintf("J%d", row), totalStyle)
		row++
	}

	if _, err := f.NewSheet(sheetCosts); err != nil {
		return nil, fmt.Errorf("create costs sheet: %w", err)
	}
	for i, h := range []string{"Name", "Kind", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetCosts, cell, h)
	}
	f.SetCellStyle(sheetCosts, "A1", "C1", headerStyle)
	f.SetColWidth(sheetCosts, "A", "A", 32)
	for i, c := range q.Costs {
		r := i + 2
		f.SetCellValue(sheetCosts, fmt.Sprintf("A%d", r), sanitizeCell(c.Name))
		f.SetCellValue(sheetCosts, fmt.Sprintf("B%d", r), c.Kind)
		f.SetCellValue(sheetCosts, fmt.Sprintf("C%d", r), money(c.Amount))
		f.SetCellStyle(sheetCosts, fmt.Sprintf("C%d", r), fmt.Sprintf("C%d", r), moneyStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// money converts a fixed-point amount to a spreadsheet number. Unparseable
// values are written as text.
func money(amount string) interface{} {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return d.InexactFloat64()
}

// sanitizeCell prevents formula injection by prefixing leading formula
// characters with a single quote.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
