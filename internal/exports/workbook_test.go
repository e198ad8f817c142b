package exports

import (
	"bytes"
	"testing"
	"time"

	"eventquote_backend/internal/quotations/transport"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func sampleQuotation() *transport.QuotationResponse {
	return &transport.QuotationResponse{
		ID:        uuid.MustParse("2f1d1c3e-0000-4000-8000-000000000001"),
		Name:      "Garcia wedding",
		Status:    "pending_approval",
		PriceMode: "automatic",
		Subtotal:  "1500.00",
		NetCosts:  "-100.00",
		Total:     "1400.00",
		CreatedAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		Lines: []transport.LineSnapshotResponse{
			{
				SectionName: "Catering", CategoryName: "Menu", ItemName: "=HYPERLINK(\"x\")",
				UtilityType: "service", Quantity: 100,
				UnitPrice: "15.00", UnitCost: "9.00", UnitOverhead: "1.50", UnitUtility: "4.50", LineTotal: "1500.00",
			},
		},
		Costs: []transport.CostResponse{{Name: "Early payment", Amount: "-100.00", Kind: "discount"}},
	}
}

func TestBuildQuotationWorkbook(t *testing.T) {
	body, err := BuildQuotationWorkbook(sampleQuotation())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != sheetQuotation || sheets[1] != sheetCosts {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	title, _ := f.GetCellValue(sheetQuotation, "A1")
	if title != "Garcia wedding" {
		t.Fatalf("unexpected title %q", title)
	}
	item, _ := f.GetCellValue(sheetQuotation, "C6")
	if item != "'=HYPERLINK(\"x\")" {
		t.Fatalf("expected formula to be neutralized, got %q", item)
	}
	qty, _ := f.GetCellValue(sheetQuotation, "E6")
	if qty != "100" {
		t.Fatalf("unexpected quantity %q", qty)
	}
	cost, _ := f.GetCellValue(sheetCosts, "A2")
	if cost != "Early payment" {
		t.Fatalf("unexpected cost name %q", cost)
	}
}

func TestExportFileName(t *testing.T) {
	q := sampleQuotation()
	if got := exportFileName(q); got != "Garcia-wedding-2f1d1c3e.xlsx" {
		t.Fatalf("unexpected file name %q", got)
	}
	q.Name = "###"
	if got := exportFileName(q); got != "quotation-2f1d1c3e.xlsx" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}
