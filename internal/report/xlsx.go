package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/pipeline"
)

const (
	sheetSummary       = "Summary"
	sheetInvoice       = "Invoice"
	sheetPurchaseOrder = "Purchase Order"
)

// XLSX writes a workbook with a Summary sheet and one sheet per document.
func XLSX(w io.Writer, cmp pipeline.Comparison) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	for _, name := range []string{sheetInvoice, sheetPurchaseOrder} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx new sheet: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	res := cmp.Result
	summary := [][]any{
		{"Field", "Invoice", "Purchase Order", "Match"},
		{"Document #", res.DocumentNumbers.Invoice, res.DocumentNumbers.PurchaseOrder, ""},
		{"Vendor", res.Vendor.Invoice, res.Vendor.PurchaseOrder, yesNo(res.Vendor.Match)},
		{"Total", res.Total.Invoice.InexactFloat64(), res.Total.PurchaseOrder.InexactFloat64(), yesNo(res.Total.Match)},
		{"Difference", res.Total.Difference.InexactFloat64(), "", ""},
		{"Items", res.Items.InvoiceCount, res.Items.PurchaseOrderCount, yesNo(res.Items.Match)},
		{},
		{"Status", string(res.Status)},
		{"Request", cmp.RequestID},
		{"Mode", string(cmp.Mode)},
	}
	for i, issue := range res.Issues {
		summary = append(summary, []any{fmt.Sprintf("Issue %d", i+1), string(issue)})
	}
	for _, warn := range res.Warnings {
		summary = append(summary, []any{"Warning", warn})
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}
	_ = f.SetCellStyle(sheetSummary, "A1", "D1", bold)
	_ = f.SetColWidth(sheetSummary, "A", "A", 14)
	_ = f.SetColWidth(sheetSummary, "B", "C", 28)
	_ = f.SetColWidth(sheetSummary, "D", "D", 8)

	for _, doc := range []struct {
		sheet string
		rec   document.Record
	}{{sheetInvoice, cmp.Invoice}, {sheetPurchaseOrder, cmp.PurchaseOrder}} {
		if err := writeRecordSheet(f, doc.sheet, doc.rec); err != nil {
			return err
		}
		_ = f.SetCellStyle(doc.sheet, "A6", "C6", bold)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRecordSheet(f *excelize.File, sheet string, rec document.Record) error {
	rows := [][]any{
		{"Number", rec.Number},
		{"Date", rec.Date},
		{"Vendor", rec.Vendor},
		{"Total", rec.Total.InexactFloat64()},
		{},
		{"Description", "Quantity", "Price"},
	}
	for _, it := range rec.Items {
		rows = append(rows, []any{it.Description, it.Quantity, it.Price.InexactFloat64()})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "C", 14)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
