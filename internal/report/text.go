package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/pipeline"
)

func painter(enabled bool, attrs ...color.Attribute) func(a ...any) string {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// Text writes both document cards followed by the match/mismatch summary.
func Text(w io.Writer, cmp pipeline.Comparison, colored bool) error {
	bold := painter(colored, color.Bold)
	green := painter(colored, color.FgGreen, color.Bold)
	red := painter(colored, color.FgRed, color.Bold)
	yellow := painter(colored, color.FgYellow)

	bw := bufio.NewWriter(w)
	writeRecord(bw, "📄 Invoice Details", "Invoice", cmp.Invoice, bold)
	writeRecord(bw, "📑 Purchase Order Details", "PO", cmp.PurchaseOrder, bold)

	fmt.Fprintln(bw, bold("🔎 Match/Mismatch Summary"))
	for _, l := range Summary(cmp) {
		switch l.Mark {
		case MarkPass:
			fmt.Fprintln(bw, l.Text, green("✓"))
		case MarkFail:
			fmt.Fprintln(bw, l.Text, red("✗"))
		default:
			fmt.Fprintln(bw, l.Text)
		}
	}
	if cmp.Result.Approved() {
		fmt.Fprintln(bw, green(StatusLine(cmp.Result)))
	} else {
		fmt.Fprintln(bw, red(StatusLine(cmp.Result)))
	}

	if len(cmp.Result.Warnings) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, yellow("Defaulted fields (may hide discrepancies):"))
		for _, warn := range cmp.Result.Warnings {
			fmt.Fprintln(bw, yellow("  - "+warn))
		}
	}
	return bw.Flush()
}

func writeRecord(w io.Writer, title, numberLabel string, rec document.Record, bold func(a ...any) string) {
	fmt.Fprintln(w, bold(title))
	fmt.Fprintf(w, "%s #: %s\n", numberLabel, rec.Number)
	fmt.Fprintf(w, "Date: %s\n", orNA(rec.Date))
	fmt.Fprintf(w, "Vendor: %s\n", orNA(rec.Vendor))

	if len(rec.Items) == 0 {
		fmt.Fprintln(w, "No items found.")
	} else {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Description", "Quantity", "Price"})
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, it := range rec.Items {
			table.Append([]string{orNA(it.Description), strconv.FormatInt(it.Quantity, 10), Money(it.Price)})
		}
		table.Render()
	}
	fmt.Fprintf(w, "Total: %s\n\n", Money(rec.Total))
}

func orNA(s string) string {
	if s == "" {
		return document.NotAvailable
	}
	return s
}
