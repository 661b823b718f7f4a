// Package report renders a comparison as text, JSON, HTML, XLSX or PDF.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/pipeline"
	"github.com/joseph-ayodele/po-matcher/internal/reconcile"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name case-insensitively; "" means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatHTML, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", common.InvalidInput(fmt.Sprintf("unknown report format %q", s))
}

func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX || f == FormatPDF
}

// Config for rendering.
type Config struct {
	Color        bool          // ANSI colour in text reports
	ChromiumPath string        // "" lets chromedp find a browser
	PDFTimeout   time.Duration // default 15s
}

type Renderer struct {
	cfg    Config
	logger *slog.Logger
}

func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PDFTimeout <= 0 {
		cfg.PDFTimeout = 15 * time.Second
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Render writes cmp to w in format f.
func (r *Renderer) Render(ctx context.Context, w io.Writer, f Format, cmp pipeline.Comparison) error {
	start := time.Now()
	var err error
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(cmp)
	case FormatText:
		err = Text(w, cmp, r.cfg.Color)
	case FormatHTML:
		err = HTML(w, cmp)
	case FormatXLSX:
		err = XLSX(w, cmp)
	case FormatPDF:
		var pdf []byte
		if pdf, err = r.PDF(ctx, cmp); err == nil {
			_, err = w.Write(pdf)
		}
	default:
		return common.InvalidInput(fmt.Sprintf("unknown report format %q", f))
	}
	if err != nil {
		r.logger.Error("report.render.failed", "req_id", cmp.RequestID, "format", f, "error", err)
		return fmt.Errorf("render %s report: %w", f, err)
	}
	r.logger.Debug("report.render.ok", "req_id", cmp.RequestID, "format", f, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// Money formats an amount the way the reports show it.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Mark tags a summary line as passed or failed.
type Mark int

const (
	MarkNone Mark = iota
	MarkPass
	MarkFail
)

// Line is one row of the match/mismatch summary.
type Line struct {
	Text string
	Mark Mark
}

// Summary builds the match/mismatch lines shared by every human-readable format.
func Summary(cmp pipeline.Comparison) []Line {
	res := cmp.Result
	lines := []Line{
		{Text: fmt.Sprintf("• Invoice #%s matches PO #%s", res.DocumentNumbers.Invoice, res.DocumentNumbers.PurchaseOrder)},
	}

	if res.Vendor.Match {
		lines = append(lines, Line{Text: "• Vendor matches: " + res.Vendor.Invoice, Mark: MarkPass})
	} else {
		lines = append(lines, Line{
			Text: fmt.Sprintf("• Vendor mismatch: Invoice (%s) vs PO (%s)", res.Vendor.Invoice, res.Vendor.PurchaseOrder),
			Mark: MarkFail,
		})
	}

	if res.Total.Match {
		lines = append(lines, Line{Text: "• Total amount matches: " + Money(res.Total.Invoice), Mark: MarkPass})
	} else {
		lines = append(lines,
			Line{
				Text: fmt.Sprintf("• Total amount mismatch: Invoice (%s) vs PO (%s)", Money(res.Total.Invoice), Money(res.Total.PurchaseOrder)),
				Mark: MarkFail,
			},
			Line{Text: "→ Difference: " + Money(res.Total.Difference)},
		)
	}

	if res.Items.Match {
		lines = append(lines, Line{Text: "• All items match", Mark: MarkPass})
	} else {
		lines = append(lines, Line{Text: "• Items mismatch", Mark: MarkFail}, Line{Text: itemsDetail(res.Items)})
	}
	return lines
}

func itemsDetail(c reconcile.ItemsCheck) string {
	if c.InvoiceCount != c.PurchaseOrderCount {
		return fmt.Sprintf("→ Invoice lists %d items, PO lists %d", c.InvoiceCount, c.PurchaseOrderCount)
	}
	return fmt.Sprintf("→ First difference at item %d", c.FirstMismatch+1)
}

// StatusLine is the closing verdict of the summary.
func StatusLine(res reconcile.Result) string {
	if res.Approved() {
		return "→ Status: APPROVED - No issues found! ✅"
	}
	return "→ Status: NEEDS REVIEW ⚠️ - Please check the highlighted discrepancies!"
}
