package report

import (
	"html/template"
	"io"

	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/pipeline"
)

type htmlItem struct {
	Description string
	Quantity    int64
	Price       string
}

type htmlRecord struct {
	Title       string
	NumberLabel string
	Number      string
	Date        string
	Vendor      string
	Items       []htmlItem
	Total       string
}

type htmlLine struct {
	Text  string
	Class string
	Mark  string
}

type htmlData struct {
	RequestID string
	Mode      string
	Records   []htmlRecord
	Lines     []htmlLine
	Status    string
	Approved  bool
	Warnings  []string
}

var pageTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice &amp; PO Matching Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; background: #f3f4f6; margin: 0; padding: 24px; color: #111827; }
.header { background-color: #1f2937; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
.cols { display: flex; gap: 20px; margin-top: 20px; }
.card { flex: 1; background-color: #ffffff; border-radius: 8px; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1); padding: 20px; margin-bottom: 20px; }
table { width: 100%; border-collapse: collapse; }
th { text-align: left; padding: 8px; font-weight: 600; }
td { padding: 8px; border-top: 1px solid #e5e7eb; }
.pass { color: #15803d; }
.fail { color: #b91c1c; }
.status-approved { color: #15803d; font-weight: bold; }
.status-review { color: #b91c1c; font-weight: bold; }
.warnings { color: #92400e; }
.meta { font-size: 12px; color: #6b7280; }
</style>
</head>
<body>
<div class="header">
  <h1>📑 Invoice &amp; PO Matching Report</h1>
  <p class="meta">Request {{.RequestID}} · {{.Mode}} extraction</p>
</div>
<div class="cols">
{{- range .Records}}
  <div class="card">
    <h2>{{.Title}}</h2>
    <p><strong>{{.NumberLabel}} #:</strong> {{.Number}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Vendor:</strong> {{.Vendor}}</p>
    <h3>Items</h3>
    {{- if .Items}}
    <table>
      <thead><tr><th>Description</th><th>Quantity</th><th>Price</th></tr></thead>
      <tbody>
      {{- range .Items}}
        <tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
      {{- end}}
      </tbody>
    </table>
    {{- else}}
    <p class="meta">No items found.</p>
    {{- end}}
    <h3>Total: {{.Total}}</h3>
  </div>
{{- end}}
</div>
<div class="card">
  <h2>🔎 Match/Mismatch Summary</h2>
  {{- range .Lines}}
  <div class="{{.Class}}">{{.Text}} {{.Mark}}</div>
  {{- end}}
  <p class="{{if .Approved}}status-approved{{else}}status-review{{end}}">{{.Status}}</p>
  {{- if .Warnings}}
  <div class="warnings">
    <strong>Defaulted fields (may hide discrepancies):</strong>
    <ul>{{range .Warnings}}<li>{{.}}</li>{{end}}</ul>
  </div>
  {{- end}}
</div>
</body>
</html>
`))

// HTML writes a standalone page with both document cards and the summary.
func HTML(w io.Writer, cmp pipeline.Comparison) error {
	data := htmlData{
		RequestID: cmp.RequestID,
		Mode:      string(cmp.Mode),
		Records: []htmlRecord{
			toHTMLRecord("📄 Invoice Details", "Invoice", cmp.Invoice),
			toHTMLRecord("📑 Purchase Order Details", "PO", cmp.PurchaseOrder),
		},
		Status:   StatusLine(cmp.Result),
		Approved: cmp.Result.Approved(),
		Warnings: cmp.Result.Warnings,
	}
	for _, l := range Summary(cmp) {
		hl := htmlLine{Text: l.Text}
		switch l.Mark {
		case MarkPass:
			hl.Class, hl.Mark = "pass", "✓"
		case MarkFail:
			hl.Class, hl.Mark = "fail", "✗"
		}
		data.Lines = append(data.Lines, hl)
	}
	return pageTmpl.Execute(w, data)
}

func toHTMLRecord(title, label string, rec document.Record) htmlRecord {
	out := htmlRecord{
		Title:       title,
		NumberLabel: label,
		Number:      rec.Number,
		Date:        orNA(rec.Date),
		Vendor:      orNA(rec.Vendor),
		Total:       Money(rec.Total),
	}
	for _, it := range rec.Items {
		out.Items = append(out.Items, htmlItem{Description: orNA(it.Description), Quantity: it.Quantity, Price: Money(it.Price)})
	}
	return out
}
