package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DecodePair turns the capability's JSON document into an invoice and a purchase order.
//
// Missing sections decode as empty records. Numeric fields that are missing or
// malformed default to zero and are listed in Record.Coerced; decoding only
// fails when raw is not a JSON object of the expected nesting.
func DecodePair(raw []byte) (Pair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var envelope struct {
		InvoiceData map[string]any `json:"invoice_data"`
		PoData      map[string]any `json:"po_data"`
	}
	if err := dec.Decode(&envelope); err != nil {
		return Pair{}, fmt.Errorf("decode extraction json: %w", err)
	}
	return Pair{
		Invoice:       decodeRecord(KindInvoice, "invoice_no", envelope.InvoiceData),
		PurchaseOrder: decodeRecord(KindPurchaseOrder, "po_no", envelope.PoData),
	}, nil
}

func decodeRecord(kind Kind, numberKey string, m map[string]any) Record {
	rec := Record{Kind: kind, Number: NotAvailable, Items: []LineItem{}}

	if s, ok := coerceText(m[numberKey]); ok {
		rec.Number = s
	}
	rec.Date, _ = coerceText(m["date"])
	rec.Vendor, _ = coerceText(m["vendor"])

	var c Coercion
	var ok bool
	if rec.Total, c, ok = coerceMoney("total", m["total"]); !ok {
		rec.Coerced = append(rec.Coerced, c)
	}

	rawItems, _ := m["items"].([]any)
	for i, it := range rawItems {
		prefix := fmt.Sprintf("items[%d]", i)
		obj, isObj := it.(map[string]any)
		if !isObj {
			rec.Items = append(rec.Items, LineItem{})
			rec.Coerced = append(rec.Coerced, Coercion{Field: prefix, Reason: "not an object"})
			continue
		}
		var item LineItem
		item.Description, _ = coerceText(obj["description"])
		if item.Quantity, c, ok = coerceQuantity(prefix+".quantity", obj["quantity"]); !ok {
			rec.Coerced = append(rec.Coerced, c)
		}
		if item.Price, c, ok = coerceMoney(prefix+".price", obj["price"]); !ok {
			rec.Coerced = append(rec.Coerced, c)
		}
		rec.Items = append(rec.Items, item)
	}
	return rec
}

// coerceText renders scalar JSON values as text; absent and null report false.
func coerceText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

func parseDecimal(v any) (decimal.Decimal, string, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, "missing", false
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero, fmt.Sprintf("malformed %q", t.String()), false
		}
		return d, "", true
	case float64:
		return decimal.NewFromFloat(t), "", true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, "empty", false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Sprintf("malformed %q", t), false
		}
		return d, "", true
	default:
		return decimal.Zero, fmt.Sprintf("unexpected type %T", v), false
	}
}

func coerceMoney(field string, v any) (decimal.Decimal, Coercion, bool) {
	d, reason, ok := parseDecimal(v)
	if !ok {
		return decimal.Zero, Coercion{Field: field, Reason: reason + ", using 0.00"}, false
	}
	return d, Coercion{}, true
}

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// coerceQuantity truncates toward zero, so 2.0 and "2" both read as 2.
func coerceQuantity(field string, v any) (int64, Coercion, bool) {
	d, reason, ok := parseDecimal(v)
	if !ok {
		return 0, Coercion{Field: field, Reason: reason + ", using 0"}, false
	}
	if d.Abs().GreaterThan(maxQuantity) {
		return 0, Coercion{Field: field, Reason: fmt.Sprintf("%s out of range, using 0", d.String())}, false
	}
	q := d.IntPart()
	if !d.Equal(decimal.NewFromInt(q)) {
		return q, Coercion{Field: field, Reason: fmt.Sprintf("fractional %s truncated to %d", d.String(), q)}, false
	}
	return q, Coercion{}, true
}
