package document

import (
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/po-matcher/constants"
)

// Kind tags a Record as an invoice or a purchase order.
type Kind string

const (
	KindInvoice       Kind = "invoice"
	KindPurchaseOrder Kind = "purchase_order"
)

// NotAvailable is the sentinel used for an absent document number.
const NotAvailable = "N/A"

// LineItem is one row of a document's item list. It has no identity beyond its position.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Coercion records a numeric field that was defaulted instead of rejected.
type Coercion struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (c Coercion) String() string {
	return fmt.Sprintf("%s: %s", c.Field, c.Reason)
}

// Record is the structured form of an invoice or purchase order.
// Records are treated as immutable once decoded.
type Record struct {
	Kind    Kind            `json:"kind"`
	Number  string          `json:"number"`
	Date    string          `json:"date"`
	Vendor  string          `json:"vendor"`
	Items   []LineItem      `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Coerced []Coercion      `json:"coerced,omitempty"`
}

// Label is the human name of the record's kind.
func (r Record) Label() string {
	if r.Kind == KindPurchaseOrder {
		return "Purchase Order"
	}
	return "Invoice"
}

// Pair is what the extraction gateway hands to the reconciliation engine.
type Pair struct {
	Invoice       Record
	PurchaseOrder Record
}

// Source is one uploaded document: a filename hint plus its raw bytes.
type Source struct {
	Name string
	Data []byte
}

// Empty reports whether no document content was supplied.
func (s Source) Empty() bool {
	return len(s.Data) == 0
}

// Format resolves the file format from the extension, falling back to content sniffing.
func (s Source) Format() constants.FileFormat {
	if f := constants.MapExtToFormat(filepath.Ext(s.Name)); f != "" {
		return f
	}
	return constants.SniffFormat(s.Data)
}
