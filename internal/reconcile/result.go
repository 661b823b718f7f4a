package reconcile

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/po-matcher/constants"
)

// DocumentNumbers echoes both identifiers. They are never compared.
type DocumentNumbers struct {
	Invoice       string `json:"invoice"`
	PurchaseOrder string `json:"purchase_order"`
}

type VendorCheck struct {
	Match         bool   `json:"match"`
	Invoice       string `json:"invoice"`
	PurchaseOrder string `json:"purchase_order"`
}

type TotalCheck struct {
	Match         bool            `json:"match"`
	Invoice       decimal.Decimal `json:"invoice"`
	PurchaseOrder decimal.Decimal `json:"purchase_order"`
	// Difference is |invoice - purchase order| rounded to cents.
	Difference decimal.Decimal `json:"difference"`
}

type ItemsCheck struct {
	Match              bool `json:"match"`
	InvoiceCount       int  `json:"invoice_count"`
	PurchaseOrderCount int  `json:"purchase_order_count"`
	// FirstMismatch is the index of the first differing pair, or -1 when the
	// lists match or differ in length.
	FirstMismatch int `json:"first_mismatch"`
}

// Result is the outcome of one reconciliation. It is built per request and not retained.
type Result struct {
	DocumentNumbers DocumentNumbers   `json:"document_numbers"`
	Vendor          VendorCheck       `json:"vendor"`
	Total           TotalCheck        `json:"total"`
	Items           ItemsCheck        `json:"items"`
	Status          constants.Status  `json:"status"`
	Issues          []constants.Issue `json:"issues"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// Approved reports whether no criterion failed.
func (r Result) Approved() bool {
	return r.Status == constants.StatusApproved
}

// HasIssue reports whether the given issue tag was raised.
func (r Result) HasIssue(issue constants.Issue) bool {
	return slices.Contains(r.Issues, issue)
}
