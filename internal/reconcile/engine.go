package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/po-matcher/constants"
	"github.com/joseph-ayodele/po-matcher/internal/document"
)

// TotalTolerance is the absolute difference below which two totals are equal.
var TotalTolerance = decimal.New(1, -2)

// Reconcile compares an invoice with a purchase order.
//
// Vendors must be byte-for-byte equal, totals must differ by less than
// TotalTolerance, and line items must agree position by position on
// description, quantity and price with no tolerance. Document numbers are
// echoed but never compared. The inputs are not modified.
func Reconcile(invoice, po document.Record) Result {
	res := Result{
		DocumentNumbers: DocumentNumbers{Invoice: invoice.Number, PurchaseOrder: po.Number},
		Vendor:          compareVendor(invoice.Vendor, po.Vendor),
		Total:           compareTotal(invoice.Total, po.Total),
		Items:           compareItems(invoice.Items, po.Items),
		Issues:          []constants.Issue{},
	}

	if !res.Vendor.Match {
		res.Issues = append(res.Issues, constants.IssueVendorMismatch)
	}
	if !res.Total.Match {
		res.Issues = append(res.Issues, constants.IssueTotalMismatch)
	}
	if !res.Items.Match {
		res.Issues = append(res.Issues, constants.IssueItemsMismatch)
	}

	res.Status = constants.StatusApproved
	if len(res.Issues) > 0 {
		res.Status = constants.StatusNeedsReview
	}

	for _, c := range invoice.Coerced {
		res.Warnings = append(res.Warnings, "invoice "+c.String())
	}
	for _, c := range po.Coerced {
		res.Warnings = append(res.Warnings, "purchase order "+c.String())
	}
	return res
}

func compareVendor(invoice, po string) VendorCheck {
	return VendorCheck{Match: invoice == po, Invoice: invoice, PurchaseOrder: po}
}

func compareTotal(invoice, po decimal.Decimal) TotalCheck {
	diff := invoice.Sub(po).Abs()
	return TotalCheck{
		Match:         diff.LessThan(TotalTolerance),
		Invoice:       invoice,
		PurchaseOrder: po,
		Difference:    diff.Round(2),
	}
}

func compareItems(invoice, po []document.LineItem) ItemsCheck {
	check := ItemsCheck{
		InvoiceCount:       len(invoice),
		PurchaseOrderCount: len(po),
		FirstMismatch:      -1,
	}
	if len(invoice) != len(po) {
		return check
	}
	for i := range invoice {
		if !sameItem(invoice[i], po[i]) {
			check.FirstMismatch = i
			return check
		}
	}
	check.Match = true
	return check
}

func sameItem(a, b document.LineItem) bool {
	return a.Description == b.Description &&
		a.Quantity == b.Quantity &&
		a.Price.Equal(b.Price)
}
