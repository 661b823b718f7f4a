package document

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePair_FullContract(t *testing.T) {
	raw := []byte(`{
		"invoice_data": {"invoice_no": "INV-001", "date": "2024-03-01", "vendor": "Acme",
			"items": [{"description": "Widget", "quantity": 2, "price": 75.00}], "total": 150.00},
		"po_data": {"po_no": "PO-77", "date": "2024-02-20", "vendor": "Acme",
			"items": [{"description": "Widget", "quantity": 2, "price": 75}], "total": "150"}
	}`)

	pair, err := DecodePair(raw)
	require.NoError(t, err)

	inv := pair.Invoice
	assert.Equal(t, KindInvoice, inv.Kind)
	assert.Equal(t, "INV-001", inv.Number)
	assert.Equal(t, "2024-03-01", inv.Date)
	assert.Equal(t, "Acme", inv.Vendor)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Widget", inv.Items[0].Description)
	assert.Equal(t, int64(2), inv.Items[0].Quantity)
	assert.True(t, inv.Items[0].Price.Equal(decimal.NewFromInt(75)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(150)))
	assert.Empty(t, inv.Coerced)

	po := pair.PurchaseOrder
	assert.Equal(t, KindPurchaseOrder, po.Kind)
	assert.Equal(t, "PO-77", po.Number)
	assert.True(t, po.Total.Equal(decimal.NewFromInt(150)))
	assert.Empty(t, po.Coerced)
}

func TestDecodePair_MissingFieldsDefault(t *testing.T) {
	pair, err := DecodePair([]byte(`{"invoice_data": {"items": [{}]}}`))
	require.NoError(t, err)

	inv := pair.Invoice
	assert.Equal(t, NotAvailable, inv.Number)
	assert.Equal(t, "", inv.Vendor)
	assert.True(t, inv.Total.IsZero())
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "", inv.Items[0].Description)
	assert.Equal(t, int64(0), inv.Items[0].Quantity)
	assert.True(t, inv.Items[0].Price.IsZero())

	fields := make([]string, 0, len(inv.Coerced))
	for _, c := range inv.Coerced {
		fields = append(fields, c.Field)
	}
	assert.ElementsMatch(t, []string{"total", "items[0].quantity", "items[0].price"}, fields)

	po := pair.PurchaseOrder
	assert.Equal(t, KindPurchaseOrder, po.Kind)
	assert.Equal(t, NotAvailable, po.Number)
	assert.Empty(t, po.Items)
}

func TestDecodePair_MalformedNumbersCoerceToZero(t *testing.T) {
	raw := []byte(`{"invoice_data": {"total": "abc",
		"items": [{"description": "Bolt", "quantity": "many", "price": "1O.00"}, "junk"]},
		"po_data": {"po_no": 4411, "total": null}}`)

	pair, err := DecodePair(raw)
	require.NoError(t, err)

	inv := pair.Invoice
	assert.True(t, inv.Total.IsZero())
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Bolt", inv.Items[0].Description)
	assert.Equal(t, int64(0), inv.Items[0].Quantity)
	assert.True(t, inv.Items[0].Price.IsZero())
	assert.Equal(t, LineItem{}, inv.Items[1])
	assert.Len(t, inv.Coerced, 4)
	assert.Contains(t, inv.Coerced[0].String(), "total: malformed")

	assert.Equal(t, "4411", pair.PurchaseOrder.Number)
	assert.True(t, pair.PurchaseOrder.Total.IsZero())
}

func TestDecodePair_FractionalQuantityTruncates(t *testing.T) {
	pair, err := DecodePair([]byte(`{"invoice_data": {"items": [{"quantity": 2.7, "price": 1}, {"quantity": "3", "price": "2.50"}]}}`))
	require.NoError(t, err)

	items := pair.Invoice.Items
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].Quantity)
	assert.Equal(t, int64(3), items[1].Quantity)
	assert.True(t, items[1].Price.Equal(decimal.RequireFromString("2.5")))
	require.Len(t, pair.Invoice.Coerced, 2)
	assert.Equal(t, "total", pair.Invoice.Coerced[0].Field)
	assert.Equal(t, "items[0].quantity", pair.Invoice.Coerced[1].Field)
}

func TestDecodePair_OutOfRangeQuantityDefaultsToZero(t *testing.T) {
	pair, err := DecodePair([]byte(`{"invoice_data": {"items": [{"quantity": 1e30, "price": 1}, {"quantity": "-99999999999999999999", "price": 1}], "total": 2}}`))
	require.NoError(t, err)

	items := pair.Invoice.Items
	require.Len(t, items, 2)
	assert.Equal(t, int64(0), items[0].Quantity)
	assert.Equal(t, int64(0), items[1].Quantity)
	require.Len(t, pair.Invoice.Coerced, 2)
	assert.Equal(t, "items[0].quantity", pair.Invoice.Coerced[0].Field)
	assert.Contains(t, pair.Invoice.Coerced[0].Reason, "out of range")
	assert.Equal(t, "items[1].quantity", pair.Invoice.Coerced[1].Field)
	assert.Contains(t, pair.Invoice.Coerced[1].Reason, "out of range")
}

func TestDecodePair_RejectsNonObject(t *testing.T) {
	_, err := DecodePair([]byte(`not json`))
	require.Error(t, err)

	_, err = DecodePair([]byte(`{"invoice_data": "INV-1"}`))
	require.Error(t, err)
}

func TestSourceFormat(t *testing.T) {
	assert.Equal(t, "PDF", string(Source{Name: "invoice.PDF"}.Format()))
	assert.Equal(t, "IMAGE", string(Source{Name: "scan.jpeg"}.Format()))
	assert.Equal(t, "PDF", string(Source{Name: "upload", Data: []byte("%PDF-1.7\n...")}.Format()))
	assert.Equal(t, "", string(Source{Name: "notes.txt", Data: []byte("hello")}.Format()))
	assert.True(t, Source{Name: "x.pdf"}.Empty())
}
