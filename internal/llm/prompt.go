package llm

import "fmt"

const outputContract = `Return your findings ONLY as a single, minified JSON object. The JSON structure must be:
{
  "invoice_data": {
    "invoice_no": "...", "date": "...", "vendor": "...",
    "items": [{"description": "...", "quantity": 1, "price": 0.00}],
    "total": 0.00
  },
  "po_data": {
    "po_no": "...", "date": "...", "vendor": "...",
    "items": [{"description": "...", "quantity": 1, "price": 0.00}],
    "total": 0.00
  }
}
`

const fieldList = `From the INVOICE %[1]s, extract:
- Invoice Number
- Date
- Vendor Name
- A list of all line items. Each item should have a 'description', 'quantity', and 'price'.
- Total Amount

From the PURCHASE ORDER %[1]s, extract:
- PO Number
- Date
- Vendor Name
- A list of all ordered items. Each item should have a 'description', 'quantity', and 'price'.
- Total Amount

`

// TextPrompt leads a text-mode request; the two document texts follow it.
var TextPrompt = "You are an expert accounts payable specialist. Your task is to analyze the following text content " +
	"from an invoice and a purchase order and extract key information.\n\n" +
	fmt.Sprintf(fieldList, "text") + outputContract

// ImagePrompt leads an image-mode request; the invoice image then the purchase order image follow it.
var ImagePrompt = "You are an expert accounts payable specialist. Your task is to extract key information " +
	"from the provided document images.\n\n" +
	fmt.Sprintf(fieldList, "image") + outputContract
