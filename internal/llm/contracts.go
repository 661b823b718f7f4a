package llm

import (
	"context"
	"encoding/base64"
	"errors"
)

// Mode is how both documents are presented to the model. It is chosen once
// per comparison and applies to the invoice and the purchase order alike.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// Image is a rendered page handed to the model.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL encodes the image as a base64 data URL.
func (i Image) DataURL() string {
	mt := i.MIMEType
	if mt == "" {
		mt = "application/octet-stream"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Request is one combined extraction call covering an invoice and a purchase order.
type Request struct {
	Mode   Mode
	Prompt string

	// Text mode.
	InvoiceText       string
	PurchaseOrderText string

	// Image mode.
	InvoiceImage       Image
	PurchaseOrderImage Image
}

// NewTextRequest builds a text-mode request with the text prompt.
func NewTextRequest(invoiceText, poText string) Request {
	return Request{
		Mode:              ModeText,
		Prompt:            TextPrompt,
		InvoiceText:       invoiceText,
		PurchaseOrderText: poText,
	}
}

// NewImageRequest builds an image-mode request with the image prompt. Both images are PNG.
func NewImageRequest(invoicePNG, poPNG []byte) Request {
	return Request{
		Mode:               ModeImage,
		Prompt:             ImagePrompt,
		InvoiceImage:       Image{MIMEType: "image/png", Data: invoicePNG},
		PurchaseOrderImage: Image{MIMEType: "image/png", Data: poPNG},
	}
}

// Validate rejects requests whose payload does not fit their mode.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeText:
		if r.InvoiceText == "" || r.PurchaseOrderText == "" {
			return errors.New("text mode needs both document texts")
		}
	case ModeImage:
		if len(r.InvoiceImage.Data) == 0 || len(r.PurchaseOrderImage.Data) == 0 {
			return errors.New("image mode needs both page images")
		}
	default:
		return errors.New("unknown extraction mode " + string(r.Mode))
	}
	return nil
}

// TextSections returns the labelled document texts that follow the prompt in text mode.
func (r Request) TextSections() []string {
	return []string{
		"\n--- INVOICE TEXT ---\n" + r.InvoiceText,
		"\n--- PO TEXT ---\n" + r.PurchaseOrderText,
	}
}

// PairExtractor is the structured-extraction capability. Implementations make
// exactly one model call per request and return the model's JSON document,
// fence-stripped and shape-checked, or an error. They never retry.
type PairExtractor interface {
	ExtractPair(ctx context.Context, req Request) ([]byte, error)
}
