package extract

import (
	"context"

	"github.com/joseph-ayodele/po-matcher/internal/document"
)

// TextExtractor pulls the embedded text layer out of a document.
// Documents without a text layer yield "" and no error.
type TextExtractor interface {
	ExtractText(ctx context.Context, src document.Source) (string, error)
}

// PageRenderer turns the first page of a document into a PNG image.
type PageRenderer interface {
	RenderFirstPage(ctx context.Context, src document.Source) ([]byte, error)
}

// Config for the text layer and page rendering.
type Config struct {
	Pdftotext    string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm     string // binary name or absolute path; if empty -> "pdftoppm"
	UsePdftotext bool   // fall back to pdftotext when the pure-Go reader finds nothing
	DPI          int    // rasterization DPI, default 300
	MaxImageDim  int    // longest side of rendered images, default 2000
	TmpDir       string // scratch dir for external binaries; "" -> os.TempDir()

	// HeicConverter converts HEIC photos to PNG: heif-convert | magick | sips.
	// If empty -> "magick".
	HeicConverter string
}

func (c Config) withDefaults() Config {
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.HeicConverter == "" {
		c.HeicConverter = "magick"
	}
	if c.MaxImageDim <= 0 {
		c.MaxImageDim = 2000
	}
	return c
}
