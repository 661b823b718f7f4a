package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/po-matcher/constants"
	"github.com/joseph-ayodele/po-matcher/internal/document"
)

// TextLayer reads embedded PDF text with the pure-Go reader and, when
// configured, falls back to pdftotext.
type TextLayer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTextLayer(cfg Config, runner Runner, logger *slog.Logger) *TextLayer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &TextLayer{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// ExtractText returns the normalized text layer of src. Raster images have none.
func (t *TextLayer) ExtractText(ctx context.Context, src document.Source) (string, error) {
	switch src.Format() {
	case constants.IMAGE:
		return "", nil
	case constants.PDF:
	default:
		return "", fmt.Errorf("unsupported document %q", src.Name)
	}

	text, readErr := readPDFText(src.Data)
	if readErr != nil {
		t.logger.Warn("extract.text.pdf_reader_failed", "name", src.Name, "error", readErr)
	}
	if text = Normalize(text); text != "" {
		t.logger.Debug("extract.text.ok", "name", src.Name, "method", "pdf-reader", "chars", len(text))
		return text, nil
	}
	if !t.cfg.UsePdftotext {
		return "", readErr
	}

	out, err := t.pdftotext(ctx, src.Data)
	if err != nil {
		return "", err
	}
	text = Normalize(out)
	t.logger.Debug("extract.text.ok", "name", src.Name, "method", "pdftotext", "chars", len(text))
	return text, nil
}

func (t *TextLayer) pdftotext(ctx context.Context, data []byte) (string, error) {
	dir, cleanup, err := scratchDir(t.cfg.TmpDir, t.logger)
	if err != nil {
		return "", err
	}
	defer cleanup()

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}
	// pdftotext -layout -enc UTF-8 -eol unix <in.pdf> -
	out, errb, err := t.runner.Run(ctx, t.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", in, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// readPDFText concatenates the plain text of every page. The reader panics on
// some malformed inputs, so panics are turned into errors.
func readPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(b), nil
}

func scratchDir(base string, logger *slog.Logger) (string, func(), error) {
	dir, err := os.MkdirTemp(base, "pomatch-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("extract.tmp.cleanup_failed", "dir", dir, "error", err)
		}
	}, nil
}
