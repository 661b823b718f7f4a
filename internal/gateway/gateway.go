// Package gateway turns two uploaded documents into an invoice and purchase
// order record with a single structured-extraction call.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/extract"
	"github.com/joseph-ayodele/po-matcher/internal/llm"
)

// Config bounds the capability call.
type Config struct {
	Timeout           time.Duration // whole model call; <= 0 means only the caller's deadline applies
	PrepareTimeout    time.Duration // text layers and page rendering together; <= 0 as above
	RequestsPerSecond float64       // shared across all comparisons
	Burst             int
	MaxTextBytes      int // per document in text mode; 0 = no limit
}

// Result is the extraction outcome for one comparison.
type Result struct {
	Pair document.Pair
	Mode llm.Mode
	Raw  []byte
}

type Gateway struct {
	cfg       Config
	text      extract.TextExtractor
	renderer  extract.PageRenderer
	extractor llm.PairExtractor
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New wires the gateway. Every collaborator is required.
func New(cfg Config, text extract.TextExtractor, renderer extract.PageRenderer, extractor llm.PairExtractor, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case text == nil:
		return nil, common.ConfigurationError("gateway needs a text extractor", nil)
	case renderer == nil:
		return nil, common.ConfigurationError("gateway needs a page renderer", nil)
	case extractor == nil:
		return nil, common.ConfigurationError("gateway needs a structured-extraction capability", nil)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Gateway{
		cfg:       cfg,
		text:      text,
		renderer:  renderer,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		logger:    logger,
	}, nil
}

// SelectMode picks text mode only when both documents have a text layer.
func SelectMode(invoiceText, poText string) llm.Mode {
	if invoiceText != "" && poText != "" {
		return llm.ModeText
	}
	return llm.ModeImage
}

// Extract runs the whole extraction for one comparison. Any failure aborts
// it; nothing is retried and no partial pair is returned.
func (g *Gateway) Extract(ctx context.Context, invoice, po document.Source) (Result, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	if err := checkInputs(invoice, po); err != nil {
		g.logger.Warn("gateway.input.rejected", "req_id", rid, "error", err)
		return Result{}, err
	}

	prepCtx, cancelPrep := common.WithTimeout(ctx, g.cfg.PrepareTimeout)
	defer cancelPrep()

	invText := g.textOf(prepCtx, invoice)
	poText := g.textOf(prepCtx, po)
	if err := prepCtx.Err(); err != nil {
		g.logger.Error("gateway.text.aborted", "req_id", rid, "error", err)
		return Result{}, common.ExtractionFailure("read text layers", err)
	}
	mode := SelectMode(invText, poText)
	g.logger.Info("gateway.mode.selected",
		"req_id", rid,
		"mode", mode,
		"invoice_chars", len(invText),
		"po_chars", len(poText),
	)

	var req llm.Request
	switch mode {
	case llm.ModeText:
		req = llm.NewTextRequest(g.clip(invText, invoice.Name), g.clip(poText, po.Name))
	case llm.ModeImage:
		invPNG, err := g.render(prepCtx, invoice)
		if err != nil {
			return Result{}, err
		}
		poPNG, err := g.render(prepCtx, po)
		if err != nil {
			return Result{}, err
		}
		req = llm.NewImageRequest(invPNG, poPNG)
	}

	callCtx, cancel := common.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if err := g.limiter.Wait(callCtx); err != nil {
		cause := callCtx.Err()
		if cause == nil {
			// the limiter refuses waits that would outlive the deadline
			cause = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return Result{}, common.ExtractionFailure("wait for model capacity", cause)
	}

	raw, err := g.extractor.ExtractPair(callCtx, req)
	if err != nil {
		g.logger.Error("gateway.extract.failed",
			"req_id", rid, "mode", mode, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{}, common.ExtractionFailure("structured extraction failed", err)
	}

	if err := llm.ValidateJSONAgainstSchema(llm.BuildPairJSONSchema(), raw); err != nil {
		g.logger.Error("gateway.schema.failed", "req_id", rid, "error", err, "raw", string(raw))
		return Result{}, common.ExtractionFailure("extraction output does not match the pair contract", err)
	}

	pair, err := document.DecodePair(raw)
	if err != nil {
		g.logger.Error("gateway.decode.failed", "req_id", rid, "error", err, "raw", string(raw))
		return Result{}, common.ExtractionFailure("unparsable extraction output", err)
	}

	g.logger.Info("gateway.extract.ok",
		"req_id", rid,
		"mode", mode,
		"invoice_items", len(pair.Invoice.Items),
		"po_items", len(pair.PurchaseOrder.Items),
		"coerced", len(pair.Invoice.Coerced)+len(pair.PurchaseOrder.Coerced),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Pair: pair, Mode: mode, Raw: raw}, nil
}

func checkInputs(invoice, po document.Source) error {
	var missing []string
	if invoice.Empty() {
		missing = append(missing, "invoice")
	}
	if po.Empty() {
		missing = append(missing, "purchase order")
	}
	switch len(missing) {
	case 1:
		return common.MissingInput(missing[0] + " was not supplied")
	case 2:
		return common.MissingInput("invoice and purchase order were not supplied")
	}

	for _, src := range []struct {
		label string
		doc   document.Source
	}{{"invoice", invoice}, {"purchase order", po}} {
		if src.doc.Format() == "" {
			return common.InvalidInput(fmt.Sprintf("%s %q is not a PDF, PNG or JPEG", src.label, src.doc.Name))
		}
	}
	return nil
}

// textOf treats a failing text layer as absent so the pair falls back to images.
func (g *Gateway) textOf(ctx context.Context, src document.Source) string {
	text, err := g.text.ExtractText(ctx, src)
	if err != nil {
		g.logger.Warn("gateway.text.failed",
			"req_id", common.RequestIDFromContext(ctx),
			"name", src.Name,
			"error", err,
		)
		return ""
	}
	return text
}

func (g *Gateway) render(ctx context.Context, src document.Source) ([]byte, error) {
	png, err := g.renderer.RenderFirstPage(ctx, src)
	if err == nil {
		return png, nil
	}
	g.logger.Error("gateway.render.failed",
		"req_id", common.RequestIDFromContext(ctx),
		"name", src.Name,
		"error", err,
	)
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		// killed converters report a signal, not the deadline
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	if errors.Is(err, common.ErrRendering) {
		return nil, err
	}
	return nil, common.RenderingFailure("convert "+src.Name+" to image", err)
}

func (g *Gateway) clip(text, name string) string {
	max := g.cfg.MaxTextBytes
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	g.logger.Warn("gateway.text.truncated", "name", name, "chars", len(text), "kept", cut)
	return text[:cut]
}
