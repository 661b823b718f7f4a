package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/gateway"
	"github.com/joseph-ayodele/po-matcher/internal/llm"
	"github.com/joseph-ayodele/po-matcher/internal/reconcile"
)

// Extractor is the gateway surface the processor needs.
type Extractor interface {
	Extract(ctx context.Context, invoice, po document.Source) (gateway.Result, error)
}

// Comparison is everything a report needs about one run.
type Comparison struct {
	RequestID     string           `json:"request_id"`
	Mode          llm.Mode         `json:"mode"`
	Invoice       document.Record  `json:"invoice"`
	PurchaseOrder document.Record  `json:"purchase_order"`
	Result        reconcile.Result `json:"result"`
}

// Processor coordinates extraction then reconciliation.
type Processor struct {
	Logger    *slog.Logger
	Extractor Extractor
}

func NewProcessor(logger *slog.Logger, extractor Extractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extractor: extractor}
}

// Compare extracts both documents and reconciles them. The request id is
// taken from ctx when present, otherwise a new one is assigned.
func (p *Processor) Compare(ctx context.Context, invoice, po document.Source) (Comparison, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	ext, err := p.Extractor.Extract(ctx, invoice, po)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "req_id", rid, "code", common.CodeOf(err), "err", err)
		return Comparison{RequestID: rid}, err
	}

	res := reconcile.Reconcile(ext.Pair.Invoice, ext.Pair.PurchaseOrder)
	p.Logger.Info("processor.compare.ok",
		"req_id", rid,
		"mode", ext.Mode,
		"status", res.Status,
		"issues", res.Issues,
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Comparison{
		RequestID:     rid,
		Mode:          ext.Mode,
		Invoice:       ext.Pair.Invoice,
		PurchaseOrder: ext.Pair.PurchaseOrder,
		Result:        res,
	}, nil
}
