package langchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/llm"
)

// Providers served by this package.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config for a langchaingo backed extractor.
type Config struct {
	Provider    string // gemini | ollama
	Model       string
	APIKey      string // gemini only
	BaseURL     string // ollama server URL; "" uses the library default
	Temperature float32
}

// contentGenerator is the slice of llms.Model we call.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client implements llm.PairExtractor on top of a langchaingo model.
type Client struct {
	cfg    Config
	model  contentGenerator
	logger *slog.Logger
}

// New builds the model for cfg.Provider. Missing credentials are a configuration error.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		model contentGenerator
		err   error
	)
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, common.ConfigurationError("gemini api key is not set", nil)
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
	default:
		return nil, common.ConfigurationError(fmt.Sprintf("unsupported llm provider %q", cfg.Provider), nil)
	}
	if err != nil {
		return nil, common.ConfigurationError("initialize "+cfg.Provider+" model", err)
	}
	return newWithModel(cfg, model, logger), nil
}

func newWithModel(cfg Config, model contentGenerator, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, model: model, logger: logger}
}

// ExtractPair sends the prompt followed by both documents in one human message.
func (c *Client) ExtractPair(ctx context.Context, req llm.Request) ([]byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", c.cfg.Provider,
		"model", c.cfg.Model,
		"mode", req.Mode,
		"temp", c.cfg.Temperature,
	)

	msgs := []llms.MessageContent{{Role: llms.ChatMessageTypeHuman, Parts: parts(req)}}
	resp, err := c.model.GenerateContent(ctx, msgs, llms.WithTemperature(float64(c.cfg.Temperature)))
	if err != nil {
		c.logger.Error("llm.extract.generate_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%s: %w", c.cfg.Provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		c.logger.Error("llm.extract.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, errors.New("no choices in " + c.cfg.Provider + " response")
	}

	content, err := llm.FinishContent(resp.Choices[0].Content)
	if err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"mode", req.Mode,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func parts(req llm.Request) []llms.ContentPart {
	out := []llms.ContentPart{llms.TextPart(req.Prompt)}
	if req.Mode == llm.ModeImage {
		for _, img := range []llm.Image{req.InvoiceImage, req.PurchaseOrderImage} {
			out = append(out, llms.BinaryPart(img.MIMEType, img.Data))
		}
		return out
	}
	for _, section := range req.TextSections() {
		out = append(out, llms.TextPart(section))
	}
	return out
}
