package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/extract"
	"github.com/joseph-ayodele/po-matcher/internal/gateway"
	"github.com/joseph-ayodele/po-matcher/internal/llm"
	"github.com/joseph-ayodele/po-matcher/internal/llm/langchain"
	"github.com/joseph-ayodele/po-matcher/internal/llm/openai"
)

// NewExtractor builds the structured-extraction backend named by cfg.Provider.
func NewExtractor(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.PairExtractor, error) {
	switch cfg.Provider {
	case "openai":
		c, err := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case langchain.ProviderGemini, langchain.ProviderOllama:
		c, err := langchain.New(ctx, langchain.Config{
			Provider:    cfg.Provider,
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, common.ConfigurationError(fmt.Sprintf("unsupported llm provider %q", cfg.Provider), nil)
}

// ExtractConfig maps the application config onto the extract package's.
func ExtractConfig(cfg common.ExtractConfig) extract.Config {
	return extract.Config{
		Pdftotext:     cfg.Pdftotext,
		Pdftoppm:      cfg.Pdftoppm,
		UsePdftotext:  cfg.UsePdftotext,
		DPI:           cfg.DPI,
		MaxImageDim:   cfg.MaxImageDim,
		TmpDir:        cfg.TmpDir,
		HeicConverter: cfg.HeicConverter,
	}
}

// Build wires a Processor from validated configuration.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	return BuildWith(cfg, extractor, extract.ExecRunner{Logger: logger}, logger)
}

// BuildWith wires a Processor around an existing capability and command runner.
func BuildWith(cfg *common.Config, extractor llm.PairExtractor, runner extract.Runner, logger *slog.Logger) (*Processor, error) {
	ecfg := ExtractConfig(cfg.Extract)
	gw, err := gateway.New(gateway.Config{
		Timeout:           cfg.LLM.Timeout,
		PrepareTimeout:    cfg.Extract.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
		MaxTextBytes:      cfg.Extract.MaxTextPerDocKB << 10,
	},
		extract.NewTextLayer(ecfg, runner, logger),
		extract.NewRenderer(ecfg, runner, logger),
		extractor,
		logger,
	)
	if err != nil {
		return nil, err
	}
	return NewProcessor(logger, gw), nil
}
