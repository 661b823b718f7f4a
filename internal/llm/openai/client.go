package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/llm"
)

// ExtractPair implements llm.PairExtractor with a single chat/completions call.
// Text mode sends both documents as text parts; image mode attaches both pages
// as data URLs.
func (c *Client) ExtractPair(ctx context.Context, req llm.Request) ([]byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"mode", req.Mode,
		"temp", c.cfg.Temperature,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": userContent(req)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(llm.BuildPairJSONSchema())},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("no choices in openai response")
	}

	content, err := llm.FinishContent(cc.Choices[0].Message.Content)
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

func userContent(req llm.Request) []map[string]any {
	parts := []map[string]any{{"type": "text", "text": req.Prompt}}
	if req.Mode == llm.ModeImage {
		for _, img := range []llm.Image{req.InvoiceImage, req.PurchaseOrderImage} {
			parts = append(parts, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": img.DataURL()},
			})
		}
		return parts
	}
	for _, section := range req.TextSections() {
		parts = append(parts, map[string]any{"type": "text", "text": section})
	}
	return parts
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
