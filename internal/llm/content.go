package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyContent is returned when the model answered with nothing usable.
var ErrEmptyContent = errors.New("model returned empty content")

// StripFences removes markdown code fences the model may wrap its JSON in.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// FinishContent turns raw model output into the validated JSON document
// every PairExtractor returns.
func FinishContent(content string) ([]byte, error) {
	s := StripFences(content)
	if s == "" {
		return nil, ErrEmptyContent
	}
	raw := []byte(s)
	if err := ValidateJSONAgainstSchema(BuildPairJSONSchema(), raw); err != nil {
		return raw, fmt.Errorf("schema validation failed: %w", err)
	}
	return raw, nil
}
