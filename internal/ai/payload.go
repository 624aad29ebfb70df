package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrMalformedPayload marks model output that cannot be decoded into the
// requested shape.
var ErrMalformedPayload = errors.New("malformed model payload")

// ExtractJSON strips markdown code fences and leading chatter so that only the
// outermost JSON object remains.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	return strings.TrimSpace(raw)
}

// DecodeJSON decodes a JSON object from raw model output into target using
// mapstructure tags. Numbers given as strings are accepted. Every key listed in
// required must be present and non-null.
func DecodeJSON(raw string, target any, required ...string) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return fmt.Errorf("%w: empty output", ErrMalformedPayload)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	normalized := make(map[string]any, len(data))
	for k, v := range data {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}

	for _, key := range required {
		if v, ok := normalized[key]; !ok || v == nil {
			return fmt.Errorf("%w: missing field %q", ErrMalformedPayload, key)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("build payload decoder: %w", err)
	}

	if err := decoder.Decode(normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return nil
}

// CleanUtterance removes formatting artifacts models like to wrap spoken text
// in: code fences, surrounding quotes and speaker labels.
func CleanUtterance(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	for _, label := range []string{"interviewer:", "assistant:", "response:"} {
		if len(text) >= len(label) && strings.EqualFold(text[:len(label)], label) {
			text = strings.TrimSpace(text[len(label):])
		}
	}

	for len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '*' && last == '*') {
			text = strings.TrimSpace(text[1 : len(text)-1])
			continue
		}
		break
	}

	text = strings.TrimPrefix(text, "“")
	text = strings.TrimSuffix(text, "”")

	return strings.TrimSpace(text)
}
