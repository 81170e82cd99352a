package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseReply decodes a model reply into out, tolerating fenced code blocks
// around the JSON. Anything that still fails to parse is an unparseable
// response; the raw text never reaches a client.
func ParseReply(raw string, out any) error {
	text := strings.TrimSpace(raw)
	text = stripFences(text)

	if err := json.Unmarshal([]byte(text), out); err != nil {
		// Last resort: carve out the outermost object.
		start := strings.IndexByte(text, '{')
		end := strings.LastIndexByte(text, '}')
		if start >= 0 && end > start {
			if err2 := json.Unmarshal([]byte(text[start:end+1]), out); err2 == nil {
				return nil
			}
		}
		return fmt.Errorf("%w: %v", ErrModelResponseUnparseable, err)
	}
	return nil
}

// stripFences removes a leading ```json (or bare ```) fence and its closing
// fence if present.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the language hint line ("json", "JSON", or empty).
		head := strings.TrimSpace(text[:nl])
		if head == "" || strings.EqualFold(head, "json") {
			text = text[nl+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
