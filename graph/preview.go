package graph

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

const (
	PreviewLimit    = 2500
	truncatedSuffix = "\n...(truncated)"
)

// Preview pretty-prints a node payload for the detail panel, cutting it at
// limit characters.
func Preview(raw json.RawMessage, limit int) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var buf bytes.Buffer
	text := string(raw)
	if err := json.Indent(&buf, raw, "", "  "); err == nil {
		text = buf.String()
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + truncatedSuffix
}
