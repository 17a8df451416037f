package llmclient

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/signalforge/equityedge/internal/errkind"
)

// ParseJSONResponse extracts and unmarshals a JSON object from raw LLM text
// into target, trying three extraction strategies in order: a fenced
// ```json block, the first balanced {...}/[...] in the text, and finally the
// raw trimmed content. An agent treats a failure here as a schema violation
// and falls back to a failed HOLD per the LLM adapter discipline.
func ParseJSONResponse(content string, target any) error {
	candidates := []string{
		extractFromMarkdown(content),
		extractFirstJSONObject(content),
		strings.TrimSpace(content),
	}

	var lastErr error
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), target); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return errkind.BadInputf("llmclient.ParseJSONResponse", "no valid JSON candidate found: %v", lastErr)
}

func extractFromMarkdown(content string) string {
	b := []byte(content)
	patterns := []struct {
		prefix []byte
		offset int
	}{
		{[]byte("```json\n"), 8},
		{[]byte("```json"), 7},
		{[]byte("```\n"), 4},
		{[]byte("```"), 3},
	}
	for _, p := range patterns {
		if idx := bytes.Index(b, p.prefix); idx >= 0 {
			start := idx + p.offset
			if end := bytes.Index(b[start:], []byte("```")); end >= 0 {
				extracted := string(bytes.TrimSpace(b[start : start+end]))
				if len(extracted) > 0 && (extracted[0] == '{' || extracted[0] == '[') {
					return extracted
				}
			}
		}
	}
	return ""
}

func extractFirstJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	startIdx := -1
	isArray := false
	for i, ch := range content {
		if ch == '{' {
			startIdx = i
			break
		}
		if ch == '[' {
			startIdx, isArray = i, true
			break
		}
	}
	if startIdx == -1 {
		return ""
	}

	openChar, closeChar := rune('{'), rune('}')
	if isArray {
		openChar, closeChar = '[', ']'
	}

	depth := 0
	for i := startIdx; i < len(content); i++ {
		switch rune(content[i]) {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return content[startIdx : i+1]
			}
		}
	}
	return ""
}
