package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// decodeJSON parses a model response into out. Models are asked for bare
// JSON but routinely wrap it in markdown fences or prose; try the raw text,
// then a fenced block, then the outermost JSON value.
func decodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty model response")
	}

	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), out); err == nil {
			return nil
		}
	}

	if inner := extractJSONValue(text); inner != "" {
		if err := json.Unmarshal([]byte(inner), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON in model response")
}

// extractJSONValue returns the first balanced top-level {...} or [...] in
// text, respecting string literals.
func extractJSONValue(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	open := text[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
