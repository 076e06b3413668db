package llm

import (
	"encoding/json"
	"strings"
)

// ExtractObject pulls a JSON object out of free-form model output. Models
// wrap replies in markdown code fences or surround them with prose, so the
// extraction takes the span from the first '{' to the last '}' after
// stripping fences. The boolean is false when no valid object is present.
func ExtractObject(raw string) (json.RawMessage, bool) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	candidate := cleaned[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

func stripFences(raw string) string {
	out := make([]string, 0, 8)
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
