package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

// StripMarkdownCodeBlocks returns the content of the first fenced code block
// in text, or the trimmed text when no fence is present. Agents frequently
// wrap JSON answers in ```json fences despite being told not to.
func StripMarkdownCodeBlocks(text string) string {
	if !strings.Contains(text, "```") {
		return strings.TrimSpace(text)
	}

	var inner []string
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				break
			}
			inBlock = true
			continue
		}
		if inBlock {
			inner = append(inner, line)
		}
	}

	if len(inner) > 0 {
		return strings.TrimSpace(strings.Join(inner, "\n"))
	}
	return strings.TrimSpace(text)
}

// ExtractJSON pulls a JSON object out of an agent response. It tries a direct
// parse of the fence-stripped text first; when requiredFields are given it
// falls back to locating a flat object mentioning one of those fields. On
// failure the fallback map is returned.
func ExtractJSON(text string, requiredFields []string, fallback map[string]any) map[string]any {
	if fallback == nil {
		fallback = map[string]any{}
	}
	if text == "" {
		return fallback
	}

	cleaned := StripMarkdownCodeBlocks(text)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed
	}

	if len(requiredFields) > 0 {
		quoted := make([]string, len(requiredFields))
		for i, field := range requiredFields {
			quoted[i] = `"` + regexp.QuoteMeta(field) + `"`
		}
		pattern, err := regexp.Compile(`\{[^{}]*(` + strings.Join(quoted, "|") + `)[^{}]*\}`)
		if err == nil {
			if match := pattern.FindString(cleaned); match != "" {
				if err := json.Unmarshal([]byte(match), &parsed); err == nil {
					return parsed
				}
			}
		}
	}

	return fallback
}
