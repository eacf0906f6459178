package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	markdownJSONRe  = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	markdownFenceRe = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	controlCharsRe  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ParseModelJSON extracts and parses a JSON value from LLM output, which may
// be pure JSON, JSON inside a markdown code fence, or JSON surrounded by
// prose. Parsing is attempted strictly first, then against progressively
// more forgiving extractions of the input.
func ParseModelJSON(input string, target interface{}) error {
	if input == "" {
		return fmt.Errorf("empty input")
	}

	// Strict parse first (the common case).
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	// JSON inside a markdown code fence.
	if extracted := extractFromMarkdown(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	// First balanced top-level object or array in surrounding prose.
	if extracted := extractJSONFromText(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		// Last resort: strip trailing commas and control characters.
		cleaned := trailingCommaRe.ReplaceAllString(extracted, "$1")
		cleaned = controlCharsRe.ReplaceAllString(cleaned, "")
		if err := json.Unmarshal([]byte(cleaned), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// extractFromMarkdown extracts JSON from a ```json or plain ``` fence.
func extractFromMarkdown(input string) string {
	if matches := markdownJSONRe.FindStringSubmatch(input); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	if matches := markdownFenceRe.FindStringSubmatch(input); len(matches) > 1 {
		content := strings.TrimSpace(matches[1])
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			return content
		}
	}
	return ""
}

// extractJSONFromText finds the first JSON object or array in free text.
func extractJSONFromText(input string) string {
	if start := strings.Index(input, "{"); start >= 0 {
		if extracted := extractBalanced(input[start:], '{', '}'); extracted != "" {
			return extracted
		}
	}
	if start := strings.Index(input, "["); start >= 0 {
		if extracted := extractBalanced(input[start:], '[', ']'); extracted != "" {
			return extracted
		}
	}
	return ""
}

// extractBalanced extracts a substring with balanced delimiters, ignoring
// delimiters inside string literals.
func extractBalanced(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
