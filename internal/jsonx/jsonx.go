// Package jsonx extracts JSON payloads from model prose. Completions often
// wrap the payload in markdown fences or surround it with commentary; these
// scanners find the first balanced object or array and return exactly that
// slice of the input.
package jsonx

import "strings"

// StripFences removes a leading markdown code fence and its closing fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

// ExtractObject returns the first balanced {...} in text, or "" when none is
// found.
func ExtractObject(text string) string {
	return extract(StripFences(text), '{', '}')
}

// ExtractArray returns the first balanced [...] in text, or "" when none is
// found.
func ExtractArray(text string) string {
	return extract(StripFences(text), '[', ']')
}

// extract scans for the first open rune and returns the span up to its
// balancing close, skipping brackets inside string literals.
func extract(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
