package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"tickmill/internal/domain"
)

// DecodeFirst pulls the first JSON value out of free-form model output and
// returns the record it denotes as raw JSON. The fallback chain is fixed:
// first balanced array span, then first balanced object span, then the
// residue after stripping markdown fences. An array yields its first
// element; an empty array yields an empty object; an object is used
// directly. When no JSON can be decoded at all the error wraps
// domain.ErrNoStructuredData, distinguishing "the model produced garbage"
// from transport failures.
func DecodeFirst(text string) (json.RawMessage, error) {
	if span, ok := scanSpan(text, '[', ']'); ok && json.Valid([]byte(span)) {
		return firstElement([]byte(span))
	}
	if span, ok := scanSpan(text, '{', '}'); ok && json.Valid([]byte(span)) {
		return json.RawMessage(span), nil
	}

	residue := stripFences(text)
	if json.Valid([]byte(residue)) {
		trimmed := strings.TrimSpace(residue)
		if strings.HasPrefix(trimmed, "[") {
			return firstElement([]byte(trimmed))
		}
		if strings.HasPrefix(trimmed, "{") {
			return json.RawMessage(trimmed), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrNoStructuredData, snippet(text))
}

// firstElement unwraps a JSON array into its first element.
func firstElement(arr []byte) (json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(arr, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoStructuredData, err)
	}
	if len(elems) == 0 {
		return json.RawMessage("{}"), nil
	}
	return elems[0], nil
}

// scanSpan returns the first balanced open..close span in s, tracking JSON
// string literals so delimiters inside quoted values do not close the span.
func scanSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
