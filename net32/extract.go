package net32

import "encoding/json"

// ExtractLastJSONObject returns the last well-formed top-level JSON
// object embedded in body. The marketplace inventory endpoint prepends
// diagnostic text to its replies, so a naive parse of the whole body
// often fails; the trailing object is the authoritative one.
func ExtractLastJSONObject(body string) (string, bool) {
	var last string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(body); i++ {
		c := body[i]
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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := body[start : i+1]
				if json.Valid([]byte(candidate)) {
					last = candidate
				}
				start = -1
			}
		}
	}

	if last == "" {
		return "", false
	}
	return last, true
}
