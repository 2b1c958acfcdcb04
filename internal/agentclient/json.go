// Package agentclient talks to the spuff-agent's loopback-only HTTP API
// through an already-open SSH session, the same way a developer's shell
// would reach it with curl. Grounded on
// original_source/src/cli/commands/agent/http.rs.
package agentclient

import "strings"

// findJSONArrayStart returns the byte offset of the first `[` that looks
// like the start of a JSON array, skipping ANSI escape sequences (ESC `[`
// introduces a CSI sequence, not JSON) and bare `[` characters that aren't
// followed by an object, string, closing bracket, or digit.
func findJSONArrayStart(output string) (int, bool) {
	b := []byte(output)
	for i := 0; i < len(b); i++ {
		if b[i] != '[' {
			continue
		}
		if i > 0 && b[i-1] == 0x1b {
			continue
		}
		if i+1 < len(b) {
			next := b[i+1]
			if next == '{' || next == '"' || next == ']' || (next >= '0' && next <= '9') {
				return i, true
			}
		}
	}
	return 0, false
}

// ExtractJSON pulls a JSON value out of output that may be wrapped in shell
// banner text (MOTD, .bashrc echoes) before or after the payload. Whichever
// of a JSON object or array starts first in the string wins.
func ExtractJSON(output string) string {
	bracketPos, haveBracket := findJSONArrayStart(output)
	bracePos := strings.IndexByte(output, '{')
	haveBrace := bracePos >= 0

	var start int
	var isArray bool
	switch {
	case haveBracket && haveBrace:
		if bracketPos < bracePos {
			start, isArray = bracketPos, true
		} else {
			start, isArray = bracePos, false
		}
	case haveBracket:
		start, isArray = bracketPos, true
	case haveBrace:
		start, isArray = bracePos, false
	default:
		return strings.TrimSpace(output)
	}

	open, close := byte('{'), byte('}')
	if isArray {
		open, close = '[', ']'
	}

	depth := 0
	for i := start; i < len(output); i++ {
		switch output[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return output[start : i+1]
			}
		}
	}

	return strings.TrimSpace(output)
}
