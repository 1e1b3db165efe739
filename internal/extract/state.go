package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScriptBody returns the inline body of the <script> element whose content
// contains marker. The body excludes the script tags themselves.
func ScriptBody(doc, marker string) (string, bool) {
	markerIdx := strings.Index(doc, marker)
	if markerIdx == -1 {
		return "", false
	}
	open := strings.LastIndex(doc[:markerIdx], "<script")
	if open == -1 {
		return "", false
	}
	openEnd := strings.Index(doc[open:], ">")
	if openEnd == -1 || open+openEnd > markerIdx {
		return "", false
	}
	end := strings.Index(doc[markerIdx:], "</script>")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(doc[open+openEnd+1 : markerIdx+end]), true
}

// assignmentText returns the raw expression assigned to variable inside a
// script body: everything after the first '=' following the variable name.
// Trailing statements are left in place; the decoders below consume a single
// value and ignore the rest.
func assignmentText(script, variable string) (string, bool) {
	idx := strings.Index(script, variable)
	if idx == -1 {
		return "", false
	}
	rest := script[idx+len(variable):]
	eq := strings.Index(rest, "=")
	if eq == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[eq+1:]), true
}

// StateBlob locates the assignment of variable inside an inline script and
// returns the embedded state as one JSON text blob. Handles both upstream
// encodings: a direct object literal, and an array of string chunks that
// concatenate into the object text. The blob is returned unparsed so callers
// can run proximity searches over it.
func StateBlob(doc, variable string) (string, bool) {
	script, ok := ScriptBody(doc, variable)
	if !ok {
		return "", false
	}
	raw, ok := assignmentText(script, variable)
	if !ok {
		return "", false
	}

	switch {
	case strings.HasPrefix(raw, "["):
		var chunks []string
		dec := json.NewDecoder(strings.NewReader(raw))
		if err := dec.Decode(&chunks); err != nil {
			return "", false
		}
		return strings.Join(chunks, ""), true
	case strings.HasPrefix(raw, "{"):
		var obj json.RawMessage
		dec := json.NewDecoder(strings.NewReader(raw))
		if err := dec.Decode(&obj); err != nil {
			// Not directly JSON-parseable; hand back the statement up to the
			// terminator so regex consumers still get a window to search.
			if end := statementEnd(raw); end != -1 {
				return raw[:end], true
			}
			return raw, true
		}
		return string(obj), true
	}
	return "", false
}

// statementEnd returns the index of the first ';' outside a string literal,
// -1 when none exists. Product names and URLs inside the blob's strings may
// themselves carry semicolons; those must not cut the blob short.
func statementEnd(s string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == ';':
			return i
		}
	}
	return -1
}

// StateObject locates the assignment of variable inside an inline script and
// decodes the assigned value. A direct JSON decode is tried first; when the
// value is a JavaScript object literal rather than strict JSON it falls back
// to the literal parser, which accepts data only, never code.
func StateObject(doc, variable string) (any, error) {
	script, ok := ScriptBody(doc, variable)
	if !ok {
		return nil, fmt.Errorf("no script containing %s", variable)
	}
	raw, ok := assignmentText(script, variable)
	if !ok {
		return nil, fmt.Errorf("no assignment to %s", variable)
	}

	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&v); err == nil {
		return v, nil
	}
	return ParseJSLiteral(raw)
}
