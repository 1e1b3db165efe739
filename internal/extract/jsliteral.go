package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ParseJSLiteral decodes a JavaScript literal value, the grammar hydration
// scripts assign to globals like window.__INITIAL_STATE__, into the same
// shapes encoding/json produces (map[string]any, []any, string, float64,
// bool, nil).
//
// This is a data deserializer, not a script engine: only object, array,
// string, number, true, false, null and undefined are accepted. Identifiers,
// member access, calls and operators are hard errors, so state blobs that
// reference document, fetch or anything else in a browser environment cannot
// cause any effect here. Input after the first complete value (a trailing
// semicolon, cleanup statements) is ignored.
func ParseJSLiteral(src string) (any, error) {
	p := &jsParser{src: src}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	return v, nil
}

type jsParser struct {
	src string
	pos int
}

func (p *jsParser) errf(format string, args ...any) error {
	return fmt.Errorf("jsliteral: %s at offset %d", fmt.Sprintf(format, args...), p.pos)
}

func (p *jsParser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			nl := strings.IndexByte(p.src[p.pos:], '\n')
			if nl == -1 {
				p.pos = len(p.src)
			} else {
				p.pos += nl + 1
			}
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end == -1 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 4
			}
		default:
			return
		}
	}
}

func (p *jsParser) value() (any, error) {
	if p.pos >= len(p.src) {
		return nil, p.errf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'':
		return p.string()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	case p.keyword("true"):
		return true, nil
	case p.keyword("false"):
		return false, nil
	case p.keyword("null"), p.keyword("undefined"):
		return nil, nil
	default:
		return nil, p.errf("unexpected character %q (literals only)", c)
	}
}

// keyword consumes word only when it is not a prefix of a longer identifier.
func (p *jsParser) keyword(word string) bool {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return false
	}
	if next := p.pos + len(word); next < len(p.src) && isIdentChar(p.src[next]) {
		return false
	}
	p.pos += len(word)
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *jsParser) object() (map[string]any, error) {
	p.pos++ // {
	obj := make(map[string]any)
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipSpace()
		key, err := p.objectKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errf("expected ':' after object key %q", key)
		}
		p.pos++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj[key] = v
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errf("unterminated object")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			// tolerate trailing comma
			if p.pos < len(p.src) && p.src[p.pos] == '}' {
				p.pos++
				return obj, nil
			}
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.errf("expected ',' or '}' in object")
		}
	}
}

// objectKey accepts quoted strings and bare identifier keys (JS allows both).
func (p *jsParser) objectKey() (string, error) {
	if p.pos >= len(p.src) {
		return "", p.errf("unexpected end of input in object key")
	}
	if c := p.src[p.pos]; c == '"' || c == '\'' {
		return p.string()
	}
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errf("invalid object key")
	}
	return p.src[start:p.pos], nil
}

func (p *jsParser) array() ([]any, error) {
	p.pos++ // [
	arr := []any{}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return arr, nil
	}
	for {
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errf("unterminated array")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			if p.pos < len(p.src) && p.src[p.pos] == ']' {
				p.pos++
				return arr, nil
			}
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, p.errf("expected ',' or ']' in array")
		}
	}
}

func (p *jsParser) string() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errf("unterminated escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 > len(p.src) {
					return "", p.errf("truncated \\u escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
				if err != nil {
					return "", p.errf("bad \\u escape")
				}
				p.pos += 4
				r := rune(n)
				// surrogate pair
				if utf16.IsSurrogate(r) && p.pos+6 <= len(p.src) && p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
					if n2, err := strconv.ParseUint(p.src[p.pos+2:p.pos+6], 16, 32); err == nil {
						if dec := utf16.DecodeRune(r, rune(n2)); dec != '�' {
							r = dec
							p.pos += 6
						}
					}
				}
				b.WriteRune(r)
			default:
				// JS: unknown escapes resolve to the escaped character itself
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errf("unterminated string")
}

func (p *jsParser) number() (float64, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, p.errf("invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}
