package interview

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// Shape is the top-level JSON kind a caller expects from the generation service
type Shape int

const (
	ShapeObject Shape = iota
	ShapeArray
)

func (s Shape) open() byte {
	if s == ShapeArray {
		return '['
	}
	return '{'
}

func (s Shape) close() byte {
	if s == ShapeArray {
		return ']'
	}
	return '}'
}

func (s Shape) other() Shape {
	if s == ShapeArray {
		return ShapeObject
	}
	return ShapeArray
}

var fencePattern = regexp.MustCompile("```[a-zA-Z]*")

// Parse turns free-form generation output into a value of the requested shape:
// map[string]any for ShapeObject, []any for ShapeArray.
// When strict parsing fails, fields are extracted individually; all of them must be present.
// A bare object is wrapped when an array is expected and the first element of an array is
// taken when an object is expected. Nothing else is coerced.
func Parse(raw string, shape Shape, fields ...string) (any, error) {
	cleaned := clean(raw)
	if cleaned == "" {
		return nil, &entities.ParseError{Reason: "empty response"}
	}

	v, err := parseSpans(cleaned, shape)
	if err == nil {
		return v, nil
	}

	if len(fields) > 0 {
		if v, ok := extractFields(cleaned, shape, fields); ok {
			return v, nil
		}
	}

	return nil, err
}

// ParseObject is Parse for ShapeObject
func ParseObject(raw string, fields ...string) (map[string]any, error) {
	v, err := Parse(raw, ShapeObject, fields...)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// ParseArray is Parse for ShapeArray
func ParseArray(raw string, fields ...string) ([]any, error) {
	v, err := Parse(raw, ShapeArray, fields...)
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

// clean strips code fences and replaces control characters with spaces
func clean(raw string) string {
	s := fencePattern.ReplaceAllString(raw, "")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// parseSpans tries the span of the expected shape first. The other shape is tried first only
// when its span encloses the expected one, so a wrapping array or object can be unwrapped.
// A span that parses but cannot be coerced does not stop the search.
func parseSpans(s string, want Shape) (any, error) {
	order := []Shape{want, want.other()}
	ws, we, wok := slice(s, want)
	as, ae, aok := slice(s, want.other())
	if aok && (!wok || (as < ws && ae > we)) {
		order[0], order[1] = order[1], order[0]
	}

	var lastErr error
	for _, sh := range order {
		start, end, ok := ws, we, wok
		if sh != want {
			start, end, ok = as, ae, aok
		}
		if !ok {
			continue
		}
		span := s[start : end+1]
		v, ok := strict(span)
		if !ok {
			v, ok = strict(normalize(span))
		}
		if !ok {
			continue
		}
		out, err := coerce(v, want, s)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &entities.ParseError{Reason: "no recoverable structure", Snippet: logger.TruncateForLog(s, 80)}
}

// slice returns the bounds of the widest span of sh: first opener to last closer
func slice(s string, sh Shape) (start, end int, ok bool) {
	start = strings.IndexByte(s, sh.open())
	end = strings.LastIndexByte(s, sh.close())
	if start < 0 || end <= start {
		return 0, 0, false
	}
	return start, end, true
}

func strict(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// normalize removes trailing commas and converts unambiguous single-quoted strings
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			j := skipString(s, i, '"')
			b.WriteString(s[i:j])
			i = j - 1
		case '\'':
			j, content, ok := singleQuoted(s, i)
			if !ok {
				b.WriteByte(c)
				continue
			}
			quoted, _ := json.Marshal(content)
			b.Write(quoted)
			i = j - 1
		case ',':
			k := i + 1
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && (s[k] == '}' || s[k] == ']') {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// skipString returns the index just past the string starting at s[i]
func skipString(s string, i int, quote byte) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(s)
}

// singleQuoted reads a single-quoted string starting at s[i]. A quote only closes the string
// when the next non-space byte is a JSON delimiter, so apostrophes inside words survive.
func singleQuoted(s string, i int) (end int, content string, ok bool) {
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		if c == '\\' && j+1 < len(s) {
			b.WriteByte(c)
			b.WriteByte(s[j+1])
			j++
			continue
		}
		if c == '\'' {
			k := j + 1
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k == len(s) || strings.IndexByte(":,}]", s[k]) >= 0 {
				return j + 1, unquoteSingle(b.String()), true
			}
		}
		b.WriteByte(c)
	}
	return 0, "", false
}

func unquoteDouble(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// unquoteSingle decodes the body of a single-quoted string, escaping bare double quotes first
func unquoteSingle(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteByte(s[i])
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(s[i])
		}
	}
	return unquoteDouble(b.String())
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func coerce(v any, shape Shape, cleaned string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if shape == ShapeArray {
			return []any{val}, nil
		}
		return val, nil
	case []any:
		if shape == ShapeArray {
			return val, nil
		}
		if len(val) > 0 {
			if first, ok := val[0].(map[string]any); ok {
				return first, nil
			}
		}
		return nil, &entities.ParseError{Reason: "expected object, got array without object element", Snippet: logger.TruncateForLog(cleaned, 80)}
	default:
		return nil, &entities.ParseError{Reason: fmt.Sprintf("unexpected %T value", v), Snippet: logger.TruncateForLog(cleaned, 80)}
	}
}

const fieldValuePattern = `\s*:\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'|(-?\d+(?:\.\d+)?))`

// extractFields pulls "field": value pairs directly from text. For arrays one object is
// built per complete set of fields, in order of appearance.
func extractFields(s string, shape Shape, fields []string) (any, bool) {
	found := make(map[string][]any, len(fields))
	count := -1
	for _, f := range fields {
		re := regexp.MustCompile(`["']` + regexp.QuoteMeta(f) + `["']` + fieldValuePattern)
		matches := re.FindAllStringSubmatchIndex(s, -1)
		if len(matches) == 0 {
			return nil, false
		}
		for _, m := range matches {
			found[f] = append(found[f], matchValue(s, m))
		}
		if count < 0 || len(matches) < count {
			count = len(matches)
		}
	}

	if shape == ShapeObject {
		obj := make(map[string]any, len(fields))
		for _, f := range fields {
			obj[f] = found[f][0]
		}
		return obj, true
	}

	arr := make([]any, 0, count)
	for i := 0; i < count; i++ {
		obj := make(map[string]any, len(fields))
		for _, f := range fields {
			obj[f] = found[f][i]
		}
		arr = append(arr, obj)
	}
	return arr, true
}

// matchValue decodes whichever alternative of fieldValuePattern matched
func matchValue(s string, m []int) any {
	switch {
	case m[2] >= 0:
		return unquoteDouble(s[m[2]:m[3]])
	case m[4] >= 0:
		return unquoteSingle(s[m[4]:m[5]])
	default:
		f, _ := strconv.ParseFloat(s[m[6]:m[7]], 64)
		return f
	}
}

var leadingNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)

// CoerceNumber reads a number from a JSON value. Strings such as "8" or "8/10" are accepted.
func CoerceNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		m := leadingNumber.FindStringSubmatch(val)
		if m == nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// CoerceString renders a JSON value as text. Lists are joined with "; ".
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			if s := CoerceString(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
