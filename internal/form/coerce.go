package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/pkg/model"
)

// Coerce converts one raw input (a form string, a decoded JSON value) into the
// canonical cell or scalar value for p. It never fails: malformed numbers become
// 0 so intermediate keystrokes cannot block entry. Adjacency parameters always
// store int64 0 or 1.
func Coerce(raw any, p *model.Parameter) any {
	if p.IsAdjacency() {
		if Truthy(raw) {
			return int64(1)
		}
		return int64(0)
	}
	switch p.DataType {
	case model.DataTypeInt:
		n, ok := toInt(raw)
		if !ok {
			noteFallback(raw, p.DataType)
		}
		return n
	case model.DataTypeFloat:
		f, ok := toFloat(raw)
		if !ok {
			noteFallback(raw, p.DataType)
		}
		return f
	case model.DataTypeBool:
		return Truthy(raw)
	}
	return toString(raw)
}

// CoerceValue converts a whole field value according to the parameter kind.
// Matrices are coerced cell by cell but not reshaped; the store reconciles them.
func CoerceValue(raw any, p *model.Parameter, kind model.Kind) (any, error) {
	switch kind {
	case model.KindScalarInt, model.KindScalarFloat, model.KindScalarBool, model.KindScalarString:
		return Coerce(raw, p), nil
	case model.KindList:
		return coerceList(raw, p), nil
	case model.KindDynamicMatrix:
		m, err := model.ToMatrix(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		for i := range m {
			for j := range m[i] {
				m[i][j] = Coerce(m[i][j], p)
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("%s: unsupported kind %q", p.Name, kind)
}

// Truthy interprets an input as a logical value. nil, false, zero, the empty
// string and "0", "false", "no", "off" are false; everything else is true.
func Truthy(raw any) bool {
	switch t := raw.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "", "0", "false", "no", "off":
			return false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f != 0 && !math.IsNaN(f)
		}
		return true
	}
	if f, ok := numeric(raw); ok {
		return f != 0
	}
	return true
}

// DisplayCell renders a stored value for an input control. Booleans use the
// 0/1 surface.
func DisplayCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func toInt(raw any) (int64, bool) {
	switch t := raw.(type) {
	case nil:
		return 0, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if n, ok := leadingInt(s); ok {
			return n, true
		}
		return 0, false
	}
	if f, ok := numeric(raw); ok && f > math.MinInt64 && f < math.MaxInt64 {
		return int64(math.Trunc(f)), true
	}
	return 0, false
}

// leadingInt parses an optional sign and the longest digit prefix ("12abc" -> 12,
// "3.7" -> 3), the way browsers read a partially typed number.
func leadingInt(s string) (int64, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	return n, err == nil
}

func toFloat(raw any) (float64, bool) {
	switch t := raw.(type) {
	case nil:
		return 0, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, true
		}
	}
	if f, ok := numeric(raw); ok {
		return f, true
	}
	return 0, false
}

func toString(raw any) string {
	switch t := raw.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return DisplayCell(raw)
}

func coerceList(raw any, p *model.Parameter) []any {
	var items []any
	switch t := raw.(type) {
	case nil:
		return []any{}
	case []any:
		items = t
	case string:
		for _, f := range strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ';' || unicode.IsSpace(r)
		}) {
			items = append(items, f)
		}
	default:
		items = []any{t}
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = Coerce(it, p)
	}
	return out
}

func noteFallback(raw any, dt model.DataType) {
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return
	}
	metrics.CoercionFallbacks.WithLabelValues(string(dt)).Inc()
}
