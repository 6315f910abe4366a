package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/me/schedlab/pkg/model"
)

// Values is a read-only view of the live form values keyed by parameter name.
type Values map[string]any

// Resolve returns the row or column count a dimension expression denotes for
// the given values. References and computed expressions resolve to at least 1;
// a literal below 1 resolves to 0, which leaves the matrix without a value.
func Resolve(expr model.DimensionExpr, values Values) int {
	switch expr.Kind {
	case model.DimLiteral:
		if expr.Literal < 1 {
			return 0
		}
		return expr.Literal
	case model.DimReference:
		n, ok := numeric(values[expr.Ref])
		return clampCount(n, ok)
	case model.DimExpression:
		n, ok := evalExpr(expr.Expr, values)
		return clampCount(n, ok)
	}
	panic(fmt.Sprintf("form: unknown dimension kind %d", expr.Kind))
}

// ResolveShape resolves both dimensions of a matrix parameter.
func ResolveShape(dims model.Dimensions, values Values) (rows, cols int) {
	return Resolve(dims.Rows, values), Resolve(dims.Cols, values)
}

// clampCount truncates toward zero and enforces a minimum of 1.
func clampCount(n float64, ok bool) int {
	if !ok || math.IsNaN(n) || n < 1 {
		return 1
	}
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Trunc(n))
}

// numeric interprets a stored or raw value as a number.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
