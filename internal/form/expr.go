package form

import (
	"regexp"
	"time"

	"github.com/dop251/goja"

	"github.com/me/schedlab/pkg/model"
)

// exprTimeout bounds a single dimension expression evaluation.
const exprTimeout = 50 * time.Millisecond

var inputRefPattern = regexp.MustCompile(`inputs\.([A-Za-z_][A-Za-z0-9_]*)`)

// exprRefs returns the scalar names referenced as inputs.<name> in a $(...) expression.
func exprRefs(src string) []string {
	var refs []string
	seen := map[string]bool{}
	for _, m := range inputRefPattern.FindAllStringSubmatch(src, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// evalExpr evaluates a $(...) dimension expression with the scalar values exposed
// as inputs. It reports false for script errors, timeouts and non-numeric results.
func evalExpr(src string, values Values) (float64, bool) {
	body, ok := model.ExprBody(src)
	if !ok {
		return 0, false
	}
	vm := goja.New()

	inputs := make(map[string]any, len(values))
	for name, v := range values {
		if n, ok := numeric(v); ok {
			inputs[name] = n
		} else if s, ok := v.(string); ok {
			inputs[name] = s
		}
	}
	if err := vm.Set("inputs", inputs); err != nil {
		return 0, false
	}

	timer := time.AfterFunc(exprTimeout, func() {
		vm.Interrupt("dimension expression timed out")
	})
	defer timer.Stop()

	val, err := vm.RunString("(" + body + ")")
	if err != nil {
		return 0, false
	}
	if goja.IsUndefined(val) || goja.IsNull(val) {
		return 0, false
	}
	return numeric(val.Export())
}
