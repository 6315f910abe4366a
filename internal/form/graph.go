package form

import (
	"fmt"

	"github.com/me/schedlab/pkg/model"
)

// depGraph maps a scalar parameter to the matrices whose dimensions read it,
// in declaration order.
type depGraph map[string][]string

// dimensionRefs lists the scalar names a dimension expression reads.
func dimensionRefs(expr model.DimensionExpr) []string {
	switch expr.Kind {
	case model.DimReference:
		return []string{expr.Ref}
	case model.DimExpression:
		return exprRefs(expr.Expr)
	}
	return nil
}

func buildGraph(s *Schema) (depGraph, error) {
	g := depGraph{}
	for i := range s.def.Parameters {
		p := &s.def.Parameters[i]
		if s.kinds[p.Name] != model.KindDynamicMatrix {
			continue
		}
		for _, expr := range []model.DimensionExpr{p.Dimensions.Rows, p.Dimensions.Cols} {
			if expr.Kind == model.DimLiteral && expr.Literal < 0 {
				return nil, &SchemaError{Algorithm: s.def.Name, Field: p.Name, Message: fmt.Sprintf("negative dimension %d", expr.Literal)}
			}
			for _, ref := range dimensionRefs(expr) {
				kind, ok := s.kinds[ref]
				if !ok {
					return nil, &SchemaError{Algorithm: s.def.Name, Field: p.Name, Message: fmt.Sprintf("dimension references unknown parameter %q", ref)}
				}
				if !kind.IsScalar() {
					return nil, &SchemaError{Algorithm: s.def.Name, Field: p.Name, Message: fmt.Sprintf("dimension references non-scalar parameter %q", ref)}
				}
				if !contains(g[ref], p.Name) {
					g[ref] = append(g[ref], p.Name)
				}
			}
		}
	}
	return g, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
