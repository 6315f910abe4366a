package form

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/me/schedlab/pkg/model"
)

var schemaValidate = validator.New()

// Schema is an algorithm definition prepared for binding: every parameter has
// a resolved kind, every matrix has dimensions, and the dependency graph from
// scalars to matrices is known.
type Schema struct {
	def   *model.AlgorithmDefinition
	kinds map[string]model.Kind
	index map[string]int
	deps  depGraph
}

// Compile validates def and builds its Schema. The definition is copied.
func Compile(def *model.AlgorithmDefinition) (*Schema, error) {
	if def == nil {
		return nil, &SchemaError{Message: "nil definition"}
	}
	if err := schemaValidate.Struct(def); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &SchemaError{Algorithm: def.Name, Message: fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag())}
		}
		return nil, &SchemaError{Algorithm: def.Name, Message: err.Error()}
	}

	cp := *def
	cp.Parameters = append([]model.Parameter(nil), def.Parameters...)
	s := &Schema{
		def:   &cp,
		kinds: make(map[string]model.Kind, len(cp.Parameters)),
		index: make(map[string]int, len(cp.Parameters)),
	}

	controller := ""
	for i := range cp.Parameters {
		p := &cp.Parameters[i]
		if _, dup := s.index[p.Name]; dup {
			return nil, &SchemaError{Algorithm: def.Name, Field: p.Name, Message: "duplicate parameter name"}
		}
		kind, err := p.Kind()
		if err != nil {
			return nil, &SchemaError{Algorithm: def.Name, Field: p.Name, Message: err.Error()}
		}
		if p.MatrixController && !kind.IsScalar() {
			return nil, &SchemaError{Algorithm: def.Name, Field: p.Name, Message: "matrix controller must be a scalar"}
		}
		if p.MatrixController && controller == "" {
			controller = p.Name
		}
		if kind != model.KindDynamicMatrix && p.Dimensions != nil {
			return nil, &SchemaError{Algorithm: def.Name, Field: p.Name, Message: "dimensions are only valid on DYNAMIC_MATRIX parameters"}
		}
		if p.Dimensions != nil {
			for _, d := range []model.DimensionExpr{p.Dimensions.Rows, p.Dimensions.Cols} {
				if _, ok := model.ExprBody(d.Expr); d.Kind == model.DimExpression && !ok {
					return nil, &SchemaError{Algorithm: def.Name, Field: p.Name, Message: fmt.Sprintf("malformed dimension expression %q", d.Expr)}
				}
			}
		}
		s.index[p.Name] = i
		s.kinds[p.Name] = kind
	}

	// Matrices without declared dimensions follow the first controller in both
	// directions, as the legacy form did.
	for i := range cp.Parameters {
		p := &cp.Parameters[i]
		if s.kinds[p.Name] != model.KindDynamicMatrix || p.Dimensions != nil {
			continue
		}
		dims := model.Dimensions{Rows: model.Literal(1), Cols: model.Literal(1)}
		if controller != "" {
			dims = model.Dimensions{Rows: model.Ref(controller), Cols: model.Ref(controller)}
		}
		p.Dimensions = &dims
	}

	deps, err := buildGraph(s)
	if err != nil {
		return nil, err
	}
	s.deps = deps
	return s, nil
}

// Definition returns the compiled algorithm definition.
func (s *Schema) Definition() *model.AlgorithmDefinition {
	return s.def
}

// Name returns the algorithm name.
func (s *Schema) Name() string {
	return s.def.Name
}

// Parameter returns the named parameter and its kind.
func (s *Schema) Parameter(name string) (*model.Parameter, model.Kind, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, "", false
	}
	return &s.def.Parameters[i], s.kinds[name], true
}

// Dependents returns the matrices whose dimensions depend on the named scalar.
func (s *Schema) Dependents(name string) []string {
	return s.deps[name]
}
