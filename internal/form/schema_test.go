package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/me/schedlab/pkg/model"
)

func TestCompile_Errors(t *testing.T) {
	scalar := func(name string) model.Parameter {
		return model.Parameter{Name: name, DataType: model.DataTypeInt, DataShape: model.DataShapeScalar}
	}
	matrix := func(name string, rows, cols model.DimensionExpr) model.Parameter {
		return model.Parameter{Name: name, DataType: model.DataTypeInt, DataShape: model.DataShapeDynamicMatrix,
			Dimensions: &model.Dimensions{Rows: rows, Cols: cols}}
	}

	tests := []struct {
		name    string
		params  []model.Parameter
		wantMsg string
	}{
		{"duplicate", []model.Parameter{scalar("n"), scalar("n")}, "duplicate"},
		{"unknown reference", []model.Parameter{matrix("m", model.Ref("missing"), model.Literal(2))}, "unknown parameter"},
		{"non-scalar reference", []model.Parameter{
			matrix("a", model.Literal(2), model.Literal(2)),
			matrix("b", model.Ref("a"), model.Literal(2)),
		}, "non-scalar"},
		{"negative literal", []model.Parameter{matrix("m", model.Literal(-1), model.Literal(2))}, "negative"},
		{"partial expression wrapper", []model.Parameter{scalar("n"), matrix("m", model.Expr("$(inputs.n) * (2)"), model.Literal(2))}, "malformed"},
		{"unknown expression input", []model.Parameter{matrix("m", model.Expr("$(inputs.x + 1)"), model.Literal(2))}, "unknown parameter"},
		{"dimensions on scalar", []model.Parameter{{Name: "n", DataType: model.DataTypeInt, DataShape: model.DataShapeScalar,
			Dimensions: &model.Dimensions{Rows: model.Literal(1), Cols: model.Literal(1)}}}, "only valid"},
		{"matrix controller", []model.Parameter{{Name: "m", DataType: model.DataTypeInt, DataShape: model.DataShapeDynamicMatrix, MatrixController: true}}, "must be a scalar"},
		{"bad data type", []model.Parameter{{Name: "n", DataType: "DECIMAL", DataShape: model.DataShapeScalar}}, "oneof"},
		{"missing name", []model.Parameter{{DataType: model.DataTypeInt, DataShape: model.DataShapeScalar}}, "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&model.AlgorithmDefinition{Name: "alg", Parameters: tt.params})
			var serr *SchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("err = %v, want SchemaError", err)
			}
			if !strings.Contains(serr.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to mention %q", serr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCompile_DefaultDimensionsFollowController(t *testing.T) {
	s, err := Compile(johnsonDef())
	if err != nil {
		t.Fatal(err)
	}
	p, kind, ok := s.Parameter("dependencies")
	if !ok || kind != model.KindDynamicMatrix {
		t.Fatalf("dependencies kind = %v", kind)
	}
	if p.Dimensions.Rows != model.Ref("jobs") || p.Dimensions.Cols != model.Ref("jobs") {
		t.Errorf("dimensions = %+v", p.Dimensions)
	}
	if deps := s.Dependents("jobs"); len(deps) != 1 || deps[0] != "dependencies" {
		t.Errorf("Dependents(jobs) = %v", deps)
	}
	if deps := s.Dependents("label"); len(deps) != 0 {
		t.Errorf("Dependents(label) = %v", deps)
	}
}

func TestCompile_CopiesDefinition(t *testing.T) {
	def := johnsonDef()
	s, err := Compile(def)
	if err != nil {
		t.Fatal(err)
	}
	if def.Parameters[1].Dimensions != nil {
		t.Error("Compile mutated the caller's definition")
	}
	if s.Definition() == def {
		t.Error("Compile kept the caller's pointer")
	}
}

func TestCompile_NoControllerDefaultsToOneByOne(t *testing.T) {
	s, err := Compile(&model.AlgorithmDefinition{Name: "x", Parameters: []model.Parameter{
		{Name: "m", DataType: model.DataTypeFloat, DataShape: model.DataShapeDynamicMatrix},
	}})
	if err != nil {
		t.Fatal(err)
	}
	p, _, _ := s.Parameter("m")
	if rows, cols := ResolveShape(*p.Dimensions, nil); rows != 1 || cols != 1 {
		t.Errorf("shape = %dx%d, want 1x1", rows, cols)
	}
}
