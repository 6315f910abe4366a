package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDimensionExpr_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    DimensionExpr
		wantErr bool
	}{
		{`5`, Literal(5), false},
		{`"num_jobs"`, Ref("num_jobs"), false},
		{`"3"`, Literal(3), false},
		{`"$(inputs.num_jobs - 1)"`, Expr("$(inputs.num_jobs - 1)"), false},
		{`"not a name"`, DimensionExpr{}, true},
		{`"$(inputs.n) * (2)"`, DimensionExpr{}, true},
		{`"$()"`, DimensionExpr{}, true},
		{`true`, DimensionExpr{}, true},
	}
	for _, tt := range tests {
		var got DimensionExpr
		err := json.Unmarshal([]byte(tt.input), &got)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Unmarshal(%s): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestExprBody(t *testing.T) {
	tests := []struct {
		src    string
		want   string
		wantOK bool
	}{
		{"$(inputs.n - 1)", "inputs.n - 1", true},
		{"  $((inputs.n + 1) * 2)  ", "(inputs.n + 1) * 2", true},
		{"$(inputs.s == ')' ? 1 : 2)", "inputs.s == ')' ? 1 : 2", true},
		{"$(inputs.n) * (2)", "", false},
		{"$(inputs.n", "", false},
		{"$()", "", false},
		{"inputs.n", "", false},
	}
	for _, tt := range tests {
		got, ok := ExprBody(tt.src)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExprBody(%q) = %q, %v; want %q, %v", tt.src, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDimensionExpr_MarshalJSON(t *testing.T) {
	dims := Dimensions{Rows: Ref("num_jobs"), Cols: Literal(2)}
	data, err := json.Marshal(dims)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"rows":"num_jobs","cols":2}` {
		t.Errorf("marshal = %s", data)
	}
}

func TestDimensionExpr_UnmarshalYAML(t *testing.T) {
	var dims Dimensions
	src := "rows: num_jobs\ncols: 2\n"
	if err := yaml.Unmarshal([]byte(src), &dims); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dims.Rows != Ref("num_jobs") || dims.Cols != Literal(2) {
		t.Errorf("dims = %+v", dims)
	}
}

func TestParameter_Kind(t *testing.T) {
	tests := []struct {
		param   Parameter
		want    Kind
		wantErr bool
	}{
		{Parameter{Name: "a", DataType: DataTypeInt, DataShape: DataShapeScalar}, KindScalarInt, false},
		{Parameter{Name: "b", DataType: DataTypeFloat, DataShape: DataShapeScalar}, KindScalarFloat, false},
		{Parameter{Name: "c", DataType: DataTypeBool, DataShape: DataShapeScalar}, KindScalarBool, false},
		{Parameter{Name: "d", DataType: DataTypeString, DataShape: DataShapeScalar}, KindScalarString, false},
		{Parameter{Name: "e", DataType: DataTypeInt, DataShape: DataShapeList}, KindList, false},
		{Parameter{Name: "f", DataType: DataTypeInt, DataShape: DataShapeDynamicMatrix}, KindDynamicMatrix, false},
		{Parameter{Name: "g", DataType: "DATE", DataShape: DataShapeScalar}, "", true},
		{Parameter{Name: "h", DataType: DataTypeInt, DataShape: "TENSOR"}, "", true},
	}
	for _, tt := range tests {
		got, err := tt.param.Kind()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.param.Name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: Kind() = %q, want %q", tt.param.Name, got, tt.want)
		}
	}
}

func TestAlgorithmDefinition_DecodeBackendJSON(t *testing.T) {
	src := `{
		"name": "johnson",
		"title": "Johnson's rule",
		"parameters": [
			{"name": "num_jobs", "data_type": "INT", "data_shape": "SCALAR", "matrix_controller": true, "default_value": 3},
			{"name": "job_times", "data_type": "INT", "data_shape": "DYNAMIC_MATRIX",
			 "dimensions": {"rows": "num_jobs", "cols": 2}, "column_labels": ["Stage 1", "Stage 2"]}
		],
		"outputs": [{"name": "makespan", "data_type": "INT", "data_shape": "SCALAR"}]
	}`
	var def AlgorithmDefinition
	if err := json.Unmarshal([]byte(src), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := def.Parameter("job_times")
	if p == nil || p.Dimensions == nil {
		t.Fatal("job_times missing dimensions")
	}
	if p.Dimensions.Rows != Ref("num_jobs") || p.Dimensions.Cols != Literal(2) {
		t.Errorf("dimensions = %+v", p.Dimensions)
	}
	if def.Parameter("missing") != nil {
		t.Error("expected nil for unknown parameter")
	}
	if s := def.Summary(); s.Name != "johnson" || s.Title != "Johnson's rule" {
		t.Errorf("summary = %+v", s)
	}
}

func TestMatrix_ShapeAndClone(t *testing.T) {
	m := Matrix{{int64(1), int64(2)}, {int64(3), int64(4)}}
	rows, cols := m.Shape()
	if rows != 2 || cols != 2 {
		t.Errorf("Shape() = %d x %d", rows, cols)
	}
	c := m.Clone()
	c[0][0] = int64(9)
	if m[0][0] != int64(1) {
		t.Error("Clone aliases the original")
	}
	if (Matrix{{1, 2}, {3}}).IsRectangular() {
		t.Error("ragged matrix reported rectangular")
	}
	if !m.Equal(Matrix{{int64(1), int64(2)}, {int64(3), int64(4)}}) {
		t.Error("Equal returned false for equal matrices")
	}
}

func TestToMatrix(t *testing.T) {
	m, err := ToMatrix([]any{[]any{1.0, 2.0}, []any{3.0, 4.0}})
	if err != nil {
		t.Fatalf("ToMatrix: %v", err)
	}
	if rows, cols := m.Shape(); rows != 2 || cols != 2 {
		t.Errorf("shape = %dx%d", rows, cols)
	}
	if _, err := ToMatrix([]any{1, 2}); err == nil {
		t.Error("expected error for flat list")
	}
	if _, err := ToMatrix("x"); err == nil {
		t.Error("expected error for string")
	}
}
