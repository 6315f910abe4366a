package form

import (
	"testing"

	"github.com/me/schedlab/pkg/model"
)

func grid(rows, cols int, start int64) model.Matrix {
	m := make(model.Matrix, rows)
	n := start
	for i := range m {
		m[i] = make([]any, cols)
		for j := range m[i] {
			m[i][j] = n
			n++
		}
	}
	return m
}

func TestReconcile_ShapeAndOverlap(t *testing.T) {
	prevs := map[string]model.Matrix{
		"empty":  {},
		"nil":    nil,
		"1x1":    grid(1, 1, 10),
		"3x2":    grid(3, 2, 10),
		"4x4":    grid(4, 4, 10),
		"ragged": {{int64(1), int64(2), int64(3)}, {int64(4)}},
	}
	shapes := [][2]int{{1, 1}, {2, 3}, {3, 2}, {5, 5}, {1, 7}, {6, 1}}

	for name, prev := range prevs {
		for _, sh := range shapes {
			r, c := sh[0], sh[1]
			got := Reconcile(prev, r, c, int64(0))
			if len(got) != r {
				t.Fatalf("%s -> %dx%d: got %d rows", name, r, c, len(got))
			}
			for i := range got {
				if len(got[i]) != c {
					t.Fatalf("%s -> %dx%d: row %d has %d cells", name, r, c, i, len(got[i]))
				}
				for j := range got[i] {
					if i < len(prev) && j < len(prev[i]) {
						if got[i][j] != prev[i][j] {
							t.Errorf("%s -> %dx%d: [%d][%d] = %v, want preserved %v", name, r, c, i, j, got[i][j], prev[i][j])
						}
					} else if got[i][j] != int64(0) {
						t.Errorf("%s -> %dx%d: [%d][%d] = %v, want fill", name, r, c, i, j, got[i][j])
					}
				}
			}
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	prev := grid(3, 4, 1)
	for _, sh := range [][2]int{{2, 2}, {3, 4}, {5, 6}, {0, 3}} {
		once := Reconcile(prev, sh[0], sh[1], "")
		twice := Reconcile(once, sh[0], sh[1], "")
		if !once.Equal(twice) {
			t.Errorf("%dx%d: reconcile not idempotent: %v vs %v", sh[0], sh[1], once, twice)
		}
	}
}

func TestReconcile_DoesNotAliasPrevious(t *testing.T) {
	prev := grid(2, 2, 1)
	got := Reconcile(prev, 2, 2, int64(0))
	got[0][0] = int64(99)
	if prev[0][0] != int64(1) {
		t.Error("reconciled matrix shares rows with the previous value")
	}
}

func TestReconcile_ZeroDimension(t *testing.T) {
	for _, sh := range [][2]int{{0, 0}, {0, 3}, {3, 0}} {
		got := Reconcile(grid(2, 2, 1), sh[0], sh[1], int64(0))
		if len(got) != 0 {
			t.Errorf("%dx%d: expected empty matrix, got %v", sh[0], sh[1], got)
		}
	}
}

func TestNeedsReshape(t *testing.T) {
	tests := []struct {
		name       string
		m          model.Matrix
		rows, cols int
		want       bool
	}{
		{"match", grid(3, 2, 0), 3, 2, false},
		{"more rows", grid(3, 2, 0), 4, 2, true},
		{"fewer cols", grid(3, 2, 0), 3, 1, true},
		{"ragged", model.Matrix{{1, 2}, {1}}, 2, 2, true},
		{"empty zero", model.Matrix{}, 0, 2, false},
		{"full zero", grid(1, 1, 0), 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsReshape(tt.m, tt.rows, tt.cols); got != tt.want {
				t.Errorf("NeedsReshape = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustHaveShape_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-rectangular matrix")
		}
	}()
	mustHaveShape(model.Matrix{{1, 2}, {1}}, 2, 2)
}

func TestFillValue(t *testing.T) {
	tests := []struct {
		p    model.Parameter
		want any
	}{
		{model.Parameter{DataType: model.DataTypeInt}, int64(0)},
		{model.Parameter{DataType: model.DataTypeFloat}, float64(0)},
		{model.Parameter{DataType: model.DataTypeBool}, false},
		{model.Parameter{DataType: model.DataTypeString}, ""},
		{model.Parameter{DataType: model.DataTypeBool, SemanticRole: model.RoleAdjacency}, int64(0)},
	}
	for _, tt := range tests {
		if got := FillValue(&tt.p); got != tt.want {
			t.Errorf("FillValue(%s/%s) = %#v, want %#v", tt.p.DataType, tt.p.SemanticRole, got, tt.want)
		}
	}
}
