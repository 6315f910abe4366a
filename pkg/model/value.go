package model

import (
	"fmt"
	"reflect"
)

// Matrix is a rectangular grid of coerced cell values, row-major.
type Matrix [][]any

// Shape returns the row count and the length of the first row.
func (m Matrix) Shape() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// IsRectangular reports whether every row has the same length.
func (m Matrix) IsRectangular() bool {
	_, cols := m.Shape()
	for _, row := range m {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the row slices.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]any(nil), row...)
	}
	return out
}

// Equal compares shape and cell values.
func (m Matrix) Equal(o Matrix) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if len(m[i]) != len(o[i]) {
			return false
		}
		for j := range m[i] {
			if !reflect.DeepEqual(m[i][j], o[i][j]) {
				return false
			}
		}
	}
	return true
}

// ToMatrix converts a decoded JSON/YAML value ([]any of []any) into a Matrix.
// Ragged input is returned as-is; callers reconcile it to a resolved shape.
func ToMatrix(v any) (Matrix, error) {
	switch t := v.(type) {
	case nil:
		return Matrix{}, nil
	case Matrix:
		return t.Clone(), nil
	case [][]any:
		return Matrix(t).Clone(), nil
	case []any:
		out := make(Matrix, 0, len(t))
		for i, row := range t {
			cells, ok := row.([]any)
			if !ok {
				return nil, fmt.Errorf("row %d: expected a list, got %T", i, row)
			}
			out = append(out, append([]any(nil), cells...))
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a matrix, got %T", v)
}

// CloneValue deep-copies a form value so snapshots never alias live state.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Matrix:
		return t.Clone()
	case []any:
		return append([]any(nil), t...)
	}
	return v
}
