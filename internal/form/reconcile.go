package form

import (
	"fmt"

	"github.com/me/schedlab/pkg/model"
)

// Reconcile returns a rows x cols matrix. Cells whose coordinates exist in prev
// are copied verbatim; every other cell is set to fill. A zero dimension yields
// an empty matrix. Reconcile(Reconcile(m, r, c, f), r, c, f) equals
// Reconcile(m, r, c, f).
func Reconcile(prev model.Matrix, rows, cols int, fill any) model.Matrix {
	if rows <= 0 || cols <= 0 {
		return model.Matrix{}
	}
	out := make(model.Matrix, rows)
	for i := range out {
		row := make([]any, cols)
		for j := range row {
			if i < len(prev) && j < len(prev[i]) {
				row[j] = prev[i][j]
			} else {
				row[j] = fill
			}
		}
		out[i] = row
	}
	mustHaveShape(out, rows, cols)
	return out
}

// NeedsReshape reports whether m differs from the target shape.
func NeedsReshape(m model.Matrix, rows, cols int) bool {
	if rows <= 0 || cols <= 0 {
		return len(m) != 0
	}
	if len(m) != rows {
		return true
	}
	for _, row := range m {
		if len(row) != cols {
			return true
		}
	}
	return false
}

// mustHaveShape panics when a reshaped matrix breaks the rectangular invariant.
// That can only happen through a defect in dimension resolution.
func mustHaveShape(m model.Matrix, rows, cols int) {
	if len(m) != rows {
		panic(fmt.Sprintf("form: reconciled matrix has %d rows, want %d", len(m), rows))
	}
	for i, row := range m {
		if len(row) != cols {
			panic(fmt.Sprintf("form: reconciled matrix row %d has %d cells, want %d", i, len(row), cols))
		}
	}
}

// FillValue is the zero cell value for a parameter.
func FillValue(p *model.Parameter) any {
	if p.IsAdjacency() {
		return int64(0)
	}
	switch p.DataType {
	case model.DataTypeInt:
		return int64(0)
	case model.DataTypeFloat:
		return float64(0)
	case model.DataTypeBool:
		return false
	}
	return ""
}
