package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/pkg/model"
)

// defaultRowLabel prefixes matrix row numbers when the parameter declares none.
const defaultRowLabel = "Job"

// fieldView is one scalar or list input.
type fieldView struct {
	Name        string
	Title       string
	Description string
	Kind        model.Kind
	Value       string
	Checked     bool
	Controller  bool
	Min         string
	Max         string
	Step        string
	Error       string
}

// InputType returns the HTML input type for the field.
func (f fieldView) InputType() string {
	switch f.Kind {
	case model.KindScalarInt, model.KindScalarFloat:
		return "number"
	case model.KindScalarBool:
		return "checkbox"
	}
	return "text"
}

type cellView struct {
	Row     int
	Col     int
	Value   string
	Checked bool
}

type matrixRowView struct {
	Label string
	Cells []cellView
}

// matrixView is a DYNAMIC_MATRIX input at its current shape.
type matrixView struct {
	Name        string
	Title       string
	Description string
	Adjacency   bool
	InputType   string
	Step        string
	RowHeader   string
	Columns     []string
	Rows        []matrixRowView
	Error       string
}

// outputView is one named result value.
type outputView struct {
	Name  string
	Title string
	Shape model.DataShape
	Text  string
	Table [][]string
}

// formView is everything the algorithm page renders from a form snapshot.
type formView struct {
	Algorithm   *model.AlgorithmDefinition
	State       model.FormState
	Fields      []fieldView
	Matrices    []matrixView
	Errors      []model.FieldError
	LastError   string
	Outputs     []outputView
	Gantt       *ganttView
	Submittable bool
}

// buildFormView converts a snapshot into template data. Parameters are
// listed in definition order; matrices whose resolved shape has a zero
// dimension are omitted.
func buildFormView(snap form.Snapshot) *formView {
	fieldErrs := snap.Errors
	v := &formView{
		State:       snap.State,
		Errors:      fieldErrs,
		LastError:   snap.LastError,
		Submittable: snap.State.IsEditable(),
	}
	if snap.Schema == nil {
		return v
	}
	def := snap.Schema.Definition()
	v.Algorithm = def

	errByField := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, dup := errByField[fe.Field]; !dup {
			errByField[fe.Field] = fe.Message
		}
	}

	for i := range def.Parameters {
		p := &def.Parameters[i]
		_, kind, ok := snap.Schema.Parameter(p.Name)
		if !ok {
			continue
		}
		val := snap.Values[p.Name]
		if kind == model.KindDynamicMatrix {
			m, _ := val.(model.Matrix)
			if mv, ok := buildMatrixView(p, m); ok {
				mv.Error = errByField[p.Name]
				v.Matrices = append(v.Matrices, mv)
			}
			continue
		}
		v.Fields = append(v.Fields, buildFieldView(p, kind, val, errByField[p.Name]))
	}

	if snap.Result != nil {
		v.Outputs = buildOutputViews(def, snap.Result)
		v.Gantt = buildGantt(snap.Result.Gantt)
	}
	return v
}

func buildFieldView(p *model.Parameter, kind model.Kind, val any, errMsg string) fieldView {
	f := fieldView{
		Name:        p.Name,
		Title:       titleOf(p.Title, p.Name),
		Description: p.Description,
		Kind:        kind,
		Controller:  p.MatrixController,
		Step:        stepFor(p.DataType),
		Error:       errMsg,
	}
	if p.Minimum != nil {
		f.Min = strconv.FormatFloat(*p.Minimum, 'f', -1, 64)
	} else if p.MatrixController {
		f.Min = "1"
	}
	if p.Maximum != nil {
		f.Max = strconv.FormatFloat(*p.Maximum, 'f', -1, 64)
	}
	switch kind {
	case model.KindScalarBool:
		f.Checked = form.Truthy(val)
	case model.KindList:
		items, _ := val.([]any)
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = form.DisplayCell(it)
		}
		f.Value = strings.Join(parts, ", ")
	default:
		f.Value = form.DisplayCell(val)
	}
	return f
}

func buildMatrixView(p *model.Parameter, m model.Matrix) (matrixView, bool) {
	rows, cols := m.Shape()
	if rows == 0 || cols == 0 {
		return matrixView{}, false
	}
	mv := matrixView{
		Name:        p.Name,
		Title:       titleOf(p.Title, p.Name),
		Description: p.Description,
		Adjacency:   p.IsAdjacency(),
		InputType:   cellInputType(p),
		Step:        stepFor(p.DataType),
		RowHeader:   rowLabel(p),
		Columns:     columnLabels(p, cols),
		Rows:        make([]matrixRowView, rows),
	}
	for i, row := range m {
		r := matrixRowView{
			Label: fmt.Sprintf("%s %d", mv.RowHeader, i+1),
			Cells: make([]cellView, len(row)),
		}
		for j, cell := range row {
			r.Cells[j] = cellView{Row: i, Col: j, Value: form.DisplayCell(cell), Checked: form.Truthy(cell)}
		}
		mv.Rows[i] = r
	}
	return mv, true
}

// columnLabels uses the declared labels first and positional labels for the rest.
func columnLabels(p *model.Parameter, cols int) []string {
	labels := make([]string, cols)
	for j := range labels {
		switch {
		case j < len(p.ColumnLabels) && p.ColumnLabels[j] != "":
			labels[j] = p.ColumnLabels[j]
		case p.IsAdjacency():
			labels[j] = fmt.Sprintf("Depends on %d", j+1)
		default:
			labels[j] = fmt.Sprintf("Column %d", j+1)
		}
	}
	return labels
}

func rowLabel(p *model.Parameter) string {
	if p.RowLabel != "" {
		return p.RowLabel
	}
	return defaultRowLabel
}

func cellInputType(p *model.Parameter) string {
	if p.IsAdjacency() || p.DataType == model.DataTypeBool {
		return "checkbox"
	}
	if p.DataType == model.DataTypeString {
		return "text"
	}
	return "number"
}

func stepFor(dt model.DataType) string {
	if dt == model.DataTypeFloat {
		return "any"
	}
	return "1"
}

func titleOf(title, name string) string {
	if title != "" {
		return title
	}
	return name
}

// buildOutputViews renders declared outputs in definition order, followed by
// any undeclared keys sorted by name.
func buildOutputViews(def *model.AlgorithmDefinition, res *model.Result) []outputView {
	var out []outputView
	seen := make(map[string]bool, len(def.Outputs))
	for _, o := range def.Outputs {
		raw, ok := res.Outputs[o.Name]
		if !ok {
			continue
		}
		seen[o.Name] = true
		out = append(out, renderOutput(o.Name, titleOf(o.Title, o.Name), o.DataShape, raw))
	}

	extra := make([]string, 0, len(res.Outputs))
	for name := range res.Outputs {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, renderOutput(name, name, "", res.Outputs[name]))
	}
	return out
}

func renderOutput(name, title string, shape model.DataShape, raw json.RawMessage) outputView {
	ov := outputView{Name: name, Title: title, Shape: shape}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		ov.Shape = model.DataShapeScalar
		ov.Text = string(raw)
		return ov
	}

	if shape == "" {
		shape = inferShape(decoded)
		ov.Shape = shape
	}
	switch shape {
	case model.DataShapeList:
		items, ok := decoded.([]any)
		if !ok {
			ov.Text = formatOutputValue(decoded)
			return ov
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = formatOutputValue(it)
		}
		ov.Text = strings.Join(parts, " ")
	case model.DataShapeDynamicMatrix:
		m, err := model.ToMatrix(decoded)
		if err != nil {
			ov.Shape = model.DataShapeScalar
			ov.Text = formatOutputValue(decoded)
			return ov
		}
		ov.Table = make([][]string, len(m))
		for i, row := range m {
			ov.Table[i] = make([]string, len(row))
			for j, cell := range row {
				ov.Table[i][j] = formatOutputValue(cell)
			}
		}
	default:
		ov.Text = formatOutputValue(decoded)
	}
	return ov
}

func inferShape(v any) model.DataShape {
	items, ok := v.([]any)
	if !ok {
		return model.DataShapeScalar
	}
	if len(items) > 0 {
		if _, nested := items[0].([]any); nested {
			return model.DataShapeDynamicMatrix
		}
	}
	return model.DataShapeList
}

func formatOutputValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
