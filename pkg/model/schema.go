package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DataType is the element type of a parameter or output.
type DataType string

const (
	DataTypeInt    DataType = "INT"
	DataTypeFloat  DataType = "FLOAT"
	DataTypeBool   DataType = "BOOL"
	DataTypeString DataType = "STRING"
)

// DataShape describes how values of a parameter are arranged.
type DataShape string

const (
	DataShapeScalar        DataShape = "SCALAR"
	DataShapeList          DataShape = "LIST"
	DataShapeDynamicMatrix DataShape = "DYNAMIC_MATRIX"
)

// SemanticRole declares domain behavior that used to be inferred from parameter names.
type SemanticRole string

const (
	RoleGeneric SemanticRole = "generic"
	// RoleAdjacency marks a 0/1 relation matrix ("job A depends on job B").
	RoleAdjacency SemanticRole = "adjacency"
)

// Kind is the closed set of parameter kinds the form engine understands.
type Kind string

const (
	KindScalarInt     Kind = "scalar_int"
	KindScalarFloat   Kind = "scalar_float"
	KindScalarBool    Kind = "scalar_bool"
	KindScalarString  Kind = "scalar_string"
	KindList          Kind = "list"
	KindDynamicMatrix Kind = "dynamic_matrix"
)

// IsScalar reports whether the kind holds a single value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindScalarInt, KindScalarFloat, KindScalarBool, KindScalarString:
		return true
	}
	return false
}

// DimensionKind tags the variants of DimensionExpr.
type DimensionKind int

const (
	DimLiteral DimensionKind = iota
	DimReference
	DimExpression
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DimensionExpr is a row or column count: a literal, a reference to a scalar
// parameter, or a computed $(...) expression over scalar inputs.
type DimensionExpr struct {
	Kind    DimensionKind
	Literal int
	Ref     string
	Expr    string
}

// Literal returns a literal dimension expression.
func Literal(n int) DimensionExpr {
	return DimensionExpr{Kind: DimLiteral, Literal: n}
}

// Ref returns a dimension expression referencing a scalar parameter.
func Ref(name string) DimensionExpr {
	return DimensionExpr{Kind: DimReference, Ref: name}
}

// Expr returns a computed dimension expression such as "$(inputs.num_jobs - 1)".
func Expr(src string) DimensionExpr {
	return DimensionExpr{Kind: DimExpression, Expr: src}
}

// ParseDimension parses the string form of a dimension expression.
func ParseDimension(s string) (DimensionExpr, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Literal(n), nil
	}
	if strings.HasPrefix(s, "$(") {
		if _, ok := ExprBody(s); !ok {
			return DimensionExpr{}, fmt.Errorf("invalid dimension expression %q: $( ) must wrap the whole expression", s)
		}
		return Expr(s), nil
	}
	if identPattern.MatchString(s) {
		return Ref(s), nil
	}
	return DimensionExpr{}, fmt.Errorf("invalid dimension expression %q", s)
}

// ExprBody returns the script inside a $( ) wrapper. It reports false unless
// the parenthesis opened by "$(" is the one closed by the final ")".
// Parentheses inside quoted strings are ignored.
func ExprBody(src string) (string, bool) {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, "$(") {
		return "", false
	}
	depth := 0
	var quote byte
	for i := 1; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if i != len(s)-1 {
					return "", false
				}
				body := strings.TrimSpace(s[2:i])
				return body, body != ""
			}
		}
	}
	return "", false
}

func (d DimensionExpr) String() string {
	switch d.Kind {
	case DimReference:
		return d.Ref
	case DimExpression:
		return d.Expr
	default:
		return strconv.Itoa(d.Literal)
	}
}

// MarshalJSON encodes literals as numbers and everything else as strings.
func (d DimensionExpr) MarshalJSON() ([]byte, error) {
	if d.Kind == DimLiteral {
		return json.Marshal(d.Literal)
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a number or a string.
func (d *DimensionExpr) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Literal(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dimension must be a number or string: %s", string(data))
	}
	parsed, err := ParseDimension(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML mirrors MarshalJSON for catalog files.
func (d DimensionExpr) MarshalYAML() (any, error) {
	if d.Kind == DimLiteral {
		return d.Literal, nil
	}
	return d.String(), nil
}

// UnmarshalYAML accepts a scalar node holding a number or a string.
func (d *DimensionExpr) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		*d = Literal(v)
		return nil
	case string:
		parsed, err := ParseDimension(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("dimension must be a number or string, got %T", raw)
}

// Dimensions holds the row and column expressions of a DYNAMIC_MATRIX parameter.
type Dimensions struct {
	Rows DimensionExpr `json:"rows" yaml:"rows"`
	Cols DimensionExpr `json:"cols" yaml:"cols"`
}

// Parameter is one declared algorithm input.
type Parameter struct {
	Name             string       `json:"name" yaml:"name" validate:"required"`
	Title            string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description      string       `json:"description,omitempty" yaml:"description,omitempty"`
	DataType         DataType     `json:"data_type" yaml:"data_type" validate:"required,oneof=INT FLOAT BOOL STRING"`
	DataShape        DataShape    `json:"data_shape" yaml:"data_shape" validate:"required,oneof=SCALAR LIST DYNAMIC_MATRIX"`
	MatrixController bool         `json:"matrix_controller,omitempty" yaml:"matrix_controller,omitempty"`
	Dimensions       *Dimensions  `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	ColumnLabels     []string     `json:"column_labels,omitempty" yaml:"column_labels,omitempty"`
	RowLabel         string       `json:"row_label,omitempty" yaml:"row_label,omitempty"`
	DefaultValue     any          `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	SemanticRole     SemanticRole `json:"semantic_role,omitempty" yaml:"semantic_role,omitempty" validate:"omitempty,oneof=generic adjacency"`
	Minimum          *float64     `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum          *float64     `json:"maximum,omitempty" yaml:"maximum,omitempty"`
}

// Kind maps the declared type and shape onto the closed kind set.
func (p *Parameter) Kind() (Kind, error) {
	switch p.DataShape {
	case DataShapeDynamicMatrix:
		return KindDynamicMatrix, nil
	case DataShapeList:
		return KindList, nil
	case DataShapeScalar, "":
		switch p.DataType {
		case DataTypeInt:
			return KindScalarInt, nil
		case DataTypeFloat:
			return KindScalarFloat, nil
		case DataTypeBool:
			return KindScalarBool, nil
		case DataTypeString:
			return KindScalarString, nil
		}
		return "", fmt.Errorf("parameter %q: unsupported data type %q", p.Name, p.DataType)
	}
	return "", fmt.Errorf("parameter %q: unsupported data shape %q", p.Name, p.DataShape)
}

// IsAdjacency reports whether cells are 0/1 dependency indicators.
func (p *Parameter) IsAdjacency() bool {
	return p.SemanticRole == RoleAdjacency
}

// Output describes one named result value returned by the execution service.
type Output struct {
	Name        string    `json:"name" yaml:"name"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	DataType    DataType  `json:"data_type" yaml:"data_type"`
	DataShape   DataShape `json:"data_shape" yaml:"data_shape"`
}

// AlgorithmSummary is an entry of the algorithm list.
type AlgorithmSummary struct {
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// AlgorithmDefinition is the full declarative description of an algorithm.
type AlgorithmDefinition struct {
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Notes       string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters" validate:"dive"`
	Outputs     []Output    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Parameter returns the named parameter, or nil.
func (d *AlgorithmDefinition) Parameter(name string) *Parameter {
	for i := range d.Parameters {
		if d.Parameters[i].Name == name {
			return &d.Parameters[i]
		}
	}
	return nil
}

// Summary returns the list entry for the definition.
func (d *AlgorithmDefinition) Summary() AlgorithmSummary {
	return AlgorithmSummary{Name: d.Name, Title: d.Title, Description: d.Description, Tags: d.Tags}
}
