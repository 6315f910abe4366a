package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/me/schedlab/pkg/model"
)

var (
	// ErrNotLoaded is returned when a form has no algorithm schema.
	ErrNotLoaded = errors.New("form has no algorithm loaded")
	// ErrUnknownField is returned for names absent from the schema.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotEditable is returned for edits while a submission is in flight.
	ErrNotEditable = errors.New("form is not editable while submitting")
	// ErrSubmissionInFlight rejects a second concurrent submission of the same form.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrStaleResponse marks a response for a form that has since been reloaded.
	ErrStaleResponse = errors.New("stale submission response")
	// ErrCellOutOfRange is returned for cell edits outside the current shape.
	ErrCellOutOfRange = errors.New("cell out of range")
)

// ValidationError carries the field errors that blocked a submission.
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "form has errors: " + strings.Join(parts, "; ")
}

// SchemaError describes an algorithm definition the engine cannot bind.
type SchemaError struct {
	Algorithm string
	Field     string
	Message   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("algorithm %q: %s", e.Algorithm, e.Message)
	}
	return fmt.Sprintf("algorithm %q: parameter %q: %s", e.Algorithm, e.Field, e.Message)
}
