// Package backend talks to the scheduling-algorithm service: it fetches
// algorithm definitions and runs algorithms with concrete parameter values.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/me/schedlab/pkg/model"
)

// SchemaProvider supplies algorithm definitions.
type SchemaProvider interface {
	ListAlgorithms(ctx context.Context) ([]model.AlgorithmSummary, error)
	GetAlgorithm(ctx context.Context, name string) (*model.AlgorithmDefinition, error)
}

// Executor runs an algorithm against a set of form values.
type Executor interface {
	Execute(ctx context.Context, name string, values map[string]any) (*model.Result, error)
}

// ParamValue is one entry of the execution request body.
type ParamValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExecuteRequest is the body POSTed to /api/Algorithms/{name}.
type ExecuteRequest struct {
	Parameters []ParamValue `json:"parameters"`
}

// EncodeParameters flattens form values into the wire format: lists and
// matrices are JSON text, scalars their plain string form. Entries are sorted
// by name.
func EncodeParameters(values map[string]any) ([]ParamValue, error) {
	out := make([]ParamValue, 0, len(values))
	for _, name := range slices.Sorted(maps.Keys(values)) {
		s, err := encodeValue(values[name])
		if err != nil {
			return nil, fmt.Errorf("encode parameter %s: %w", name, err)
		}
		out = append(out, ParamValue{Name: name, Value: s})
	}
	return out, nil
}

func encodeValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeResult parses an execution response object. A body with a truthy
// "error" field becomes an *ExecutionError. The gantt_data output is decoded
// separately; every other key is kept verbatim.
func DecodeResult(algorithm string, body []byte) (*model.Result, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse execution response: %w", err)
	}

	if flag, ok := raw["error"]; ok {
		var failed bool
		if json.Unmarshal(flag, &failed) == nil {
			if failed {
				var msg struct {
					Message string `json:"message"`
				}
				_ = json.Unmarshal(body, &msg)
				return nil, &ExecutionError{Algorithm: algorithm, Message: msg.Message}
			}
			// An explicit "error": false is status, not output.
			delete(raw, "error")
			delete(raw, "message")
		}
	}

	res := &model.Result{Outputs: make(map[string]json.RawMessage, len(raw))}
	for k, v := range raw {
		if k == model.GanttKey {
			var g model.GanttData
			if err := json.Unmarshal(v, &g); err != nil {
				return nil, fmt.Errorf("parse %s: %w", model.GanttKey, err)
			}
			res.Gantt = &g
			continue
		}
		res.Outputs[k] = v
	}
	return res, nil
}
