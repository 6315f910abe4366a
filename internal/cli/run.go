package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/me/schedlab/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// submitResult mirrors the submit endpoint's response.
type submitResult struct {
	Run     *model.Run     `json:"run"`
	Message string         `json:"message"`
	Form    model.FormView `json:"form"`
}

func newRunCmd() *cobra.Command {
	var inputsFile string
	var sets []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <algorithm>",
		Short: "Run an algorithm and print its outputs",
		Long: `Creates a form for the algorithm, applies the inputs, submits it and
prints the outputs. Inputs come from a YAML file mapping parameter names to
values (matrices as lists of rows) and from --set name=value flags, which win.
Parameters left out keep their defaults; matrices are reshaped to the
dimensions their controllers resolve to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := loadInputs(inputsFile, sets)
			if err != nil {
				return err
			}
			return runAlgorithm(cmd.OutOrStdout(), args[0], values, asJSON)
		},
	}

	cmd.Flags().StringVarP(&inputsFile, "inputs", "i", "", "YAML file with parameter values")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set one scalar parameter (name=value); repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outputs as JSON")
	return cmd
}

// loadInputs merges the inputs file with --set overrides.
func loadInputs(path string, sets []string) (map[string]any, error) {
	values := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read inputs file: %w", err)
		}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse inputs file: %w", err)
		}
		if values == nil {
			values = map[string]any{}
		}
	}
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q (want name=value)", s)
		}
		values[name] = value
	}
	return values, nil
}

func runAlgorithm(out io.Writer, algorithm string, values map[string]any, asJSON bool) error {
	resp, err := client.Post("/api/v1/forms", map[string]any{
		"algorithm": algorithm,
		"values":    values,
	})
	if err != nil {
		return fmt.Errorf("create form: %w", describe(err))
	}
	var form model.FormView
	if err := resp.decode(&form); err != nil {
		return err
	}
	defer func() {
		if _, err := client.Delete("/api/v1/forms/" + form.ID); err != nil {
			logger.Debug("form cleanup failed", "form_id", form.ID, "error", err)
		}
	}()
	logger.Info("form ready", "form_id", form.ID, "algorithm", algorithm)

	resp, err = client.Post("/api/v1/forms/"+form.ID+"/submit", nil)
	if err != nil {
		return fmt.Errorf("submit: %w", describe(err))
	}
	var res submitResult
	if err := resp.decode(&res); err != nil {
		return err
	}

	if res.Run != nil && res.Run.State != model.RunStateCompleted {
		msg := res.Message
		if msg == "" {
			msg = res.Run.Error
		}
		return fmt.Errorf("run %s failed: %s", res.Run.ID, msg)
	}

	result := res.Form.Result
	if result == nil && res.Run != nil {
		result = res.Run.Result
	}
	if result == nil {
		return errors.New("server returned no result")
	}

	if asJSON {
		return writeJSON(out, result)
	}
	if res.Run != nil {
		fmt.Fprintf(out, "Run: %s (%s)\n", res.Run.ID, res.Run.State)
	}
	printResult(out, result)
	return nil
}

// describe appends field-level details of an API error.
func describe(err error) error {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Details) == 0 {
		return err
	}
	parts := make([]string, 0, len(apiErr.Details))
	for _, d := range apiErr.Details {
		if d.Field != "" {
			parts = append(parts, d.Field+": "+d.Message)
		} else {
			parts = append(parts, d.Message)
		}
	}
	return fmt.Errorf("%w (%s)", err, strings.Join(parts, "; "))
}

func printResult(out io.Writer, res *model.Result) {
	names := make([]string, 0, len(res.Outputs))
	for name := range res.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "\nOutputs:")
	for _, name := range names {
		var v any
		if err := json.Unmarshal(res.Outputs[name], &v); err != nil {
			v = string(res.Outputs[name])
		}
		printValue(out, name, v)
	}

	if g := res.Gantt; g != nil {
		fmt.Fprintf(out, "\nSchedule: %d workers, total duration %.1f\n", len(g.Workers), g.TotalDuration)
		for _, w := range g.Workers {
			name := w.WorkerName
			if name == "" {
				name = fmt.Sprintf("Worker %d", w.WorkerID+1)
			}
			var boxes []string
			for _, s := range w.Stages {
				if s.Start == nil {
					continue
				}
				boxes = append(boxes, fmt.Sprintf("J%d[%g-%g]", s.JobID+1, *s.Start, s.End))
			}
			fmt.Fprintf(out, "  %-12s  %s\n", name, strings.Join(boxes, " "))
		}
	}
}

// printValue writes name = value, with matrices one row per line.
func printValue(out io.Writer, name string, v any) {
	rows, ok := v.([]any)
	if ok && len(rows) > 0 {
		if _, nested := rows[0].([]any); nested {
			fmt.Fprintf(out, "  %s =\n", name)
			for _, row := range rows {
				fmt.Fprintf(out, "    %v\n", formatList(row))
			}
			return
		}
		fmt.Fprintf(out, "  %s = %s\n", name, formatList(v))
		return
	}
	fmt.Fprintf(out, "  %s = %v\n", name, v)
}

func formatList(v any) string {
	items, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, " ")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
