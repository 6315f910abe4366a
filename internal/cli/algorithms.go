package cli

import (
	"fmt"
	"strings"

	"github.com/me/schedlab/pkg/model"
	"github.com/spf13/cobra"
)

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "algorithms",
		Aliases: []string{"algos", "ls"},
		Short:   "List available algorithms",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/algorithms")
			if err != nil {
				return fmt.Errorf("list algorithms: %w", err)
			}

			var data []model.AlgorithmSummary
			if err := resp.decode(&data); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(data) == 0 {
				fmt.Fprintln(out, "No algorithms found.")
				return nil
			}

			fmt.Fprintf(out, "%-24s  %-36s  %s\n", "NAME", "TITLE", "TAGS")
			fmt.Fprintf(out, "%-24s  %-36s  %s\n", "----", "-----", "----")
			for _, a := range data {
				fmt.Fprintf(out, "%-24s  %-36s  %s\n", a.Name, a.Title, strings.Join(a.Tags, ","))
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <algorithm>",
		Short: "Show an algorithm's parameters and outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/algorithms/" + args[0])
			if err != nil {
				return fmt.Errorf("get algorithm: %w", err)
			}

			var def model.AlgorithmDefinition
			if err := resp.decode(&def); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Algorithm: %s\n", def.Name)
			if def.Title != "" {
				fmt.Fprintf(out, "  Title:   %s\n", def.Title)
			}
			if def.Description != "" {
				fmt.Fprintf(out, "  About:   %s\n", def.Description)
			}

			fmt.Fprintln(out, "\nParameters:")
			fmt.Fprintf(out, "  %-20s  %-6s  %-14s  %-16s  %s\n", "NAME", "TYPE", "SHAPE", "DIMENSIONS", "DEFAULT")
			for _, p := range def.Parameters {
				dims := "-"
				if p.Dimensions != nil {
					dims = p.Dimensions.Rows.String() + " x " + p.Dimensions.Cols.String()
				}
				name := p.Name
				if p.MatrixController {
					name += " *"
				}
				dflt := "-"
				if p.DefaultValue != nil {
					dflt = fmt.Sprint(p.DefaultValue)
				}
				fmt.Fprintf(out, "  %-20s  %-6s  %-14s  %-16s  %s\n", name, p.DataType, p.DataShape, dims, dflt)
			}

			if len(def.Outputs) > 0 {
				fmt.Fprintln(out, "\nOutputs:")
				for _, o := range def.Outputs {
					fmt.Fprintf(out, "  %-20s  %-6s  %s\n", o.Name, o.DataType, o.DataShape)
				}
			}
			return nil
		},
	}
}
